package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/docsite/internal/markdown"
)

// EmbedsCmd implements the 'embeds' command.
type EmbedsCmd struct {
	Files []string `arg:"" optional:"" type:"existingfile" help:"Documents to inspect; the configured source tree when omitted"`
	JSON  bool     `help:"Print JSON instead of a table"`
}

type embedRow struct {
	Document string `json:"document"`
	VideoID  string `json:"video_id"`
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
}

func (e *EmbedsCmd) Run(g *Global, root *CLI) error {
	docs, err := resolveDocuments(g, root, e.Files)
	if err != nil {
		return err
	}

	rows := make([]embedRow, 0)
	err = docs.each(g, func(rel string, body []byte) error {
		embeds, err := markdown.ExtractEmbeds(body, docs.opts)
		if err != nil {
			return err
		}
		for _, em := range embeds {
			rows = append(rows, embedRow{Document: rel, VideoID: em.VideoID, URL: em.Destination, Title: em.Label})
		}
		return nil
	})
	if err != nil {
		return err
	}

	if e.JSON {
		enc := json.NewEncoder(g.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DOCUMENT\tVIDEO\tTITLE")
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Document, r.VideoID, r.Title)
	}
	return tw.Flush()
}
