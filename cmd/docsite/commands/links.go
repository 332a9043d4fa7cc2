package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/markdown"
)

// LinksCmd implements the 'links' command.
type LinksCmd struct {
	Files []string `arg:"" optional:"" type:"existingfile" help:"Documents to inspect; the configured source tree when omitted"`
	JSON  bool     `help:"Print JSON instead of a table"`
	Kind  []string `help:"Only list these kinds (inline, image, auto, reference_definition)"`
}

type linkRow struct {
	Document    string `json:"document"`
	Kind        string `json:"kind"`
	Destination string `json:"destination"`
	VideoID     string `json:"video_id,omitempty"`
}

func (l *LinksCmd) Run(g *Global, root *CLI) error {
	docs, err := resolveDocuments(g, root, l.Files)
	if err != nil {
		return err
	}

	kinds := map[markdown.LinkKind]bool{}
	for _, k := range l.Kind {
		kind := markdown.LinkKind(k)
		if !kind.Valid() {
			return ferrors.ValidationError("unknown link kind").WithContext("kind", k).Build()
		}
		kinds[kind] = true
	}

	rows := make([]linkRow, 0)
	err = docs.each(g, func(rel string, body []byte) error {
		links, err := markdown.ExtractLinks(body, docs.opts)
		if err != nil {
			return err
		}
		for _, link := range links {
			if len(kinds) > 0 && !kinds[link.Kind] {
				continue
			}
			rows = append(rows, linkRow{Document: rel, Kind: string(link.Kind), Destination: link.Destination, VideoID: link.VideoID})
		}
		return nil
	})
	if err != nil {
		return err
	}

	if l.JSON {
		enc := json.NewEncoder(g.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DOCUMENT\tKIND\tDESTINATION\tVIDEO")
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Document, r.Kind, r.Destination, r.VideoID)
	}
	return tw.Flush()
}
