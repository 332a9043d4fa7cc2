package state

import (
	"context"
	"time"
)

// Record is the stored state of one rendered document.
type Record struct {
	Path        string    // Source path relative to the source directory
	Fingerprint string    // Content fingerprint of frontmatter and body
	Output      string    // Output path relative to the output directory
	Title       string    // Page title written to the output
	Embeds      int       // Number of YouTube players on the page
	UpdatedAt   time.Time // Time the record was written
}

// Store persists document records between builds.
type Store interface {
	// Get returns the record for path. The bool is false when none exists.
	Get(ctx context.Context, path string) (Record, bool, error)
	// Put inserts or replaces a record.
	Put(ctx context.Context, rec Record) error
	// Prune deletes every record whose path is not in keep.
	Prune(ctx context.Context, keep []string) error
	Close() error
}
