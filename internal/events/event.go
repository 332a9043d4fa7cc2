// Package events publishes build notifications for other systems to consume.
package events

import (
	"context"
	"time"
)

// BuildEvent summarizes one completed (or failed) site build.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	Outcome    string    `json:"outcome"`
	Trigger    string    `json:"trigger,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Pages      int       `json:"pages"`
	Rendered   int       `json:"rendered"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Embeds     int       `json:"embeds"`
	Commit     string    `json:"commit,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Publisher delivers build events.
type Publisher interface {
	Publish(ctx context.Context, event BuildEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BuildEvent) error { return nil }
func (NoopPublisher) Close() error                              { return nil }
