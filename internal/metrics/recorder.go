package metrics

import "time"

// BuildOutcomeLabel enumerates final build states.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeWarning  BuildOutcomeLabel = "warning"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// PageResultLabel enumerates per-document results.
type PageResultLabel string

const (
	PageRendered PageResultLabel = "rendered"
	PageSkipped  PageResultLabel = "skipped"
	PageFailed   PageResultLabel = "failed"
)

// Recorder defines observability hooks for builds. Implementations must be
// safe for concurrent use; pages are rendered in parallel.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	ObservePageDuration(d time.Duration)
	IncPageResult(result PageResultLabel)
	AddEmbeds(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel) {}
func (NoopRecorder) ObservePageDuration(time.Duration) {}
func (NoopRecorder) IncPageResult(PageResultLabel) {}
func (NoopRecorder) AddEmbeds(int) {}
