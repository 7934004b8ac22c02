package metrics

import "time"

// OutcomeLabel enumerates load and reload outcomes for counters.
type OutcomeLabel string

const (
	OutcomeSuccess   OutcomeLabel = "success"
	OutcomeUnchanged OutcomeLabel = "unchanged"
	OutcomeFailed    OutcomeLabel = "failed"
)

// Recorder defines observability hooks for configuration loads and reloads.
// Implementations may forward to Prometheus or to a test double.
type Recorder interface {
	ObserveLoadDuration(d time.Duration)
	IncLoadOutcome(outcome OutcomeLabel)
	IncReload(trigger string)
	SetNavSize(leaves, nodes int)
	IncCheckIssues(rule string, n int)
	SetLastReload(t time.Time)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveLoadDuration(time.Duration) {}
func (NoopRecorder) IncLoadOutcome(OutcomeLabel)       {}
func (NoopRecorder) IncReload(string)                  {}
func (NoopRecorder) SetNavSize(int, int)               {}
func (NoopRecorder) IncCheckIssues(string, int)        {}
func (NoopRecorder) SetLastReload(time.Time)           {}
