package app

import "time"

// Operation statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation tracks one CLI invocation. Its ID correlates every log line of
// the invocation. Mutating operations (analyze, keys init) trigger a case
// snapshot on close.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string
	StartedAt  time.Time
	mutating   bool
}

// NewOperation creates an operation that started at now.
func NewOperation(name string, now time.Time) *Operation {
	return &Operation{
		ID:        now.UTC().Format("20060102T150405Z"),
		Name:      name,
		Status:    StatusSuccess,
		StartedAt: now,
	}
}

// MarkMutating records that the operation changes persisted state.
func (op *Operation) MarkMutating() { op.mutating = true }

// Mutating reports whether MarkMutating was called.
func (op *Operation) Mutating() bool { return op.mutating }

// Fail marks the operation as failed.
func (op *Operation) Fail() { op.Status = StatusError }

// Elapsed returns the time since the operation started, rounded to milliseconds.
func (op *Operation) Elapsed(now time.Time) time.Duration {
	return now.Sub(op.StartedAt).Round(time.Millisecond)
}
