// Package model contains domain models passed between layers.
package model

// Entry is one leaderboard record. Entries are never mutated once written.
type Entry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Submission carries an Entry to the single writer together with a
// one-shot channel on which the writer reports the outcome of the save.
type Submission struct {
	Entry Entry
	Done  chan error
}

// NewSubmission returns a Submission whose Done channel never blocks the writer.
func NewSubmission(e Entry) Submission {
	return Submission{Entry: e, Done: make(chan error, 1)}
}

// Resolve reports the outcome of the write. Only the first call has effect.
func (s Submission) Resolve(err error) {
	select {
	case s.Done <- err:
	default:
	}
}
