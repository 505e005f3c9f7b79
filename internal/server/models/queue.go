package models

import "time"

// QueueEntry is one legacy user waiting to be imported into the provider.
// A nil Password travels through the queue as the literal "null".
type QueueEntry struct {
	Email    string
	Password *string
	ID       string
}

// ImportReport summarises a single batch consumer invocation.
type ImportReport struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	QueueLength int64     `json:"queue_length"`
	Popped      int       `json:"popped"`
	Created     int       `json:"created"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	Exhausted   bool      `json:"exhausted"`
}
