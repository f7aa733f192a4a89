package answer

import "github.com/citewell/citewell/core"

// EventType discriminates stream event frames.
type EventType int

const (
	// EventSources carries the citation sources, emitted once before any
	// token.
	EventSources EventType = iota + 1

	// EventToken carries one generated token.
	EventToken

	// EventDone terminates a stream that finished or was cancelled.
	EventDone

	// EventError terminates a stream that failed.
	EventError
)

// Event is one frame of a streaming answer. Exactly one of the payload
// fields is meaningful, selected by Type; every stream ends with exactly one
// EventDone or EventError.
type Event struct {
	Type    EventType
	Sources []Source
	Token   string
	Answer  *Answer
	Err     error
}

// Answer is the final result of a question, streaming or not.
type Answer struct {
	Text    string
	Sources []Source
	Status  core.MessageStatus
}
