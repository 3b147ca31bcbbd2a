package sse

// Event names written in the "event:" field.
const (
	// EventNext carries one item.
	EventNext = "next"
	// EventError carries the error body and ends the stream.
	EventError = "error"
	// EventComplete ends the stream successfully.
	EventComplete = "complete"
)
