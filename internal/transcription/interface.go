// Package transcription models a streaming recognition session and collects
// its events into a transcript under a deadline.
package transcription

import (
	"context"
	"time"
)

// EventType enumerates recognition session events.
type EventType int

const (
	EventSessionStarted EventType = iota
	EventRecognizing              // interim hypothesis
	EventRecognized               // final utterance
	EventSessionStopped
	EventCanceled
)

func (t EventType) String() string {
	switch t {
	case EventSessionStarted:
		return "session_started"
	case EventRecognizing:
		return "recognizing"
	case EventRecognized:
		return "recognized"
	case EventSessionStopped:
		return "session_stopped"
	case EventCanceled:
		return "canceled"
	}
	return "unknown"
}

// Event is one message from a recognition session.
type Event struct {
	Type     EventType
	Text     string
	Offset   time.Duration
	Duration time.Duration
	Err      error // set on EventCanceled when the provider reports an error
}

// Recognizer starts a recognition session over a decoded waveform. Events
// are delivered on the returned channel, which the recognizer closes after
// the final stop or cancel event.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, audioPath, language string) (<-chan Event, error)
}

// ProviderType identifies a recognition provider.
type ProviderType string

const (
	ProviderAzure ProviderType = "azure"
)
