package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"video-maker/internal/faults"
)

// State is the position of a session in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateAudioExtracted
	StateSessionStarted
	StateRecognizing
	StateSegmentRecognized
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAudioExtracted:
		return "audio_extracted"
	case StateSessionStarted:
		return "session_started"
	case StateRecognizing:
		return "recognizing"
	case StateSegmentRecognized:
		return "segment_recognized"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Session accumulates final utterances. Interim results are never appended.
type Session struct {
	state      State
	text       strings.Builder
	utterances int
	err        error
}

// NewSession returns a session whose audio has already been extracted.
func NewSession() *Session {
	return &Session{state: StateAudioExtracted}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Utterances counts recognized segments.
func (s *Session) Utterances() int { return s.utterances }

// Transcript returns the accumulated text, one utterance per line.
func (s *Session) Transcript() string { return s.text.String() }

// Err is the provider error carried by a cancel event, if any.
func (s *Session) Err() error { return s.err }

// Apply advances the state machine. Events after Done are ignored.
func (s *Session) Apply(ev Event) {
	if s.state == StateDone {
		return
	}
	switch ev.Type {
	case EventSessionStarted:
		s.state = StateSessionStarted
	case EventRecognizing:
		s.state = StateRecognizing
	case EventRecognized:
		if ev.Text != "" {
			s.text.WriteString(ev.Text)
			s.text.WriteByte('\n')
			s.utterances++
		}
		s.state = StateSegmentRecognized
	case EventSessionStopped:
		s.state = StateDone
	case EventCanceled:
		s.err = ev.Err
		s.state = StateDone
	}
}

// Collect drains events until the session is done, ctx ends or timeout
// elapses. A timeout fails with faults.ErrRecognitionTimeout; a cancel event
// carrying an error, or a channel closed before the session finished, fails
// with faults.ErrRecognitionFailed. The session is returned in every case so
// callers can inspect partial text.
func Collect(ctx context.Context, events <-chan Event, timeout time.Duration) (*Session, error) {
	s := NewSession()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if s.state != StateDone {
					return s, faults.Wrapf(faults.ErrRecognitionFailed, "recognize", "",
						"session closed in state %s", s.state)
				}
				return s, nil
			}
			s.Apply(ev)
			if s.state == StateDone {
				if s.err != nil {
					return s, faults.Wrap(faults.ErrRecognitionFailed, "recognize", "", s.err)
				}
				return s, nil
			}
		case <-deadline:
			return s, faults.Wrapf(faults.ErrRecognitionTimeout, "recognize", "",
				"no completion after %s (state %s)", timeout, s.state)
		case <-ctx.Done():
			return s, fmt.Errorf("recognize: %w", ctx.Err())
		}
	}
}
