package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"video-maker/internal/faults"
	"video-maker/internal/logger"
	"video-maker/internal/subtitle"
	"video-maker/internal/text"
	"video-maker/internal/transcription"
)

// Transcript is the outcome of one recovery.
type Transcript struct {
	Raw        string // utterances as recognized, one per line
	Text       string // cue text
	Filtered   bool   // punctuation was stripped from a CJK-only transcript
	Utterances int
	Duration   time.Duration
	Track      subtitle.Track
	Path       string
}

// TranscriptRecovery recognizes the narration of a media file and writes it
// as a single subtitle cue spanning the whole audio. The cue is not aligned
// to utterances.
type TranscriptRecovery struct {
	media      Extractor
	recognizer transcription.Recognizer
	language   string
	timeout    time.Duration
	log        *logger.Logger
}

// NewTranscriptRecovery returns a recovery that waits at most timeout for
// the recognition session to finish. A zero timeout waits indefinitely.
func NewTranscriptRecovery(m Extractor, r transcription.Recognizer, language string, timeout time.Duration) *TranscriptRecovery {
	return &TranscriptRecovery{
		media:      m,
		recognizer: r,
		language:   language,
		timeout:    timeout,
		log:        logger.Default(),
	}
}

// Recover extracts the waveform of source to audioPath, recognizes it and
// writes the single-cue subtitle file to srtPath.
func (t *TranscriptRecovery) Recover(ctx context.Context, source, audioPath, srtPath string) (*Transcript, error) {
	if err := t.media.ExtractAudio(ctx, source, audioPath); err != nil {
		return nil, err
	}

	duration, err := t.media.Duration(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	t.log.Info("Transcript: recognizing %s with %s (%s)", audioPath, t.recognizer.Name(), t.language)

	events, err := t.recognizer.Recognize(ctx, audioPath, t.language)
	if err != nil {
		if _, ok := faults.KindOf(err); ok || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, faults.Wrap(faults.ErrRecognitionFailed, "start recognition", audioPath, err)
	}

	session, err := transcription.Collect(ctx, events, t.timeout)
	if err != nil {
		if session != nil && session.Utterances() > 0 {
			t.log.Warn("Transcript: discarding %d partial utterances", session.Utterances())
		}
		return nil, err
	}

	out := BuildTranscript(session.Transcript(), duration)
	out.Utterances = session.Utterances()
	out.Path = srtPath

	if err := subtitle.WriteFile(srtPath, out.Track); err != nil {
		return nil, faults.Wrap(nil, "write subtitles", srtPath, err)
	}
	t.log.Info("Transcript: %d utterances, %s → %s", out.Utterances, duration, srtPath)
	return out, nil
}

// BuildTranscript turns a raw transcript into the single-cue track. The
// punctuation-stripped text is used only when what remains is CJK-only.
func BuildTranscript(raw string, duration time.Duration) *Transcript {
	out := &Transcript{Raw: raw, Duration: duration}

	cue := raw
	if filtered := text.StripPunctuation(raw); text.IsCJKOnly(filtered) {
		cue = filtered
		out.Filtered = true
	}
	out.Text = strings.TrimRight(cue, "\r\n")
	out.Track = subtitle.SingleCue(out.Text, duration)
	return out
}
