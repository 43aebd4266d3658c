package tts

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"video-maker/internal/faults"
)

// Validate rejects requests that cannot produce audio.
func Validate(req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return faults.Wrap(faults.ErrEmptyInput, "synthesize", req.OutputPath, nil)
	}
	if req.OutputPath == "" {
		return faults.Wrapf(faults.ErrSynthesisFailed, "synthesize", "", "no output path")
	}
	if strings.TrimSpace(req.Voice) == "" {
		return faults.Wrapf(faults.ErrSynthesisFailed, "synthesize", req.OutputPath, "no voice configured")
	}
	return nil
}

// PrepareOutput creates the output directory and returns the absolute path.
func PrepareOutput(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", faults.Wrap(faults.ErrSynthesisFailed, "resolve output", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", faults.Wrap(faults.ErrSynthesisFailed, "create output directory", path, err)
	}
	return abs, nil
}

// Paced wraps a synthesizer so successive calls honor p.
type Paced struct {
	Synthesizer
	pacer *Pacer
}

// WithPacer returns s gated by p. A nil pacer returns s unchanged.
func WithPacer(s Synthesizer, p *Pacer) Synthesizer {
	if p == nil {
		return s
	}
	return &Paced{Synthesizer: s, pacer: p}
}

// Synthesize waits for the pacer, calls the provider, then starts the next
// courtesy delay whether or not the call succeeded.
func (s *Paced) Synthesize(ctx context.Context, req Request) error {
	if err := Validate(req); err != nil {
		return err
	}
	if err := s.pacer.Wait(ctx); err != nil {
		return err
	}
	defer s.pacer.Done()
	return s.Synthesizer.Synthesize(ctx, req)
}
