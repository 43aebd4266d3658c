// Package tts defines the speech synthesis contract used by the segment
// pipeline and the pacing shared by all providers.
package tts

import "context"

// Request is one narration to synthesize.
type Request struct {
	Text       string
	Voice      string
	Language   string
	OutputPath string // RIFF/WAVE output
}

// Synthesizer turns narration text into a waveform file.
type Synthesizer interface {
	// Name identifies the provider in logs and the doctor report.
	Name() string

	// CheckInstalled verifies the provider can be reached or executed.
	CheckInstalled(ctx context.Context) error

	// Synthesize writes req.OutputPath or fails with faults.ErrSynthesisFailed
	// (provider error or cancellation) or faults.ErrEmptyInput.
	Synthesize(ctx context.Context, req Request) error
}

// ProviderType identifies a TTS provider.
type ProviderType string

const (
	ProviderAzure   ProviderType = "azure"
	ProviderEdgeTTS ProviderType = "edge-tts"
)
