package services

import (
	"video-maker/internal/config"
	"video-maker/internal/faults"
	"video-maker/internal/transcription"
	"video-maker/internal/tts"
	"video-maker/models"
)

// NewSynthesizer returns the configured speech provider gated by the
// courtesy delay between calls.
func NewSynthesizer(cfg *models.Config, ffmpeg WAVConverter) (tts.Synthesizer, error) {
	var s tts.Synthesizer
	switch cfg.Speech.Provider {
	case config.ProviderAzure:
		if err := cfg.RequireAzureCredentials(); err != nil {
			return nil, err
		}
		s = NewAzureTTSService(cfg.Speech.Key, cfg.Speech.Region, cfg.Speech.OutputFormat, cfg.RequestTimeout())
	case config.ProviderEdgeTTS:
		s = NewEdgeTTSService(cfg.Speech.EdgeTTSPath, ffmpeg)
	default:
		return nil, faults.Wrapf(faults.ErrInvalidConfig, "speech.provider", "", "unknown provider %q", cfg.Speech.Provider)
	}
	return tts.WithPacer(s, tts.NewPacer(cfg.MinDelay(), cfg.MaxDelay())), nil
}

// NewRecognizer returns the recognition provider. Only Azure is supported.
func NewRecognizer(cfg *models.Config) (transcription.Recognizer, error) {
	if err := cfg.RequireAzureCredentials(); err != nil {
		return nil, err
	}
	return NewAzureSTTService(cfg.Speech.Key, cfg.Speech.Region, cfg.RequestTimeout()), nil
}
