package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"video-maker/internal/config"
	"video-maker/internal/faults"
	vmhttp "video-maker/internal/http"
	"video-maker/internal/logger"
	"video-maker/internal/media"
	"video-maker/internal/transcription"
)

// AzureSTTService recognizes speech with the Azure short-audio REST API.
// Long waveforms are cut into chunks and posted one after another; the
// responses are replayed as a recognition session.
type AzureSTTService struct {
	key      string
	region   string
	endpoint string
	chunk    time.Duration
	client   *http.Client
}

// azureRecognition is the simple-format response body.
type azureRecognition struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`   // 100ns ticks
	Duration          int64  `json:"Duration"` // 100ns ticks
}

// NewAzureSTTService creates a recognizer for region authenticated by key.
func NewAzureSTTService(key, region string, timeout time.Duration) *AzureSTTService {
	client := vmhttp.SpeechClient
	if timeout > 0 {
		client = vmhttp.NewClient(timeout)
	}
	return &AzureSTTService{
		key:      strings.TrimSpace(key),
		region:   strings.TrimSpace(region),
		endpoint: fmt.Sprintf(config.AzureSTTEndpointFormat, strings.TrimSpace(region)),
		chunk:    config.RecognitionChunk,
		client:   client,
	}
}

// SetEndpoint overrides the recognition URL.
func (s *AzureSTTService) SetEndpoint(u string) {
	if u != "" {
		s.endpoint = u
	}
}

// SetChunk overrides the request length.
func (s *AzureSTTService) SetChunk(d time.Duration) {
	if d > 0 {
		s.chunk = d
	}
}

// Name implements transcription.Recognizer.
func (s *AzureSTTService) Name() string { return string(transcription.ProviderAzure) }

// Recognize starts the session. Splitting errors are returned directly;
// provider errors arrive as a cancel event.
func (s *AzureSTTService) Recognize(ctx context.Context, audioPath, language string) (<-chan transcription.Event, error) {
	if s.key == "" || s.region == "" {
		return nil, faults.Wrapf(faults.ErrRecognitionFailed, "azure stt", audioPath, "speech.key and speech.region are required")
	}
	chunks, info, err := media.SplitWAV(audioPath, s.chunk)
	if err != nil {
		return nil, faults.Wrap(faults.ErrUnsupportedFormat, "split audio", audioPath, err)
	}

	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, faults.Wrap(faults.ErrRecognitionFailed, "parse endpoint", s.endpoint, err)
	}
	q := u.Query()
	q.Set("language", language)
	q.Set("format", "simple")
	u.RawQuery = q.Encode()

	contentType := fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", info.SampleRate)

	events := make(chan transcription.Event, 4)
	go s.session(ctx, u.String(), contentType, chunks, events)
	return events, nil
}

func (s *AzureSTTService) session(ctx context.Context, endpoint, contentType string, chunks [][]byte, events chan<- transcription.Event) {
	defer close(events)

	send := func(ev transcription.Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !send(transcription.Event{Type: transcription.EventSessionStarted}) {
		return
	}

	var base time.Duration
	for i, chunk := range chunks {
		if !send(transcription.Event{Type: transcription.EventRecognizing, Offset: base}) {
			return
		}
		res, err := s.post(ctx, endpoint, contentType, chunk)
		if err != nil {
			send(transcription.Event{Type: transcription.EventCanceled, Err: fmt.Errorf("chunk %d: %w", i+1, err)})
			return
		}

		switch res.RecognitionStatus {
		case "Success":
			ev := transcription.Event{
				Type:     transcription.EventRecognized,
				Text:     res.DisplayText,
				Offset:   base + ticks(res.Offset),
				Duration: ticks(res.Duration),
			}
			if !send(ev) {
				return
			}
		case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
			logger.Debug("Azure STT: chunk %d: %s", i+1, res.RecognitionStatus)
		default:
			send(transcription.Event{Type: transcription.EventCanceled,
				Err: fmt.Errorf("chunk %d: recognition status %q", i+1, res.RecognitionStatus)})
			return
		}
		base += s.chunk
	}

	send(transcription.Event{Type: transcription.EventSessionStopped})
}

func (s *AzureSTTService) post(ctx context.Context, endpoint, contentType string, payload []byte) (azureRecognition, error) {
	var out azureRecognition

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return out, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := vmhttp.CheckResponse(resp); err != nil {
		return out, err
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func ticks(n int64) time.Duration {
	return time.Duration(n) * 100 * time.Nanosecond
}
