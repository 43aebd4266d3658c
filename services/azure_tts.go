package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"video-maker/internal/config"
	"video-maker/internal/faults"
	vmhttp "video-maker/internal/http"
	"video-maker/internal/logger"
	"video-maker/internal/text"
	"video-maker/internal/tts"
)

// AzureTTSService synthesizes speech with the Azure Speech REST API.
type AzureTTSService struct {
	key          string
	region       string
	outputFormat string
	endpoint     string
	client       *http.Client
}

// NewAzureTTSService creates a client for region authenticated by key. A
// zero timeout keeps the shared client.
func NewAzureTTSService(key, region, outputFormat string, timeout time.Duration) *AzureTTSService {
	if outputFormat == "" {
		outputFormat = config.DefaultOutputFormat
	}
	client := vmhttp.SpeechClient
	if timeout > 0 {
		client = vmhttp.NewClient(timeout)
	}
	return &AzureTTSService{
		key:          strings.TrimSpace(key),
		region:       strings.TrimSpace(region),
		outputFormat: outputFormat,
		endpoint:     fmt.Sprintf(config.AzureTTSEndpointFormat, strings.TrimSpace(region)),
		client:       client,
	}
}

// SetEndpoint overrides the synthesis URL.
func (s *AzureTTSService) SetEndpoint(url string) {
	if url != "" {
		s.endpoint = url
	}
}

// Name implements tts.Synthesizer.
func (s *AzureTTSService) Name() string { return string(tts.ProviderAzure) }

// CheckInstalled reports missing credentials. It does not call the service.
func (s *AzureTTSService) CheckInstalled(_ context.Context) error {
	if s.key == "" || s.region == "" {
		return faults.Wrapf(faults.ErrToolUnavailable, "azure tts", "", "speech.key and speech.region are required")
	}
	return nil
}

// Synthesize posts req as SSML and writes the returned waveform to
// req.OutputPath.
func (s *AzureTTSService) Synthesize(ctx context.Context, req tts.Request) error {
	if err := tts.Validate(req); err != nil {
		return err
	}
	if err := s.CheckInstalled(ctx); err != nil {
		return err
	}
	output, err := tts.PrepareOutput(req.OutputPath)
	if err != nil {
		return err
	}

	logger.Info("Azure TTS: voice=%s format=%s", req.Voice, s.outputFormat)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(SSML(req)))
	if err != nil {
		return faults.Wrap(faults.ErrSynthesisFailed, "build request", s.endpoint, err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", s.outputFormat)
	httpReq.Header.Set("User-Agent", config.UserAgent)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return faults.Wrap(faults.ErrSynthesisFailed, "azure tts request", output, err)
	}
	defer resp.Body.Close()

	if err := vmhttp.CheckResponse(resp); err != nil {
		return faults.Wrap(faults.ErrSynthesisFailed, "azure tts", output, err)
	}

	if err := writeBody(output, resp.Body); err != nil {
		return faults.Wrap(faults.ErrSynthesisFailed, "write audio", output, err)
	}
	return nil
}

// SSML renders req as a single-voice speak document.
func SSML(req tts.Request) string {
	lang := req.Language
	if lang == "" {
		lang = text.VoiceLocale(req.Voice)
	}
	if lang == "" {
		lang = config.DefaultLanguage
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<speak version='1.0' xml:lang='%s'>", text.EscapeXML(lang))
	fmt.Fprintf(&b, "<voice xml:lang='%s' name='%s'>", text.EscapeXML(lang), text.EscapeXML(req.Voice))
	b.WriteString(text.EscapeXML(strings.TrimSpace(req.Text)))
	b.WriteString("</voice></speak>")
	return b.String()
}

// writeBody streams r to path. An empty body is an error since the service
// answers 200 with no audio when the voice cannot render the text.
func writeBody(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	n, err := io.Copy(w, r)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = fmt.Errorf("empty audio response")
	}
	if err != nil {
		os.Remove(path)
	}
	return err
}
