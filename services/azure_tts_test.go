package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"video-maker/internal/faults"
	"video-maker/internal/tts"
)

func TestSSML(t *testing.T) {
	got := SSML(tts.Request{Text: " Tom & Jerry's <show> ", Voice: "zh-CN-YunzeNeural"})
	want := "<speak version='1.0' xml:lang='zh-CN'><voice xml:lang='zh-CN' name='zh-CN-YunzeNeural'>" +
		"Tom &amp; Jerry&apos;s &lt;show&gt;</voice></speak>"
	if got != want {
		t.Errorf("SSML() =\n%s\nwant\n%s", got, want)
	}

	got = SSML(tts.Request{Text: "hi", Voice: "custom", Language: "en-US"})
	if got != "<speak version='1.0' xml:lang='en-US'><voice xml:lang='en-US' name='custom'>hi</voice></speak>" {
		t.Errorf("SSML() with language = %s", got)
	}
}

func TestAzureTTSService_Synthesize(t *testing.T) {
	var gotHeader http.Header
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte("RIFFfakeaudio"))
	}))
	defer srv.Close()

	s := NewAzureTTSService("secret", "eastus", "", time.Second)
	s.SetEndpoint(srv.URL)

	out := filepath.Join(t.TempDir(), "audio", "1.wav")
	req := tts.Request{Text: "你好", Voice: "zh-CN-YunzeNeural", OutputPath: out}
	if err := s.Synthesize(context.Background(), req); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	for k, want := range map[string]string{
		"Ocp-Apim-Subscription-Key": "secret",
		"Content-Type":              "application/ssml+xml",
		"X-Microsoft-OutputFormat":  "riff-24khz-16bit-mono-pcm",
		"User-Agent":                "video-maker",
	} {
		if got := gotHeader.Get(k); got != want {
			t.Errorf("header %s = %q, want %q", k, got, want)
		}
	}
	if gotBody != SSML(req) {
		t.Errorf("body = %q", gotBody)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "RIFFfakeaudio" {
		t.Errorf("output = %q, %v", data, err)
	}
}

func TestAzureTTSService_Errors(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	s := NewAzureTTSService("secret", "eastus", "", time.Second)
	s.SetEndpoint(srv.URL)
	out := filepath.Join(t.TempDir(), "1.wav")
	req := tts.Request{Text: "hello", Voice: "en-US-AriaNeural", OutputPath: out}

	err := s.Synthesize(context.Background(), req)
	if !errors.Is(err, faults.ErrSynthesisFailed) {
		t.Errorf("401 error = %v, want ErrSynthesisFailed", err)
	}

	status = http.StatusOK
	err = s.Synthesize(context.Background(), req)
	if !errors.Is(err, faults.ErrSynthesisFailed) {
		t.Errorf("empty body error = %v, want ErrSynthesisFailed", err)
	}
	if _, err := os.Stat(out); err == nil {
		t.Error("empty response must not leave an output file")
	}

	if err := s.Synthesize(context.Background(), tts.Request{Text: "  ", Voice: "v", OutputPath: out}); !errors.Is(err, faults.ErrEmptyInput) {
		t.Errorf("blank text error = %v, want ErrEmptyInput", err)
	}

	noKey := NewAzureTTSService("", "eastus", "", 0)
	if err := noKey.CheckInstalled(context.Background()); !errors.Is(err, faults.ErrToolUnavailable) {
		t.Errorf("CheckInstalled() error = %v, want ErrToolUnavailable", err)
	}
}
