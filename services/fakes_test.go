package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"video-maker/internal/imaging"
	"video-maker/internal/media"
	"video-maker/internal/transcription"
	"video-maker/internal/tts"
	"video-maker/internal/workspace"
	"video-maker/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func touchOutput(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(filepath.Base(path)), 0644)
}

// writeSegments creates the three input files for each key in dir.
func writeSegments(t *testing.T, dir string, keys ...string) {
	t.Helper()
	for _, k := range keys {
		writeFile(t, filepath.Join(dir, "video_bg_"+k+".png"), "bg"+k)
		writeFile(t, filepath.Join(dir, "video_text_"+k+".txt"), "Title "+k+"\n\nbody")
		writeFile(t, filepath.Join(dir, "voice_text_"+k+".txt"), "narration "+k)
	}
}

// testConfig returns a configuration rooted in a temp directory.
func testConfig(t *testing.T) (*models.Config, workspace.Layout) {
	t.Helper()
	root := t.TempDir()
	cfg := models.DefaultConfig()
	cfg.Paths.InputDir = filepath.Join(root, "input")
	cfg.Paths.WorkDir = filepath.Join(root, "work")
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.LedgerPath = filepath.Join(root, "work", "ledger.db")
	cfg.Speech.MinDelaySeconds = 0
	cfg.Speech.MaxDelaySeconds = 0
	if err := os.MkdirAll(cfg.Paths.InputDir, 0755); err != nil {
		t.Fatal(err)
	}
	return &cfg, workspace.NewLayout(&cfg, time.Now())
}

type fakeSynth struct {
	mu    sync.Mutex
	reqs  []tts.Request
	errOn string // narration text that fails
	err   error
}

func (f *fakeSynth) Name() string                         { return "fake" }
func (f *fakeSynth) CheckInstalled(context.Context) error { return nil }

func (f *fakeSynth) Synthesize(_ context.Context, req tts.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil && (f.errOn == "" || f.errOn == req.Text) {
		return f.err
	}
	return touchOutput(req.OutputPath)
}

func (f *fakeSynth) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.reqs))
	for i, r := range f.reqs {
		out[i] = r.Text
	}
	return out
}

type fakeCompositor struct {
	reqs []imaging.Request
	err  error
}

func (f *fakeCompositor) Compose(_ context.Context, req imaging.Request) error {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return f.err
	}
	return touchOutput(req.Output)
}

type encodeCall struct {
	pattern, audio, output string
	opts                   media.EncodeOptions
}

type concatCall struct {
	list, output string
	lines        string
}

type burnCall struct {
	video, srt, output string
}

// fakeToolchain records every call and writes placeholder outputs.
type fakeToolchain struct {
	durations map[string]time.Duration // by path; missing → fallback
	fallback  time.Duration

	encodes  []encodeCall
	mp3s     []string
	concats  []concatCall
	audio    []concatCall
	burns    []burnCall
	extracts []string

	encodeErr    error
	partialOnErr bool // write a truncated clip before failing
	concatErr    error
}

func newFakeToolchain(fallback time.Duration) *fakeToolchain {
	return &fakeToolchain{durations: make(map[string]time.Duration), fallback: fallback}
}

func (f *fakeToolchain) CheckInstalled(context.Context) error { return nil }

func (f *fakeToolchain) Duration(_ context.Context, path string) (time.Duration, error) {
	if d, ok := f.durations[path]; ok {
		return d, nil
	}
	return f.fallback, nil
}

func (f *fakeToolchain) ImagesToVideo(_ context.Context, pattern, audio, output string, opts media.EncodeOptions) error {
	f.encodes = append(f.encodes, encodeCall{pattern: pattern, audio: audio, output: output, opts: opts})
	if f.encodeErr != nil {
		if f.partialOnErr {
			if err := os.WriteFile(output, []byte("partial"), 0644); err != nil {
				return err
			}
		}
		return f.encodeErr
	}
	return touchOutput(output)
}

func (f *fakeToolchain) ConvertToMP3(_ context.Context, _, output string) error {
	f.mp3s = append(f.mp3s, output)
	return touchOutput(output)
}

func (f *fakeToolchain) ConcatVideos(_ context.Context, list, output string) error {
	return f.concat(&f.concats, list, output)
}

func (f *fakeToolchain) ConcatAudio(_ context.Context, list, output string) error {
	return f.concat(&f.audio, list, output)
}

func (f *fakeToolchain) concat(calls *[]concatCall, list, output string) error {
	data, err := os.ReadFile(list)
	if err != nil {
		return err
	}
	*calls = append(*calls, concatCall{list: list, output: output, lines: string(data)})
	if f.concatErr != nil {
		return f.concatErr
	}
	return touchOutput(output)
}

func (f *fakeToolchain) BurnSubtitles(_ context.Context, video, srt, output string) error {
	f.burns = append(f.burns, burnCall{video: video, srt: srt, output: output})
	return touchOutput(output)
}

func (f *fakeToolchain) ExtractAudio(_ context.Context, source, output string) error {
	f.extracts = append(f.extracts, source)
	return touchOutput(output)
}

// fakeRecognizer replays events on a buffered channel.
type fakeRecognizer struct {
	events   []transcription.Event
	keepOpen bool // never close, to exercise the deadline
	err      error
	language string
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Recognize(_ context.Context, _, language string) (<-chan transcription.Event, error) {
	f.language = language
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan transcription.Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	if !f.keepOpen {
		close(ch)
	}
	return ch, nil
}

func recognized(texts ...string) []transcription.Event {
	evs := []transcription.Event{{Type: transcription.EventSessionStarted}}
	for _, s := range texts {
		evs = append(evs,
			transcription.Event{Type: transcription.EventRecognizing, Text: "partial"},
			transcription.Event{Type: transcription.EventRecognized, Text: s})
	}
	return append(evs, transcription.Event{Type: transcription.EventSessionStopped})
}
