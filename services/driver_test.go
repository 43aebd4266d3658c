package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"video-maker/internal/faults"
	"video-maker/internal/ledger"
	"video-maker/internal/logger"
	"video-maker/internal/workspace"
	"video-maker/models"
)

func openTestLedger(t *testing.T, cfg *models.Config) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(cfg.Paths.LedgerPath, logger.Default())
	if err != nil {
		t.Fatalf("ledger.Open() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestDriver_EndToEnd(t *testing.T) {
	cfg, layout := testConfig(t)
	writeSegments(t, cfg.Paths.InputDir, "3", "1", "2")

	synth := &fakeSynth{}
	comp := &fakeCompositor{}
	tc := newFakeToolchain(3 * time.Second)
	d, err := NewDriver(cfg, layout, Deps{Synthesizer: synth, Compositor: comp, Toolchain: tc})
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}

	var stages []string
	last := -1
	d.SetProgressCallback(func(stage string, percent int, _ string) {
		if percent < last {
			t.Errorf("progress went backwards: %d after %d", percent, last)
		}
		last = percent
		if len(stages) == 0 || stages[len(stages)-1] != stage {
			stages = append(stages, stage)
		}
	})

	run, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := synth.texts()
	want := []string{"narration 1", "narration 2", "narration 3"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("synthesis order = %v, want %v", got, want)
	}
	if comp.reqs[0].Style != cfg.Style.First || comp.reqs[1].Style != cfg.Style.Middle || comp.reqs[2].Style != cfg.Style.Last {
		t.Error("roles not applied in key order")
	}

	if len(tc.concats) != 1 {
		t.Fatalf("concat calls = %d, want 1", len(tc.concats))
	}
	lines := strings.Split(strings.TrimSuffix(tc.concats[0].lines, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("list = %q", tc.concats[0].lines)
	}
	for i, key := range []models.SegmentKey{1, 2, 3} {
		if !strings.Contains(lines[i], filepath.ToSlash(layout.Clip(key))) {
			t.Errorf("list line %d = %q, want clip %d", i, lines[i], key)
		}
	}

	if run.Status != models.StatusCompleted || run.BaseVideo != layout.BaseVideo() || run.Output() != layout.BaseVideo() {
		t.Errorf("run = %+v", run)
	}
	if _, err := os.Stat(layout.BaseVideo()); err != nil {
		t.Errorf("base video missing: %v", err)
	}
	if stages[0] != "Scanning" || stages[len(stages)-1] != "Complete" {
		t.Errorf("stages = %v", stages)
	}
	if len(tc.burns) != 0 || len(tc.extracts) != 0 {
		t.Error("subtitle steps are off by default")
	}
}

func TestDriver_StopsOnFirstError(t *testing.T) {
	cfg, layout := testConfig(t)
	writeSegments(t, cfg.Paths.InputDir, "1", "2", "3")
	l := openTestLedger(t, cfg)

	synth := &fakeSynth{errOn: "narration 2", err: faults.Wrapf(faults.ErrSynthesisFailed, "fake", "", "canceled")}
	tc := newFakeToolchain(2 * time.Second)
	d, err := NewDriver(cfg, layout, Deps{Synthesizer: synth, Compositor: &fakeCompositor{}, Toolchain: tc, Ledger: l})
	if err != nil {
		t.Fatal(err)
	}

	run, err := d.Run(context.Background())
	if !errors.Is(err, faults.ErrSynthesisFailed) {
		t.Fatalf("Run() error = %v, want ErrSynthesisFailed", err)
	}
	if len(synth.reqs) != 2 {
		t.Errorf("synthesize calls = %d, want 2 (segment 3 must not start)", len(synth.reqs))
	}
	if len(tc.concats) != 0 {
		t.Error("assembly must not run after a segment failure")
	}
	if _, err := os.Stat(layout.Clip(1)); err != nil {
		t.Errorf("completed segment clip should remain: %v", err)
	}
	if run.Status != models.StatusFailed {
		t.Errorf("status = %s", run.Status)
	}

	runs, err := l.Runs(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != models.StatusFailed || !strings.Contains(runs[0].Error, "synthesis failed") {
		t.Errorf("ledger runs = %+v", runs)
	}
}

func TestDriver_ReconciliationFailsBeforeWork(t *testing.T) {
	cfg, layout := testConfig(t)
	writeSegments(t, cfg.Paths.InputDir, "1", "2")
	if err := os.Remove(filepath.Join(cfg.Paths.InputDir, "voice_text_2.txt")); err != nil {
		t.Fatal(err)
	}
	synth := &fakeSynth{}
	d, err := NewDriver(cfg, layout, Deps{Synthesizer: synth, Compositor: &fakeCompositor{}, Toolchain: newFakeToolchain(time.Second)})
	if err != nil {
		t.Fatal(err)
	}

	_, err = d.Run(context.Background())
	if !errors.Is(err, faults.ErrRoleCountMismatch) || !errors.Is(err, faults.ErrReconciliation) {
		t.Fatalf("error = %v, want ErrRoleCountMismatch", err)
	}
	if len(synth.reqs) != 0 {
		t.Error("no segment work may start on a reconciliation error")
	}
}

func TestDriver_ResumeSkipsUnchangedSegments(t *testing.T) {
	cfg, layout := testConfig(t)
	cfg.Resume.Enabled = true
	writeSegments(t, cfg.Paths.InputDir, "1", "2")
	l := openTestLedger(t, cfg)

	newDriver := func(synth *fakeSynth) *Driver {
		d, err := NewDriver(cfg, layout, Deps{Synthesizer: synth, Compositor: &fakeCompositor{}, Toolchain: newFakeToolchain(2 * time.Second), Ledger: l})
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	first := &fakeSynth{}
	if _, err := newDriver(first).Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if len(first.reqs) != 2 {
		t.Fatalf("first run synthesized %d segments", len(first.reqs))
	}

	second := &fakeSynth{}
	run, err := newDriver(second).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if len(second.reqs) != 0 || run.Reused() != 2 {
		t.Errorf("second run synthesized %d, reused %d", len(second.reqs), run.Reused())
	}

	writeFile(t, filepath.Join(cfg.Paths.InputDir, "voice_text_2.txt"), "new narration")
	third := &fakeSynth{}
	run, err = newDriver(third).Run(context.Background())
	if err != nil {
		t.Fatalf("third Run() error = %v", err)
	}
	if got := third.texts(); len(got) != 1 || got[0] != "new narration" {
		t.Errorf("third run synthesized %v", got)
	}
	if run.Reused() != 1 {
		t.Errorf("Reused() = %d, want 1", run.Reused())
	}

	segs, err := l.Segments(context.Background(), run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 || !segs[0].Skipped || segs[1].Skipped {
		t.Errorf("ledger segments = %+v", segs)
	}
}

func TestDriver_ResumeSharedWorkDir(t *testing.T) {
	cfg, layout := testConfig(t)
	cfg.Resume.Enabled = true
	writeSegments(t, cfg.Paths.InputDir, "1")
	l := openTestLedger(t, cfg)

	other := *cfg
	other.Paths.InputDir = filepath.Join(t.TempDir(), "other")
	writeSegments(t, other.Paths.InputDir, "1")
	writeFile(t, filepath.Join(other.Paths.InputDir, "voice_text_1.txt"), "another project")

	run := func(c *models.Config) (*fakeSynth, *models.Run) {
		t.Helper()
		synth := &fakeSynth{}
		d, err := NewDriver(c, layout, Deps{Synthesizer: synth, Compositor: &fakeCompositor{}, Toolchain: newFakeToolchain(2 * time.Second), Ledger: l})
		if err != nil {
			t.Fatal(err)
		}
		r, err := d.Run(context.Background())
		if err != nil {
			t.Fatalf("Run(%s) error = %v", c.Paths.InputDir, err)
		}
		return synth, r
	}

	run(cfg)
	if synth, _ := run(&other); len(synth.reqs) != 1 {
		t.Fatalf("other project synthesized %d segments, want 1", len(synth.reqs))
	}

	// The clip on disk now belongs to the other project.
	synth, r := run(cfg)
	if len(synth.reqs) != 1 || r.Reused() != 0 {
		t.Errorf("synthesized %d, reused %d; want 1, 0", len(synth.reqs), r.Reused())
	}
}

func TestDriver_ResumeAfterFailedRebuild(t *testing.T) {
	cfg, layout := testConfig(t)
	cfg.Resume.Enabled = true
	writeSegments(t, cfg.Paths.InputDir, "1")
	l := openTestLedger(t, cfg)

	newDriver := func(synth *fakeSynth, tc *fakeToolchain) *Driver {
		d, err := NewDriver(cfg, layout, Deps{Synthesizer: synth, Compositor: &fakeCompositor{}, Toolchain: tc, Ledger: l})
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	if _, err := newDriver(&fakeSynth{}, newFakeToolchain(2*time.Second)).Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	voice := filepath.Join(cfg.Paths.InputDir, "voice_text_1.txt")
	writeFile(t, voice, "edited narration")
	broken := newFakeToolchain(2 * time.Second)
	broken.encodeErr = faults.Wrapf(faults.ErrEncodingFailed, "ffmpeg encode clip", "", "exit status 1")
	broken.partialOnErr = true
	if _, err := newDriver(&fakeSynth{}, broken).Run(context.Background()); !errors.Is(err, faults.ErrEncodingFailed) {
		t.Fatalf("second Run() error = %v, want ErrEncodingFailed", err)
	}

	writeFile(t, voice, "narration 1")
	synth := &fakeSynth{}
	r, err := newDriver(synth, newFakeToolchain(2*time.Second)).Run(context.Background())
	if err != nil {
		t.Fatalf("third Run() error = %v", err)
	}
	if len(synth.reqs) != 1 || r.Reused() != 0 {
		t.Errorf("synthesized %d, reused %d; want 1, 0", len(synth.reqs), r.Reused())
	}
	data, err := os.ReadFile(layout.Clip(1))
	if err != nil || string(data) != "1.mp4" {
		t.Errorf("clip = %q, %v", data, err)
	}
}

func TestDriver_SubtitlesAndFinalVideo(t *testing.T) {
	cfg, layout := testConfig(t)
	cfg.Steps.Subtitles = true
	cfg.Steps.FinalVideo = true
	writeSegments(t, cfg.Paths.InputDir, "1")

	tc := newFakeToolchain(2 * time.Second)
	tc.durations[layout.RecognitionAudio()] = 5 * time.Second
	rec := &fakeRecognizer{events: recognized("你好。")}
	d, err := NewDriver(cfg, layout, Deps{Synthesizer: &fakeSynth{}, Compositor: &fakeCompositor{}, Toolchain: tc, Recognizer: rec})
	if err != nil {
		t.Fatal(err)
	}

	run, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(tc.extracts) != 1 || tc.extracts[0] != layout.BaseVideo() {
		t.Errorf("extracts = %v", tc.extracts)
	}
	srt := layout.Subtitles(layout.BaseName)
	data, err := os.ReadFile(srt)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "1\n00:00:00,000 --> 00:00:05,000\n你好\n\n" {
		t.Errorf("srt = %q", data)
	}
	if len(tc.burns) != 1 || tc.burns[0] != (burnCall{video: layout.BaseVideo(), srt: srt, output: layout.FinalVideo()}) {
		t.Errorf("burns = %+v", tc.burns)
	}
	if run.Final != layout.FinalVideo() || run.Output() != layout.FinalVideo() || run.Subtitles != srt {
		t.Errorf("run = %+v", run)
	}
}

func TestDriver_Locked(t *testing.T) {
	cfg, layout := testConfig(t)
	writeSegments(t, cfg.Paths.InputDir, "1")
	if err := layout.Ensure(); err != nil {
		t.Fatal(err)
	}
	held, err := workspace.Acquire(layout.LockPath())
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	synth := &fakeSynth{}
	d, err := NewDriver(cfg, layout, Deps{Synthesizer: synth, Compositor: &fakeCompositor{}, Toolchain: newFakeToolchain(time.Second)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Run(context.Background()); !errors.Is(err, workspace.ErrLocked) {
		t.Fatalf("error = %v, want ErrLocked", err)
	}
	if len(synth.reqs) != 0 {
		t.Error("no work may start without the lock")
	}
}

func TestNewDriver_MissingCollaborators(t *testing.T) {
	cfg, layout := testConfig(t)
	if _, err := NewDriver(cfg, layout, Deps{Synthesizer: &fakeSynth{}, Compositor: &fakeCompositor{}}); !errors.Is(err, faults.ErrInvalidConfig) {
		t.Errorf("no toolchain error = %v", err)
	}
	cfg.Steps.Subtitles = true
	_, err := NewDriver(cfg, layout, Deps{Synthesizer: &fakeSynth{}, Compositor: &fakeCompositor{}, Toolchain: newFakeToolchain(0)})
	if !errors.Is(err, faults.ErrInvalidConfig) {
		t.Errorf("no recognizer error = %v", err)
	}
}
