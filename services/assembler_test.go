package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"video-maker/internal/faults"
)

func TestAssembler_Assemble_PreservesOrder(t *testing.T) {
	dir := t.TempDir()
	clips := []string{
		filepath.Join(dir, "video", "1.mp4"),
		filepath.Join(dir, "video", "10.mp4"),
		filepath.Join(dir, "video", "2.mp4"),
	}
	for _, c := range clips {
		writeFile(t, c, "clip")
	}
	tc := newFakeToolchain(0)
	a := NewAssembler(tc)

	list := filepath.Join(dir, "video", "videolist.txt")
	out := filepath.Join(dir, "output", "base.mp4")
	if err := a.Assemble(context.Background(), clips, list, out); err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if len(tc.concats) != 1 || tc.concats[0].output != out {
		t.Fatalf("concat calls = %+v", tc.concats)
	}
	lines := strings.Split(strings.TrimSuffix(tc.concats[0].lines, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("list lines = %q", lines)
	}
	for i, c := range clips {
		want := "file '" + filepath.ToSlash(c) + "'"
		if lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}
}

func TestAssembler_Assemble_Errors(t *testing.T) {
	dir := t.TempDir()
	a := NewAssembler(newFakeToolchain(0))
	list := filepath.Join(dir, "list.txt")

	if err := a.Assemble(context.Background(), nil, list, "out.mp4"); !errors.Is(err, faults.ErrEmptyInput) {
		t.Errorf("no clips error = %v, want ErrEmptyInput", err)
	}

	missing := filepath.Join(dir, "3.mp4")
	err := a.Assemble(context.Background(), []string{missing}, list, "out.mp4")
	if !errors.Is(err, faults.ErrMissingFile) || !strings.Contains(err.Error(), missing) {
		t.Errorf("missing clip error = %v", err)
	}

	writeFile(t, missing, "clip")
	tc := newFakeToolchain(0)
	tc.concatErr = faults.Wrapf(faults.ErrConcatenationFailed, "ffmpeg concatenate video", "", "exit status 1")
	err = NewAssembler(tc).Assemble(context.Background(), []string{missing}, list, filepath.Join(dir, "out.mp4"))
	if !errors.Is(err, faults.ErrConcatenationFailed) {
		t.Errorf("concat error = %v, want ErrConcatenationFailed", err)
	}
}

func TestAssembler_MergeSubtitles(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "base.mp4")
	srt := filepath.Join(dir, "srt", "base.srt")
	out := filepath.Join(dir, "final.mp4")
	tc := newFakeToolchain(0)
	a := NewAssembler(tc)

	writeFile(t, video, "video")
	err := a.MergeSubtitles(context.Background(), video, srt, out)
	if !errors.Is(err, faults.ErrSubtitleMergeFailed) {
		t.Fatalf("missing srt error = %v, want ErrSubtitleMergeFailed", err)
	}
	if len(tc.burns) != 0 {
		t.Error("transcoder must not start when an input is missing")
	}

	writeFile(t, srt, "1\n")
	if err := a.MergeSubtitles(context.Background(), video, srt, out); err != nil {
		t.Fatalf("MergeSubtitles() error = %v", err)
	}
	if len(tc.burns) != 1 || tc.burns[0] != (burnCall{video: video, srt: srt, output: out}) {
		t.Errorf("burn calls = %+v", tc.burns)
	}
}

func TestAssembler_MergeAudio(t *testing.T) {
	dir := t.TempDir()
	files := []string{filepath.Join(dir, "a", "2.wav"), filepath.Join(dir, "a", "1.wav")}
	for _, f := range files {
		writeFile(t, f, "RIFF")
	}
	tc := newFakeToolchain(0)
	list := filepath.Join(dir, "output", "audiolist.txt")
	out := filepath.Join(dir, "output", "final.wav")

	if err := NewAssembler(tc).MergeAudio(context.Background(), files, list, out); err != nil {
		t.Fatalf("MergeAudio() error = %v", err)
	}
	if len(tc.audio) != 1 || len(tc.concats) != 0 {
		t.Fatalf("audio concat calls = %d, video = %d", len(tc.audio), len(tc.concats))
	}
	if !strings.HasPrefix(tc.audio[0].lines, "file '"+filepath.ToSlash(files[0])+"'\n") {
		t.Errorf("list = %q", tc.audio[0].lines)
	}
}
