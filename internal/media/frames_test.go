package media

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTestWAV writes a silent 16-bit mono PCM file of length d.
func writeTestWAV(t *testing.T, path string, sampleRate int, d time.Duration) {
	t.Helper()
	info := WAVInfo{
		AudioFormat:   1,
		Channels:      1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * 2),
		BlockAlign:    2,
		BitsPerSample: 16,
	}
	size := int(int64(info.ByteRate) * int64(d) / int64(time.Second))
	size -= size % 2
	data := append(WAVHeader(info, size), make([]byte, size)...)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		d    time.Duration
		rate int
		want int
	}{
		{12700 * time.Millisecond, 2, 24},
		{12700 * time.Millisecond, 1, 12},
		{999 * time.Millisecond, 1, 0},
		{5 * time.Second, 1, 5},
		{0, 1, 0},
		{5 * time.Second, 0, 0},
	}
	for _, tt := range tests {
		if got := FrameCount(tt.d, tt.rate); got != tt.want {
			t.Errorf("FrameCount(%v, %d) = %d, want %d", tt.d, tt.rate, got, tt.want)
		}
	}
}

func TestFrameWidth(t *testing.T) {
	tests := []struct {
		count, min, want int
	}{
		{12, 3, 3},
		{1000, 3, 3},
		{1001, 3, 4},
		{0, 3, 3},
		{5, 0, 1},
	}
	for _, tt := range tests {
		if got := FrameWidth(tt.count, tt.min); got != tt.want {
			t.Errorf("FrameWidth(%d, %d) = %d, want %d", tt.count, tt.min, got, tt.want)
		}
	}
}

func TestFrameNameAndPattern(t *testing.T) {
	if got := FrameName(7, 3); got != "007.png" {
		t.Errorf("FrameName(7, 3) = %q", got)
	}
	if got := FramePattern("img/1", 3); got != filepath.Join("img/1", "%03d.png") {
		t.Errorf("FramePattern() = %q", got)
	}
}

func TestReplicateFrames(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "1.png")
	content := []byte("png-bytes")
	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatal(err)
	}
	frameDir := filepath.Join(dir, "1")
	if err := os.MkdirAll(frameDir, 0755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(frameDir, "099.png")
	if err := os.WriteFile(stale, content, 0644); err != nil {
		t.Fatal(err)
	}

	paths, err := ReplicateFrames(context.Background(), src, frameDir, 5, 3, 2)
	if err != nil {
		t.Fatalf("ReplicateFrames() error = %v", err)
	}
	if len(paths) != 5 {
		t.Fatalf("len(paths) = %d, want 5", len(paths))
	}
	for i, p := range paths {
		if filepath.Base(p) != FrameName(i, 3) {
			t.Errorf("paths[%d] = %q", i, p)
		}
		got, err := os.ReadFile(p)
		if err != nil || !bytes.Equal(got, content) {
			t.Errorf("frame %d content mismatch (err %v)", i, err)
		}
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale frame should have been removed")
	}
}

func TestListFile(t *testing.T) {
	got := FormatList([]string{`C:\work\video\1.mp4`, "/w/video/2.mp4", "/w/it's.mp4"})
	want := "file 'C:/work/video/1.mp4'\nfile '/w/video/2.mp4'\nfile '/w/it'\\''s.mp4'\n"
	if got != want {
		t.Errorf("FormatList() = %q, want %q", got, want)
	}
}

func TestWriteList_PreservesOrderAndResolves(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "video", "videolist.txt")
	items := []string{
		filepath.Join(dir, "video", "3.mp4"),
		filepath.Join(dir, "video", "1.mp4"),
		filepath.Join(dir, "video", "2.mp4"),
	}
	if err := WriteList(list, items); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(list)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
	for i, item := range items {
		want := "file '" + filepath.ToSlash(item) + "'"
		if lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}

	if err := WriteList(list, nil); err == nil {
		t.Error("WriteList(nil) should fail")
	}
}

func TestSplitWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	writeTestWAV(t, path, 16000, 65*time.Second)

	parts, info, err := SplitWAV(path, 30*time.Second)
	if err != nil {
		t.Fatalf("SplitWAV() error = %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("len(parts) = %d, want 3", len(parts))
	}
	if info.SampleRate != 16000 || info.Duration() != 65*time.Second {
		t.Errorf("info = %+v", info)
	}

	var total time.Duration
	for i, p := range parts {
		pi, err := ReadWAVInfo(bytes.NewReader(p))
		if err != nil {
			t.Fatalf("part %d not a valid wav: %v", i, err)
		}
		total += pi.Duration()
	}
	if total != 65*time.Second {
		t.Errorf("total = %v, want 65s", total)
	}
}

func TestReadWAVInfo_Rejects(t *testing.T) {
	if _, err := ReadWAVInfo(bytes.NewReader([]byte("ID3....."))); err == nil {
		t.Error("expected error for non-wav data")
	}
}

func TestPlayer_Command(t *testing.T) {
	p := &Player{lookup: func(name string) (string, bool) {
		return "/usr/bin/" + name, name == "ffplay"
	}}
	cmd, err := p.Command("out.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Program != "/usr/bin/ffplay" || strings.Join(cmd.Args, " ") != "-autoexit out.mp4" {
		t.Errorf("cmd = %s", cmd)
	}

	p.lookup = func(name string) (string, bool) { return name, false }
	if _, err := p.Command("out.mp4"); err == nil {
		t.Error("expected error when no player is installed")
	}
}
