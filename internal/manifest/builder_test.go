package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"video-maker/internal/faults"
	"video-maker/models"
)

func defaultBuilder() *Builder {
	return NewBuilder(models.DefaultConfig().Naming)
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func segmentFiles(keys ...string) []string {
	var names []string
	for _, k := range keys {
		names = append(names, "video_bg_"+k+".png", "video_text_"+k+".txt", "voice_text_"+k+".txt")
	}
	return names
}

func TestBuild_OrdersAscending(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, segmentFiles("10", "2", "1")...)
	touch(t, dir, "notes.md", "video_bg_1.jpg")
	if err := os.Mkdir(filepath.Join(dir, "video_bg_4.png"), 0755); err != nil {
		t.Fatal(err)
	}

	m, err := defaultBuilder().Build(dir)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := []models.SegmentKey{1, 2, 10}
	got := m.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	r, _ := m.Record(10)
	if r.Background != filepath.Join(dir, "video_bg_10.png") {
		t.Errorf("Background = %q", r.Background)
	}
	if r.Voice != filepath.Join(dir, "voice_text_10.txt") {
		t.Errorf("Voice = %q", r.Voice)
	}
	if m.Role(1) != models.RoleFirst || m.Role(2) != models.RoleMiddle || m.Role(10) != models.RoleLast {
		t.Error("unexpected role classification")
	}
}

func TestBuild_InvalidKeyFormat(t *testing.T) {
	for _, name := range []string{"video_bg_1a.png", "video_text_.txt", "voice_text_-1.txt", "video_bg_ 1.png"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			touch(t, dir, segmentFiles("1")...)
			touch(t, dir, name)

			m, err := defaultBuilder().Build(dir)
			if m != nil {
				t.Error("no manifest should be returned")
			}
			if !errors.Is(err, faults.ErrInvalidKeyFormat) {
				t.Fatalf("error = %v, want ErrInvalidKeyFormat", err)
			}
			if !errors.Is(err, faults.ErrInputValidation) {
				t.Error("key format errors are input validation errors")
			}
			if !strings.Contains(err.Error(), name) {
				t.Errorf("error should name the file: %v", err)
			}
		})
	}
}

func TestBuild_DuplicateKey(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, segmentFiles("1")...)
	touch(t, dir, "video_bg_01.png")

	_, err := defaultBuilder().Build(dir)
	if !errors.Is(err, faults.ErrInvalidKeyFormat) {
		t.Fatalf("error = %v, want ErrInvalidKeyFormat", err)
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error = %v", err)
	}
}

func TestBuild_RoleCountMismatch(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, segmentFiles("1", "2")...)
	touch(t, dir, "video_bg_3.png")

	m, err := defaultBuilder().Build(dir)
	if m != nil {
		t.Error("no manifest should be returned")
	}
	if !errors.Is(err, faults.ErrRoleCountMismatch) {
		t.Fatalf("error = %v, want ErrRoleCountMismatch", err)
	}
	if !errors.Is(err, faults.ErrReconciliation) {
		t.Error("count mismatch is a reconciliation error")
	}
}

func TestBuild_RoleKeySetMismatch(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "video_bg_1.png", "video_bg_2.png")
	touch(t, dir, "video_text_1.txt", "video_text_3.txt")
	touch(t, dir, "voice_text_1.txt", "voice_text_2.txt")

	_, err := defaultBuilder().Build(dir)
	if !errors.Is(err, faults.ErrRoleKeySetMismatch) {
		t.Fatalf("error = %v, want ErrRoleKeySetMismatch", err)
	}
	msg := err.Error()
	for _, want := range []string{"background missing 3", "text missing 2", "voice missing 3"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should contain %q", msg, want)
		}
	}
}

func TestBuild_EmptyAndMissingDir(t *testing.T) {
	_, err := defaultBuilder().Build(t.TempDir())
	if !errors.Is(err, faults.ErrEmptyInput) {
		t.Errorf("empty dir error = %v, want ErrEmptyInput", err)
	}

	_, err = defaultBuilder().Build(filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, faults.ErrMissingFile) {
		t.Errorf("missing dir error = %v, want ErrMissingFile", err)
	}
}

func TestBuild_CustomPrefixes(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "bg7.png", "cap7.txt", "say7.txt")
	b := NewBuilder(models.Naming{BackgroundPrefix: "bg", TextPrefix: "cap", VoicePrefix: "say"})

	m, err := b.Build(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 || m.Role(7) != models.RoleFirst {
		t.Errorf("manifest = %v", m.Keys())
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.SegmentKey
		wantErr bool
	}{
		{"0", 0, false},
		{"007", 7, false},
		{"123", 123, false},
		{"", 0, true},
		{"1.5", 0, true},
		{"+1", 0, true},
		{"١", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKey(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKey(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestPatternMatch(t *testing.T) {
	p := Pattern{Prefix: "ab", Suffix: "ba"}
	if _, ok := p.Match("aba"); ok {
		t.Error("overlapping prefix and suffix should not match")
	}
	if raw, ok := p.Match("ab12ba"); !ok || raw != "12" {
		t.Errorf("Match() = %q, %v", raw, ok)
	}
}
