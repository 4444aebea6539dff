package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsSafeCoverFilename(t *testing.T) {
	valid := []string{
		"abc123-cover-1.png",
		"a_b.c-cover-2.png",
		"5f2c-cover-10.png",
	}
	for _, name := range valid {
		if !IsSafeCoverFilename(name) {
			t.Errorf("expected %q to be safe", name)
		}
	}

	invalid := []string{
		"",
		"../etc/passwd.png",
		"a/b.png",
		`a\b.png`,
		"abc..png.png",
		"abc.mp3",
		"abc png.png",
		"abc;rm.png",
		strings.Repeat("a", 201) + ".png",
	}
	for _, name := range invalid {
		if IsSafeCoverFilename(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestIsSafeAudioFilename(t *testing.T) {
	if !IsSafeAudioFilename("task1-track-1.mp3") {
		t.Error("expected plain mp3 name to be safe")
	}
	for _, name := range []string{"../x.mp3", "a/b.mp3", "x.png", "x.mp3.exe", "a b.mp3"} {
		if IsSafeAudioFilename(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestCoverFilename(t *testing.T) {
	if got := CoverFilename("task123", 1); got != "task123-cover-1.png" {
		t.Errorf("unexpected filename %q", got)
	}

	// unsafe characters are stripped before derivation
	if got := CoverFilename("ta/sk..12%3", 2); got != "task123-cover-2.png" {
		t.Errorf("unexpected filename %q", got)
	}

	// long task ids are truncated to 64 chars
	long := strings.Repeat("a", 100)
	got := CoverFilename(long, 1)
	want := strings.Repeat("a", 64) + "-cover-1.png"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	// fully-stripped ids fall back to a fixed stem
	if got := CoverFilename("///", 3); got != "cover-cover-3.png" {
		t.Errorf("unexpected filename %q", got)
	}

	// derived names always pass validation
	for _, taskID := range []string{"task123", "ta/sk..12%3", long, "///"} {
		if !IsSafeCoverFilename(CoverFilename(taskID, 1)) {
			t.Errorf("derived filename for %q failed validation", taskID)
		}
	}
}

func TestCoverFilename_Deterministic(t *testing.T) {
	a := CoverFilename("task-x", 2)
	b := CoverFilename("task-x", 2)
	if a != b {
		t.Errorf("expected deterministic names, got %q and %q", a, b)
	}
}

func TestDirWriteCover(t *testing.T) {
	dir := NewDir(filepath.Join(t.TempDir(), "audio"))
	if err := dir.Ensure(); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}

	if err := dir.WriteCover("task1-cover-1.png", []byte("png")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	path, ok := dir.Path("task1-cover-1.png")
	if !ok {
		t.Fatal("expected saved file to resolve")
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "png" {
		t.Errorf("unexpected file content %q, err %v", data, err)
	}
}

func TestDirWriteCover_RejectsUnsafeName(t *testing.T) {
	base := t.TempDir()
	dir := NewDir(filepath.Join(base, "audio"))
	if err := dir.Ensure(); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}

	if err := dir.WriteCover("../escape.png", []byte("x")); err == nil {
		t.Fatal("expected unsafe filename to be rejected")
	}
	if _, err := os.Stat(filepath.Join(base, "escape.png")); !os.IsNotExist(err) {
		t.Error("unsafe filename must not reach the filesystem")
	}
}

func TestDirPath_RejectsUnsafeName(t *testing.T) {
	dir := NewDir(t.TempDir())
	for _, name := range []string{"../x.png", "a/b.mp3", "x.txt"} {
		if _, ok := dir.Path(name); ok {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestDirEnsure_Idempotent(t *testing.T) {
	dir := NewDir(filepath.Join(t.TempDir(), "audio"))
	if err := dir.Ensure(); err != nil {
		t.Fatalf("first ensure failed: %v", err)
	}
	if err := dir.Ensure(); err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
}
