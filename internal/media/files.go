package media

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Audio files and cover images share one content directory and are told
// apart by extension. Filenames are validated against a restrictive
// character class before any filesystem access.
const maxFilenameLen = 200

var (
	audioNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+\.mp3$`)
	coverNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+\.png$`)
	taskIDSanitizer  = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// IsSafeAudioFilename reports whether filename is a plain .mp3 name safe
// to read or write inside the content directory.
func IsSafeAudioFilename(filename string) bool {
	return isSafeName(filename, ".mp3", audioNamePattern)
}

// IsSafeCoverFilename reports whether filename is a plain .png cover name
// (taskId-cover-N.png) safe to read or write inside the content directory.
func IsSafeCoverFilename(filename string) bool {
	return isSafeName(filename, ".png", coverNamePattern)
}

func isSafeName(filename, ext string, pattern *regexp.Regexp) bool {
	if filename == "" || len(filename) > maxFilenameLen {
		return false
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return false
	}
	if !strings.HasSuffix(filename, ext) {
		return false
	}
	return pattern.MatchString(filename)
}

// CoverFilename derives a deterministic cover image filename from a
// generation task id and a 1-based index.
func CoverFilename(taskID string, index int) string {
	safe := taskIDSanitizer.ReplaceAllString(taskID, "")
	if len(safe) > 64 {
		safe = safe[:64]
	}
	if safe == "" {
		safe = "cover"
	}
	return fmt.Sprintf("%s-cover-%d.png", safe, index)
}

// Dir is the content directory holding generated audio and cover images.
type Dir struct {
	path string
}

// NewDir wraps the configured content directory path. The directory is
// created lazily on first write.
func NewDir(path string) Dir {
	return Dir{path: path}
}

// Ensure creates the directory if absent. Safe to call concurrently.
func (d Dir) Ensure() error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("failed to create content dir: %w", err)
	}
	return nil
}

// WriteCover persists cover image bytes under a validated filename.
// Unsafe names are rejected before any filesystem access.
func (d Dir) WriteCover(filename string, data []byte) error {
	if !IsSafeCoverFilename(filename) {
		return fmt.Errorf("unsafe cover filename %q", filename)
	}
	return os.WriteFile(filepath.Join(d.path, filename), data, 0o644)
}

// Path resolves a validated filename (audio or cover) to its full path,
// returning false when the name fails validation or the file is absent.
func (d Dir) Path(filename string) (string, bool) {
	if !IsSafeAudioFilename(filename) && !IsSafeCoverFilename(filename) {
		return "", false
	}
	full := filepath.Join(d.path, filename)
	if _, err := os.Stat(full); err != nil {
		return "", false
	}
	return full, true
}
