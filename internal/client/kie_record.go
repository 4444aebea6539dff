package client

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/songforge/api/internal/model"
)

// Failure status tokens documented for the provider. Anything outside this
// set that is not a success token counts as still pending.
var failedStatuses = map[string]bool{
	"ERROR":                 true,
	"CREATE_TASK_FAILED":    true,
	"GENERATE_AUDIO_FAILED": true,
	"CALLBACK_EXCEPTION":    true,
	"SENSITIVE_WORD_ERROR":  true,
}

// KieTrack is one track entry extracted from a record-info payload.
type KieTrack struct {
	ID             string
	AudioURL       string
	StreamAudioURL string
	ImageURL       string
	Title          string
	Tags           string
	Duration       float64
	Status         string // raw per-track status token
	Index          int    // 1-based, assigned by array order
}

// RecordInfo holds a record-info response body. The provider has used
// several key names for the same fields over time, so the body is kept as
// a generic map and probed through ordered candidate paths.
type RecordInfo struct {
	body map[string]interface{}
}

// ParseRecordInfo parses a raw record-info response body.
func ParseRecordInfo(raw []byte) (*RecordInfo, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record info: %w", err)
	}
	return &RecordInfo{body: body}, nil
}

// StatusToken returns the raw overall status string, probing the field
// locations the provider has historically used. Missing status yields "".
func (r *RecordInfo) StatusToken() string {
	for _, path := range [][]string{
		{"data", "status"},
		{"data", "response", "status"},
		{"status"},
	} {
		if s, ok := lookupString(r.body, path); ok {
			return s
		}
	}
	return ""
}

// ErrorMessage returns the provider-reported error text, if any.
func (r *RecordInfo) ErrorMessage() string {
	for _, path := range [][]string{
		{"data", "errorMessage"},
		{"data", "error_message"},
		{"data", "msg"},
		{"msg"},
	} {
		if s, ok := lookupString(r.body, path); ok {
			return s
		}
	}
	return ""
}

// trackPaths are the candidate locations of the track array, tried in
// priority order. Adding a new provider shape means adding one entry here.
var trackPaths = [][]string{
	{"data", "response", "sunoData"},
	{"data", "response", "suno_data"},
	{"data", "response", "data"},
	{"data", "tracks"},
	{"sunoData"},
	{"suno_data"},
	{"tracks"},
}

// Tracks extracts the per-track array, returning the first non-empty
// candidate. Elements are normalized: missing titles default to
// "Track {n}" and positions follow array order, 1-based.
func (r *RecordInfo) Tracks() []KieTrack {
	var rawTracks []interface{}
	for _, path := range trackPaths {
		arr, ok := lookupArray(r.body, path)
		if ok && len(arr) > 0 {
			rawTracks = arr
			break
		}
	}

	var tracks []KieTrack
	for _, entry := range rawTracks {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		n := len(tracks) + 1
		t := KieTrack{
			ID:             stringField(m, "id"),
			AudioURL:       stringField(m, "audioUrl", "audio_url"),
			StreamAudioURL: stringField(m, "streamAudioUrl", "stream_audio_url"),
			ImageURL:       stringField(m, "imageUrl", "image_url"),
			Title:          stringField(m, "title"),
			Tags:           stringField(m, "tags"),
			Status:         stringField(m, "status", "Status"),
			Index:          n,
		}
		if d, ok := m["duration"].(float64); ok {
			t.Duration = d
		}
		if t.Title == "" {
			t.Title = fmt.Sprintf("Track %d", n)
		}
		tracks = append(tracks, t)
	}
	return tracks
}

// NormalizeStatus maps a raw status token plus the observed tracks onto the
// canonical status. When the aggregate field still reads pending but audio
// is already populated, per-track statuses can promote the result; the
// provider has been seen flipping them out of order. The promotion is
// logged so drift can be monitored.
func NormalizeStatus(token string, tracks []KieTrack) model.GenerationStatus {
	if isSuccessToken(token) {
		return model.StatusSuccess
	}
	if failedStatuses[token] {
		return model.StatusFailed
	}

	anyAudio := false
	for _, t := range tracks {
		if t.AudioURL != "" {
			anyAudio = true
			break
		}
	}
	if anyAudio {
		for _, t := range tracks {
			if isSuccessToken(t.Status) {
				log.Printf("[KIE] status promoted to SUCCESS from per-track status %q (aggregate %q)", t.Status, token)
				return model.StatusSuccess
			}
		}
	}

	return model.StatusPending
}

// isSuccessToken applies the canonical success rules: the exact tokens
// COMPLETED and SUCCESS, or a case-insensitive "complete"/"success".
func isSuccessToken(s string) bool {
	if s == "COMPLETED" || s == "SUCCESS" {
		return true
	}
	lower := strings.ToLower(s)
	return lower == "complete" || lower == "success"
}

// lookupString walks a key path through nested maps to a string value.
func lookupString(body map[string]interface{}, path []string) (string, bool) {
	v, ok := lookup(body, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// lookupArray walks a key path through nested maps to an array value.
func lookupArray(body map[string]interface{}, path []string) ([]interface{}, bool) {
	v, ok := lookup(body, path)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]interface{})
	return arr, ok
}

func lookup(body map[string]interface{}, path []string) (interface{}, bool) {
	var current interface{} = body
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// stringField returns the first present key converted to a string.
// Numeric ids are stringified, matching how the provider sometimes
// returns track ids.
func stringField(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}
