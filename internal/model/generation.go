package model

import "time"

// GenerationStatus is the canonical classification of a provider task.
type GenerationStatus string

const (
	StatusPending GenerationStatus = "PENDING"
	StatusSuccess GenerationStatus = "SUCCESS"
	StatusFailed  GenerationStatus = "FAILED"
)

// IsFinal reports whether no further status transition is expected.
func (s GenerationStatus) IsFinal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Generation represents one music generation request issued to the provider.
type Generation struct {
	ID           string    `json:"id"`
	TaskID       string    `json:"taskId"` // provider task id
	Prompt       string    `json:"prompt,omitempty"`
	Style        string    `json:"style,omitempty"`
	Title        string    `json:"title,omitempty"`
	Model        string    `json:"model,omitempty"`
	Instrumental bool      `json:"instrumental,omitempty"`
	CoverTaskID  string    `json:"coverTaskId,omitempty"` // cover sub-task, set by the callback worker
	CoverImages  []string  `json:"coverImages,omitempty"` // saved cover filenames
	CreatedAt    time.Time `json:"createdAt"`
}

// Track is one generated media unit belonging to a Generation.
// (TaskID, Index) uniquely addresses a track; a track is complete
// once AudioURL is non-empty.
type Track struct {
	ID             string     `json:"id"`
	GenerationID   string     `json:"generationId"`
	TaskID         string     `json:"taskId"` // denormalized for lookup
	AudioID        string     `json:"audioId,omitempty"`
	Title          string     `json:"title"`
	Index          int        `json:"index"` // 1-based position within the generation
	AudioURL       string     `json:"audioUrl,omitempty"`
	StreamAudioURL string     `json:"streamAudioUrl,omitempty"`
	ImageURL       string     `json:"imageUrl,omitempty"`
	Duration       float64    `json:"duration,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// TrackInfo is the API-facing view of a track observed from the provider.
type TrackInfo struct {
	ID             string  `json:"id"`
	AudioURL       string  `json:"audioUrl"`
	StreamAudioURL string  `json:"streamAudioUrl,omitempty"`
	ImageURL       string  `json:"imageUrl,omitempty"`
	Title          string  `json:"title"`
	Index          int     `json:"index"`
	Duration       float64 `json:"duration,omitempty"`
}

// StatusSnapshot is one observation of a generation task's state.
type StatusSnapshot struct {
	TaskID       string           `json:"taskId"`
	Status       GenerationStatus `json:"status"`
	Tracks       []TrackInfo      `json:"tracks"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}
