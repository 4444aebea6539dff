package model

// GenerateRequest represents the request body for starting music generation
type GenerateRequest struct {
	Prompt       string `json:"prompt" validate:"required,min=1,max=3000"`
	Style        string `json:"style" validate:"omitempty,max=200"`
	Title        string `json:"title" validate:"omitempty,max=80"`
	Model        string `json:"model" validate:"omitempty,oneof=V3_5 V4 V4_5"`
	Instrumental bool   `json:"instrumental"`
}

// GenerateResponse represents the response for an accepted generation request
type GenerateResponse struct {
	TaskID string `json:"taskId"`
}

// CoverGenerateRequest represents the request body for starting cover art generation
type CoverGenerateRequest struct {
	TaskID string `json:"taskId" validate:"required,min=1"`
}

// CoverGenerateResponse represents the response for an accepted cover request
type CoverGenerateResponse struct {
	CoverTaskID string `json:"coverTaskId"`
}

// StopPollingRequest represents the request body for stopping the poll loop
type StopPollingRequest struct {
	TaskID string `json:"taskId" validate:"required,min=1"`
}

// LyricsGenerateRequest represents the request body for lyrics generation
type LyricsGenerateRequest struct {
	Prompt string `json:"prompt" validate:"required,min=1"`
}

// LyricsGenerateResponse represents the response for an accepted lyrics request
type LyricsGenerateResponse struct {
	TaskID string `json:"taskId"`
}

// TimestampedLyricsRequest represents the request body for timestamped lyrics lookup
type TimestampedLyricsRequest struct {
	TaskID  string `json:"taskId" validate:"required,min=1"`
	AudioID string `json:"audioId" validate:"required,min=1"`
}

// CoverCallbackBody is the webhook payload the provider POSTs when a cover
// sub-task finishes. The taskId inside is the sub-task id, not the id of
// the original generation.
type CoverCallbackBody struct {
	Code int                `json:"code"`
	Msg  string             `json:"msg,omitempty"`
	Data *CoverCallbackData `json:"data"`
}

// CoverCallbackData carries the cover sub-task id and generated image URLs
type CoverCallbackData struct {
	TaskID string   `json:"taskId"`
	Images []string `json:"images"`
}
