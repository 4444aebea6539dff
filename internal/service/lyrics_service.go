package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/songforge/api/internal/client"
	"github.com/songforge/api/internal/model"
)

// MaxLyricsPromptWords bounds the lyrics prompt accepted by the provider.
const MaxLyricsPromptWords = 200

// ErrPromptTooLong is returned when a lyrics prompt exceeds the word limit.
var ErrPromptTooLong = fmt.Errorf("prompt must be at most %d words", MaxLyricsPromptWords)

// LyricsService proxies lyrics generation and timestamped lyrics lookup to
// the provider.
type LyricsService struct {
	kie client.MusicAPI
}

func NewLyricsService(kie client.MusicAPI) *LyricsService {
	return &LyricsService{kie: kie}
}

// Generate starts a lyrics generation task for the given prompt.
func (s *LyricsService) Generate(ctx context.Context, req *model.LyricsGenerateRequest) (*model.LyricsGenerateResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("prompt is required")
	}
	if countWords(prompt) > MaxLyricsPromptWords {
		return nil, ErrPromptTooLong
	}

	if s.kie == nil || !s.kie.IsConfigured() {
		return nil, ErrProviderNotConfigured
	}

	taskID, err := s.kie.GenerateLyrics(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("lyrics generation failed: %w", err)
	}

	return &model.LyricsGenerateResponse{TaskID: taskID}, nil
}

// GetTimestamped fetches word-level timestamped lyrics for one track.
func (s *LyricsService) GetTimestamped(ctx context.Context, req *model.TimestampedLyricsRequest) (json.RawMessage, error) {
	if s.kie == nil || !s.kie.IsConfigured() {
		return nil, ErrProviderNotConfigured
	}

	data, err := s.kie.GetTimestampedLyrics(ctx, strings.TrimSpace(req.TaskID), strings.TrimSpace(req.AudioID))
	if err != nil {
		return nil, fmt.Errorf("timestamped lyrics lookup failed: %w", err)
	}
	return data, nil
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
