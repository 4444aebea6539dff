package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/songforge/api/internal/client"
	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/store"
)

// Tracks observed in a ready state stay downloadable for a bounded window
// before downstream cleanup may reclaim them.
const trackRetention = 15 * 24 * time.Hour

// ErrProviderNotConfigured is returned when the KIE credential is missing.
var ErrProviderNotConfigured = errors.New("KIE API key is not configured")

// GenerationService starts generation tasks and reconciles their observed
// state into the store. It is the only writer of track records.
type GenerationService struct {
	kie   client.MusicAPI
	store store.Store
}

func NewGenerationService(kie client.MusicAPI, st store.Store) *GenerationService {
	return &GenerationService{
		kie:   kie,
		store: st,
	}
}

// StartGeneration submits a generation request to the provider and records
// the accepted task.
func (s *GenerationService) StartGeneration(ctx context.Context, req *model.GenerateRequest) (*model.GenerateResponse, error) {
	if s.kie == nil || !s.kie.IsConfigured() {
		return nil, ErrProviderNotConfigured
	}

	taskID, err := s.kie.GenerateMusic(ctx, &client.GenerateMusicRequest{
		Prompt:       req.Prompt,
		Style:        req.Style,
		Title:        req.Title,
		Model:        req.Model,
		Instrumental: req.Instrumental,
	})
	if err != nil {
		return nil, fmt.Errorf("music generation failed: %w", err)
	}

	g := &model.Generation{
		ID:           uuid.New().String(),
		TaskID:       taskID,
		Prompt:       req.Prompt,
		Style:        req.Style,
		Title:        req.Title,
		Model:        req.Model,
		Instrumental: req.Instrumental,
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateGeneration(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save generation: %w", err)
	}

	return &model.GenerateResponse{TaskID: taskID}, nil
}

// FetchStatus polls the provider once, classifies the result and, on a
// successful terminal observation carrying tracks, reconciles track records.
func (s *GenerationService) FetchStatus(ctx context.Context, taskID string) (*model.StatusSnapshot, error) {
	if s.kie == nil || !s.kie.IsConfigured() {
		return nil, ErrProviderNotConfigured
	}

	rec, err := s.kie.GetRecordInfo(ctx, taskID)
	if err != nil {
		return nil, err
	}

	tracks := rec.Tracks()
	status := client.NormalizeStatus(rec.StatusToken(), tracks)

	if status == model.StatusSuccess && len(tracks) > 0 {
		s.ReconcileTracks(ctx, taskID, tracks)
	}

	snapshot := &model.StatusSnapshot{
		TaskID: taskID,
		Status: status,
		Tracks: make([]model.TrackInfo, 0, len(tracks)),
	}
	for _, t := range tracks {
		snapshot.Tracks = append(snapshot.Tracks, model.TrackInfo{
			ID:             t.ID,
			AudioURL:       t.AudioURL,
			StreamAudioURL: t.StreamAudioURL,
			ImageURL:       t.ImageURL,
			Title:          t.Title,
			Index:          t.Index,
			Duration:       t.Duration,
		})
	}
	if status == model.StatusFailed {
		snapshot.ErrorMessage = rec.ErrorMessage()
	}
	return snapshot, nil
}

// ReconcileTracks upserts one track record per observed position. Repeated
// delivery of the same terminal payload converges to the same rows; only
// the expiry timestamp advances. A failing position is skipped without
// aborting the rest, and an unknown task id is a silent no-op because the
// generation row may not be visible to this write path yet.
func (s *GenerationService) ReconcileTracks(ctx context.Context, taskID string, tracks []client.KieTrack) {
	g, err := s.store.LatestGenerationByTaskID(ctx, taskID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[Reconcile] generation lookup failed (task=%s): %v", taskID, err)
		}
		return
	}

	expires := time.Now().Add(trackRetention)
	for _, t := range tracks {
		update := store.TrackUpdate{
			AudioID:        t.ID,
			Title:          t.Title,
			AudioURL:       t.AudioURL,
			StreamAudioURL: t.StreamAudioURL,
			ImageURL:       t.ImageURL,
			Duration:       t.Duration,
			ExpiresAt:      &expires,
		}

		existing, err := s.store.TrackByTaskIDAndIndex(ctx, taskID, t.Index)
		switch {
		case err == nil:
			if err := s.store.UpdateTrack(ctx, existing.ID, update); err != nil {
				log.Printf("[Reconcile] track update failed (task=%s index=%d): %v", taskID, t.Index, err)
			}
		case errors.Is(err, store.ErrNotFound):
			track := &model.Track{
				ID:             uuid.New().String(),
				GenerationID:   g.ID,
				TaskID:         taskID,
				AudioID:        t.ID,
				Title:          t.Title,
				Index:          t.Index,
				AudioURL:       t.AudioURL,
				StreamAudioURL: t.StreamAudioURL,
				ImageURL:       t.ImageURL,
				Duration:       t.Duration,
				ExpiresAt:      &expires,
				CreatedAt:      time.Now(),
			}
			if err := s.store.CreateTrack(ctx, track); err != nil {
				log.Printf("[Reconcile] track create failed (task=%s index=%d): %v", taskID, t.Index, err)
			}
		default:
			log.Printf("[Reconcile] track lookup failed (task=%s index=%d): %v", taskID, t.Index, err)
		}
	}
}
