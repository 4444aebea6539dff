package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/songforge/api/internal/client"
	"github.com/songforge/api/internal/media"
	"github.com/songforge/api/internal/store"
)

const TaskTypeCoverCallback = "cover:callback"

// CoverCallbackPayload is the asynq task payload carrying a validated
// cover webhook delivery from the gate to the worker.
type CoverCallbackPayload struct {
	CoverTaskID string   `json:"coverTaskId"`
	Images      []string `json:"images"`
}

// NewCoverCallbackTask builds the asynq task for a cover webhook delivery.
func NewCoverCallbackTask(coverTaskID string, images []string) (*asynq.Task, error) {
	data, err := json.Marshal(CoverCallbackPayload{
		CoverTaskID: coverTaskID,
		Images:      images,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCoverCallback, data), nil
}

// AssetFetcher downloads one remote binary resource.
type AssetFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CoverService handles cover art: starting cover sub-tasks and processing
// their completion callbacks. It is the only writer of a generation's
// cover fields.
type CoverService struct {
	kie     client.MusicAPI
	fetcher AssetFetcher
	store   store.Store
	dir     media.Dir
}

func NewCoverService(kie client.MusicAPI, fetcher AssetFetcher, st store.Store, dir media.Dir) *CoverService {
	return &CoverService{
		kie:     kie,
		fetcher: fetcher,
		store:   st,
		dir:     dir,
	}
}

// StartCover requests cover art generation for an existing music task and
// returns the cover sub-task id.
func (s *CoverService) StartCover(ctx context.Context, taskID string) (string, error) {
	if s.kie == nil || !s.kie.IsConfigured() {
		return "", ErrProviderNotConfigured
	}
	coverTaskID, err := s.kie.GenerateCover(ctx, taskID)
	if err != nil {
		return "", fmt.Errorf("cover generation failed: %w", err)
	}
	return coverTaskID, nil
}

// ProcessCallback is the worker half of cover webhook ingestion. The
// callback's taskId names the cover sub-task, so the parent generation is
// resolved through the provider's detail endpoint first. Each image URL is
// validated, fetched and saved independently; one failed download never
// aborts the batch. The generation is updated only when at least one file
// was saved, so an empty batch leaves no stale cover task id behind.
//
// Processing is best-effort: there is no caller to report to, so
// unrecoverable conditions end the invocation silently.
func (s *CoverService) ProcessCallback(ctx context.Context, coverTaskID string, images []string) error {
	if s.kie == nil || !s.kie.IsConfigured() {
		return nil
	}

	info, err := s.kie.GetCoverRecordInfo(ctx, coverTaskID)
	if err != nil {
		// transient transport errors are worth a redelivery
		return fmt.Errorf("cover record lookup failed: %w", err)
	}
	if info == nil || info.ParentTaskID == "" {
		log.Printf("[Cover] no parent task for cover task %s, skipping", coverTaskID)
		return nil
	}

	g, err := s.store.LatestGenerationByTaskID(ctx, info.ParentTaskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("[Cover] no generation for parent task %s, skipping", info.ParentTaskID)
			return nil
		}
		return fmt.Errorf("generation lookup failed: %w", err)
	}

	saved := s.downloadCovers(ctx, info.ParentTaskID, images)
	if len(saved) == 0 {
		log.Printf("[Cover] no images saved for cover task %s", coverTaskID)
		return nil
	}

	if err := s.store.UpdateGenerationCover(ctx, g.ID, coverTaskID, saved); err != nil {
		return fmt.Errorf("failed to update generation cover: %w", err)
	}

	log.Printf("[Cover] saved %d/%d images for task %s", len(saved), len(images), info.ParentTaskID)
	return nil
}

// downloadCovers fetches each image URL and writes it under a filename
// derived from (parent task id, 1-based index). Invalid URLs, unsafe
// filenames and failed fetches are skipped per item.
func (s *CoverService) downloadCovers(ctx context.Context, parentTaskID string, images []string) []string {
	if err := s.dir.Ensure(); err != nil {
		log.Printf("[Cover] %v", err)
		return nil
	}

	var saved []string
	for i, url := range images {
		if url == "" || !strings.HasPrefix(url, "http") {
			continue
		}
		filename := media.CoverFilename(parentTaskID, i+1)
		if !media.IsSafeCoverFilename(filename) {
			continue
		}

		data, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			log.Printf("[Cover] download failed (%s): %v", url, err)
			continue
		}
		if err := s.dir.WriteCover(filename, data); err != nil {
			log.Printf("[Cover] write failed (%s): %v", filename, err)
			continue
		}
		saved = append(saved, filename)
	}
	return saved
}
