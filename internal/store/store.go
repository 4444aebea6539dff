package store

import (
	"context"
	"errors"
	"time"

	"github.com/songforge/api/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// TrackUpdate carries the mutable track fields rewritten on every terminal
// observation of a position.
type TrackUpdate struct {
	AudioID        string
	Title          string
	AudioURL       string
	StreamAudioURL string
	ImageURL       string
	Duration       float64
	ExpiresAt      *time.Time
}

// Store is the persistence boundary for generations and tracks. The
// reconciler is the only writer of track records and the cover worker the
// only writer of cover fields, so no operation spans multiple records.
type Store interface {
	CreateGeneration(ctx context.Context, g *model.Generation) error
	// LatestGenerationByTaskID resolves a provider task id to the
	// most-recently-created generation row sharing it.
	LatestGenerationByTaskID(ctx context.Context, taskID string) (*model.Generation, error)
	// UpdateGenerationCover sets the cover sub-task id and the saved cover
	// filenames in a single write.
	UpdateGenerationCover(ctx context.Context, id, coverTaskID string, coverImages []string) error

	TrackByTaskIDAndIndex(ctx context.Context, taskID string, index int) (*model.Track, error)
	CreateTrack(ctx context.Context, t *model.Track) error
	UpdateTrack(ctx context.Context, id string, u TrackUpdate) error
}
