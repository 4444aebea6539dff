package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/songforge/api/internal/model"
)

// RedisStore persists generations and tracks as JSON records in Redis.
// Generations sharing a provider task id are indexed in a sorted set
// scored by creation time, which gives the latest-row tie-break a single
// ZREVRANGE. Tracks are addressed by (taskID, index) through a pointer key.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{redis: redisClient}
}

func generationKey(id string) string {
	return "generation:" + id
}

func generationTaskKey(taskID string) string {
	return "generation:task:" + taskID
}

func trackKey(id string) string {
	return "track:" + id
}

func trackIndexKey(taskID string, index int) string {
	return fmt.Sprintf("track:task:%s:%d", taskID, index)
}

// CreateGeneration stores the record and indexes it under its task id.
func (s *RedisStore) CreateGeneration(ctx context.Context, g *model.Generation) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, generationKey(g.ID), data, 0).Err(); err != nil {
		return err
	}
	return s.redis.ZAdd(ctx, generationTaskKey(g.TaskID), redis.Z{
		Score:  float64(g.CreatedAt.UnixNano()),
		Member: g.ID,
	}).Err()
}

// LatestGenerationByTaskID returns the most recently created generation
// for the task id, or ErrNotFound.
func (s *RedisStore) LatestGenerationByTaskID(ctx context.Context, taskID string) (*model.Generation, error) {
	ids, err := s.redis.ZRevRange(ctx, generationTaskKey(taskID), 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	return s.getGeneration(ctx, ids[0])
}

// UpdateGenerationCover sets the cover task id and image list in one write.
func (s *RedisStore) UpdateGenerationCover(ctx context.Context, id, coverTaskID string, coverImages []string) error {
	g, err := s.getGeneration(ctx, id)
	if err != nil {
		return err
	}
	g.CoverTaskID = coverTaskID
	g.CoverImages = coverImages
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, generationKey(id), data, 0).Err()
}

// TrackByTaskIDAndIndex resolves the (taskID, index) pointer to its track.
func (s *RedisStore) TrackByTaskIDAndIndex(ctx context.Context, taskID string, index int) (*model.Track, error) {
	id, err := s.redis.Get(ctx, trackIndexKey(taskID, index)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	data, err := s.redis.Get(ctx, trackKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var t model.Track
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTrack stores a new track record and its (taskID, index) pointer.
func (s *RedisStore) CreateTrack(ctx context.Context, t *model.Track) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, trackKey(t.ID), data, 0).Err(); err != nil {
		return err
	}
	return s.redis.Set(ctx, trackIndexKey(t.TaskID, t.Index), t.ID, 0).Err()
}

// UpdateTrack rewrites the mutable fields of an existing track in place.
func (s *RedisStore) UpdateTrack(ctx context.Context, id string, u TrackUpdate) error {
	data, err := s.redis.Get(ctx, trackKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrNotFound
		}
		return err
	}

	var t model.Track
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}

	t.AudioID = u.AudioID
	t.Title = u.Title
	t.AudioURL = u.AudioURL
	t.StreamAudioURL = u.StreamAudioURL
	t.ImageURL = u.ImageURL
	t.Duration = u.Duration
	t.ExpiresAt = u.ExpiresAt

	updated, err := json.Marshal(&t)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, trackKey(id), updated, 0).Err()
}

func (s *RedisStore) getGeneration(ctx context.Context, id string) (*model.Generation, error) {
	data, err := s.redis.Get(ctx, generationKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var g model.Generation
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}
