package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/songforge/api/internal/client"
	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/store"
)

// fakeStore is an in-memory store.Store for service tests.
type fakeStore struct {
	mu          sync.Mutex
	generations map[string]*model.Generation // keyed by id
	tracks      map[string]*model.Track      // keyed by id
	byPosition  map[string]string            // "taskID:index" -> track id

	createGenErr error
	lookupErr    error
	createErr    error
	updateErr    error

	trackCreates int
	trackUpdates int
	coverUpdates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		generations: make(map[string]*model.Generation),
		tracks:      make(map[string]*model.Track),
		byPosition:  make(map[string]string),
	}
}

func posKey(taskID string, index int) string {
	return fmt.Sprintf("%s:%d", taskID, index)
}

func (f *fakeStore) CreateGeneration(_ context.Context, g *model.Generation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createGenErr != nil {
		return f.createGenErr
	}
	cp := *g
	f.generations[g.ID] = &cp
	return nil
}

func (f *fakeStore) LatestGenerationByTaskID(_ context.Context, taskID string) (*model.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	var latest *model.Generation
	for _, g := range f.generations {
		if g.TaskID != taskID {
			continue
		}
		if latest == nil || g.CreatedAt.After(latest.CreatedAt) {
			latest = g
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) UpdateGenerationCover(_ context.Context, id, coverTaskID string, coverImages []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	g, ok := f.generations[id]
	if !ok {
		return store.ErrNotFound
	}
	g.CoverTaskID = coverTaskID
	g.CoverImages = coverImages
	f.coverUpdates++
	return nil
}

func (f *fakeStore) TrackByTaskIDAndIndex(_ context.Context, taskID string, index int) (*model.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byPosition[posKey(taskID, index)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *f.tracks[id]
	return &cp, nil
}

func (f *fakeStore) CreateTrack(_ context.Context, t *model.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *t
	f.tracks[t.ID] = &cp
	f.byPosition[posKey(t.TaskID, t.Index)] = t.ID
	f.trackCreates++
	return nil
}

func (f *fakeStore) UpdateTrack(_ context.Context, id string, u store.TrackUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	t, ok := f.tracks[id]
	if !ok {
		return store.ErrNotFound
	}
	t.AudioID = u.AudioID
	t.Title = u.Title
	t.AudioURL = u.AudioURL
	t.StreamAudioURL = u.StreamAudioURL
	t.ImageURL = u.ImageURL
	t.Duration = u.Duration
	t.ExpiresAt = u.ExpiresAt
	f.trackUpdates++
	return nil
}

// fakeMusicAPI is a canned-response client.MusicAPI.
type fakeMusicAPI struct {
	configured bool

	generateTaskID string
	generateErr    error

	record    *client.RecordInfo
	recordErr error

	coverTaskID string
	coverErr    error

	coverRecord    *client.CoverRecordInfo
	coverRecordErr error

	lyricsTaskID string
	lyricsErr    error
}

func (f *fakeMusicAPI) IsConfigured() bool { return f.configured }

func (f *fakeMusicAPI) GenerateMusic(_ context.Context, _ *client.GenerateMusicRequest) (string, error) {
	return f.generateTaskID, f.generateErr
}

func (f *fakeMusicAPI) GetRecordInfo(_ context.Context, _ string) (*client.RecordInfo, error) {
	return f.record, f.recordErr
}

func (f *fakeMusicAPI) GenerateCover(_ context.Context, _ string) (string, error) {
	return f.coverTaskID, f.coverErr
}

func (f *fakeMusicAPI) GetCoverRecordInfo(_ context.Context, _ string) (*client.CoverRecordInfo, error) {
	return f.coverRecord, f.coverRecordErr
}

func (f *fakeMusicAPI) GenerateLyrics(_ context.Context, _ string) (string, error) {
	return f.lyricsTaskID, f.lyricsErr
}

func (f *fakeMusicAPI) GetTimestampedLyrics(_ context.Context, _, _ string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

// fakeFetcher serves canned bodies per URL and can fail selectively.
type fakeFetcher struct {
	bodies  map[string][]byte
	failing map[string]bool
	calls   []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies:  make(map[string][]byte),
		failing: make(map[string]bool),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	if f.failing[url] {
		return nil, fmt.Errorf("fetch failed for %s", url)
	}
	if body, ok := f.bodies[url]; ok {
		return body, nil
	}
	return []byte("image-bytes"), nil
}

// mustRecord parses a raw provider response body for tests.
func mustRecord(raw string) *client.RecordInfo {
	rec, err := client.ParseRecordInfo([]byte(raw))
	if err != nil {
		panic(err)
	}
	return rec
}
