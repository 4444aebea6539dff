package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/websocket"
)

// DefaultInterval is the poll spacing; chosen to exceed the expected
// provider round-trip so ticks never overlap.
const DefaultInterval = 8 * time.Second

// StatusFetcher performs one status observation for a task.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, taskID string) (*model.StatusSnapshot, error)
}

// Poller drives fixed-interval status polling for generation tasks. Each
// task gets one explicit, cancellable loop; the tick body runs
// synchronously, so at most one status request per task is ever in flight.
// A loop stops itself on a terminal status or a transport error, and can
// be stopped early by the caller.
type Poller struct {
	svc      StatusFetcher
	hub      *websocket.Hub
	interval time.Duration

	mu    sync.Mutex
	loops map[string]*pollLoop
}

// pollLoop identifies one running loop so a finished loop can remove its
// own registration without clobbering a newer loop for the same task.
type pollLoop struct {
	cancel context.CancelFunc
}

// New creates a poller. hub may be nil when progress broadcasting is not
// wanted. interval <= 0 falls back to DefaultInterval.
func New(svc StatusFetcher, hub *websocket.Hub, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		svc:      svc,
		hub:      hub,
		interval: interval,
		loops:    make(map[string]*pollLoop),
	}
}

// Start launches the poll loop for a task. Starting an already-polled task
// is a no-op.
func (p *Poller) Start(taskID string) {
	p.mu.Lock()
	if _, running := p.loops[taskID]; running {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &pollLoop{cancel: cancel}
	p.loops[taskID] = l
	p.mu.Unlock()

	go p.run(ctx, taskID, l)
}

// Stop cancels the poll loop for a task, if one is running.
func (p *Poller) Stop(taskID string) {
	p.mu.Lock()
	l, ok := p.loops[taskID]
	if ok {
		delete(p.loops, taskID)
	}
	p.mu.Unlock()
	if ok {
		l.cancel()
	}
}

// StopAll cancels every running poll loop. Called on shutdown.
func (p *Poller) StopAll() {
	p.mu.Lock()
	loops := p.loops
	p.loops = make(map[string]*pollLoop)
	p.mu.Unlock()
	for _, l := range loops {
		l.cancel()
	}
}

// release removes the loop's registration once its goroutine ends. The
// entry is deleted only if it still belongs to this loop; a Start that
// raced the loop's completion keeps its fresh entry.
func (p *Poller) release(taskID string, l *pollLoop) {
	p.mu.Lock()
	if cur, ok := p.loops[taskID]; ok && cur == l {
		delete(p.loops, taskID)
	}
	p.mu.Unlock()
	l.cancel()
}

func (p *Poller) run(ctx context.Context, taskID string, l *pollLoop) {
	defer p.release(taskID, l)

	// poll immediately, then on the interval
	if done := p.poll(ctx, taskID); done {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := p.poll(ctx, taskID); done {
				return
			}
		}
	}
}

// poll performs one observation and reports whether the loop should end.
func (p *Poller) poll(ctx context.Context, taskID string) bool {
	snapshot, err := p.svc.FetchStatus(ctx, taskID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		log.Printf("[Poller] status fetch failed (task=%s): %v", taskID, err)
		if p.hub != nil {
			p.hub.BroadcastError(taskID, "STATUS_FETCH_FAILED", err.Error())
		}
		return true
	}

	switch snapshot.Status {
	case model.StatusSuccess:
		log.Printf("[Poller] task %s succeeded with %d tracks", taskID, len(snapshot.Tracks))
		if p.hub != nil {
			p.hub.BroadcastComplete(taskID, snapshot)
		}
		return true
	case model.StatusFailed:
		log.Printf("[Poller] task %s failed: %s", taskID, snapshot.ErrorMessage)
		if p.hub != nil {
			p.hub.BroadcastError(taskID, "GENERATION_FAILED", snapshot.ErrorMessage)
		}
		return true
	default:
		if p.hub != nil {
			p.hub.BroadcastProgress(taskID, snapshot.Status, len(snapshot.Tracks))
		}
		return false
	}
}
