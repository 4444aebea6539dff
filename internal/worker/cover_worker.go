package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/songforge/api/internal/service"
)

// CoverWorker processes cover callback tasks enqueued by the webhook gate.
// Running the detached half of the callback through asynq keeps deliveries
// durable across restarts; redelivery is safe because every effect is
// idempotent (deterministic filenames, guarded generation update).
type CoverWorker struct {
	coverService *service.CoverService
}

func NewCoverWorker(coverService *service.CoverService) *CoverWorker {
	return &CoverWorker{coverService: coverService}
}

// ProcessTask handles one cover callback delivery
func (w *CoverWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.CoverCallbackPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal cover callback payload: %w", err)
	}

	log.Printf("[Cover] processing callback for cover task %s (%d images)", payload.CoverTaskID, len(payload.Images))
	return w.coverService.ProcessCallback(ctx, payload.CoverTaskID, payload.Images)
}
