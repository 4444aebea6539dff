package handler

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/service"
)

// TaskEnqueuer enqueues background tasks. Satisfied by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CallbackHandler is the synchronous gate of webhook ingestion. The
// provider retries any delivery not acknowledged within 15 seconds, so the
// gate only parses, validates and enqueues; it never touches the network.
// Every outcome, including garbage input, is acknowledged with 200: the
// sender has no use for an error response.
type CallbackHandler struct {
	enqueuer TaskEnqueuer
}

func NewCallbackHandler(enqueuer TaskEnqueuer) *CallbackHandler {
	return &CallbackHandler{enqueuer: enqueuer}
}

// Cover handles POST /callback/cover
func (h *CallbackHandler) Cover(c *fiber.Ctx) error {
	ack := fiber.Map{"status": "received"}

	var body model.CoverCallbackBody
	if err := c.BodyParser(&body); err != nil {
		return c.JSON(ack)
	}

	if body.Code != 200 || body.Data == nil || body.Data.TaskID == "" || len(body.Data.Images) == 0 {
		return c.JSON(ack)
	}

	task, err := service.NewCoverCallbackTask(body.Data.TaskID, body.Data.Images)
	if err != nil {
		log.Printf("[Callback] failed to build cover task: %v", err)
		return c.JSON(ack)
	}

	// an enqueue failure is still acknowledged: signaling an error would
	// only trigger provider retries nothing downstream could honor
	if _, err := h.enqueuer.Enqueue(task,
		asynq.Queue("covers"),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour),
	); err != nil {
		log.Printf("[Callback] failed to enqueue cover task %s: %v", body.Data.TaskID, err)
	}

	return c.JSON(ack)
}
