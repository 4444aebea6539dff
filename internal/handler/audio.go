package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/songforge/api/internal/media"
	"github.com/songforge/api/pkg/response"
)

// AudioHandler serves saved audio files and cover images from the content
// directory. Filenames are validated before any filesystem access.
type AudioHandler struct {
	dir media.Dir
}

func NewAudioHandler(dir media.Dir) *AudioHandler {
	return &AudioHandler{dir: dir}
}

// GetFile handles GET /api/audio/:filename
func (h *AudioHandler) GetFile(c *fiber.Ctx) error {
	filename := c.Params("filename")

	path, ok := h.dir.Path(filename)
	if !ok {
		return response.NotFound(c, "File not found")
	}

	return c.SendFile(path)
}
