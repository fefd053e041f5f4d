package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/upload"
)

// UploadPathPrefix is where stored uploads are served from.
const UploadPathPrefix = "/uploads/"

// UploadHandlers accepts images posted to a room and serves them back.
type UploadHandlers struct {
	hub     *core.Hub
	uploads *upload.Store
	log     *zerolog.Logger
}

// NewUploadHandlers creates a new upload handlers instance.
func NewUploadHandlers(hub *core.Hub, uploads *upload.Store, logger *zerolog.Logger) *UploadHandlers {
	return &UploadHandlers{
		hub:     hub,
		uploads: uploads,
		log:     logger,
	}
}

// UploadResponse is returned after an image was stored and relayed.
type UploadResponse struct {
	URL       string `json:"url"`
	Delivered int    `json:"delivered"`
}

// Upload stores an image and announces it to the room as a new_message.
// POST /api/upload (multipart: file, room)
func (h *UploadHandlers) Upload(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	room := c.PostForm("room")
	if room == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room is required"})
		return
	}
	if !h.hub.Rooms.Has(room) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.log.Debug().Err(err).Msg("upload without file")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("open multipart file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	defer file.Close()

	stored, err := h.uploads.Save(c.Request.Context(), header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrNotImage):
			c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: "only images can be uploaded"})
		case errors.Is(err, upload.ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
		default:
			h.log.Error().Err(err).Str("room", room).Msg("failed to store upload")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	url := UploadPathPrefix + stored.Name
	res, err := h.hub.Relay.RelayAs(identity, room, core.MessageImage, url)
	if err != nil {
		if rmErr := h.uploads.Remove(stored.Name); rmErr != nil {
			h.log.Warn().Err(rmErr).Str("file", stored.Name).Msg("failed to remove rejected upload")
		}
		ce := core.AsError(err)
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, core.ErrNotInRoom):
			status = http.StatusForbidden
		case errors.Is(err, core.ErrUnknownRoom):
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Error: ce.Message})
		return
	}

	h.log.Info().
		Str("identity", identity).
		Str("room", room).
		Str("file", stored.Name).
		Str("mime", stored.MIME).
		Int("delivered", res.Delivered).
		Msg("image uploaded")
	c.JSON(http.StatusCreated, UploadResponse{URL: url, Delivered: res.Delivered})
}

// Serve returns a previously stored upload.
// GET /uploads/:filename
func (h *UploadHandlers) Serve(c *gin.Context) {
	path, ctype, err := h.uploads.Resolve(c.Param("filename"))
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrInvalidName):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid filename"})
		case errors.Is(err, upload.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found"})
		default:
			h.log.Error().Err(err).Msg("failed to resolve upload")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.Header("Content-Type", ctype)
	c.Header("X-Content-Type-Options", "nosniff")
	c.File(path)
}
