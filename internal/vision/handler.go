package vision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/falcrise/omnivision/internal/dto"
	"github.com/falcrise/omnivision/internal/shared"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 8 * 1024 * 1024
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// IngestHandler feeds frames pushed by a browser into a SlotSource.
type IngestHandler struct {
	slot      *SlotSource
	maxPixels int
	logger    *slog.Logger
}

// NewIngestHandler rejects frames with more than maxPixels pixels. Zero means DefaultMaxFramePixels.
func NewIngestHandler(slot *SlotSource, maxPixels int, logger *slog.Logger) *IngestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxFramePixels
	}
	return &IngestHandler{
		slot:      slot,
		maxPixels: maxPixels,
		logger:    logger.With("component", "frame-ingest"),
	}
}

func (h *IngestHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/frames", h.Upload)
	g.GET("/frames/ws", h.Stream)
}

// @Summary      Push a frame
// @Description  Replaces the latest frame with a JPEG, PNG or WebP image sent as the raw request body
// @Tags         frames
// @Accept       image/jpeg,image/png,image/webp
// @Produce      json
// @Success      202  {object}  dto.FrameAccepted
// @Failure      400  {object}  shared.APIError
// @Failure      413  {object}  shared.APIError  "Body or image dimensions too large"
// @Failure      503  {object}  shared.APIError  "Ingest disabled"
// @Router       /frames [post]
func (h *IngestHandler) Upload(c echo.Context) error {
	if h.slot == nil {
		return shared.ServiceUnavailable("ingest_disabled", "frame ingest is not enabled")
	}

	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxFrameSize+1))
	if err != nil {
		return shared.BadRequest("invalid_frame", "failed to read frame body")
	}
	if len(data) > maxFrameSize {
		return shared.NewAPIError("frame_too_large", "frame exceeds 8MB").ToHTTP(http.StatusRequestEntityTooLarge)
	}

	accepted, err := h.accept(data)
	if err != nil {
		if errors.Is(err, ErrEmptyFrame) {
			return shared.BadRequest("invalid_frame", "frame body is empty")
		}
		if errors.Is(err, ErrFrameTooLarge) {
			return shared.NewAPIError("frame_too_large", err.Error()).ToHTTP(http.StatusRequestEntityTooLarge)
		}
		return shared.BadRequest("invalid_frame", "frame is not a jpeg, png or webp image")
	}

	return c.JSON(http.StatusAccepted, accepted)
}

// @Summary      Stream frames
// @Description  WebSocket endpoint. Each binary message is one encoded frame and replaces the latest frame.
// @Tags         frames
// @Success      101
// @Failure      503  {object}  shared.APIError  "Ingest disabled"
// @Router       /frames/ws [get]
func (h *IngestHandler) Stream(c echo.Context) error {
	if h.slot == nil {
		return shared.ServiceUnavailable("ingest_disabled", "frame ingest is not enabled")
	}

	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	h.logger.Info("frame stream connected", "remote", c.RealIP())
	go h.pingLoop(ctx, ws)
	h.readLoop(ws)
	h.logger.Info("frame stream closed", "remote", c.RealIP())

	return nil
}

func (h *IngestHandler) readLoop(ws *websocket.Conn) {
	defer ws.Close()

	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("frame stream read error", "error", err)
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		if _, err := h.accept(data); err != nil {
			h.logger.Debug("dropping undecodable frame", "error", err, "bytes", len(data))
		}
	}
}

func (h *IngestHandler) pingLoop(ctx context.Context, ws *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *IngestHandler) accept(data []byte) (*dto.FrameAccepted, error) {
	img, format, err := DecodeFrame(data, h.maxPixels)
	if err != nil {
		return nil, err
	}
	h.slot.Put(img)

	b := img.Bounds()
	return &dto.FrameAccepted{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Format:   format,
		Received: h.slot.Received(),
	}, nil
}
