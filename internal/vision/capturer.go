package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"log/slog"
	"math"

	xdraw "golang.org/x/image/draw"
)

// FrameSource is a live video source that can report its size and paint its current frame.
type FrameSource interface {
	Dimensions() (width, height int, err error)
	DrawFrame(dst draw.Image) error
}

type Capturer struct {
	source   FrameSource
	maxWidth int
	logger   *slog.Logger
}

type CapturerConfig struct {
	Source   FrameSource
	MaxWidth int
	Logger   *slog.Logger
}

func NewCapturer(cfg CapturerConfig) *Capturer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Capturer{
		source:   cfg.Source,
		maxWidth: cfg.MaxWidth,
		logger:   cfg.Logger.With("component", "frame-capturer"),
	}
}

// Available reports nil when the source can currently produce a frame.
func (c *Capturer) Available() error {
	if c == nil || c.source == nil {
		return &ResourceError{Op: "lookup", Err: ErrNoFrameSource}
	}
	if _, _, err := c.dimensions(); err != nil {
		return err
	}
	return nil
}

// Capture paints the current frame and encodes it as JPEG at the given 0..1 quality.
func (c *Capturer) Capture(quality float64) ([]byte, error) {
	if c == nil || c.source == nil {
		return nil, &ResourceError{Op: "lookup", Err: ErrNoFrameSource}
	}

	width, height, err := c.dimensions()
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := c.source.DrawFrame(canvas); err != nil {
		return nil, &ResourceError{Op: "draw", Err: err}
	}

	var img image.Image = canvas
	if c.maxWidth > 0 && width > c.maxWidth {
		img = downscale(img, c.maxWidth)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality(quality)}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	c.logger.Debug("frame captured",
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
		"bytes", buf.Len())

	return buf.Bytes(), nil
}

func (c *Capturer) dimensions() (int, int, error) {
	width, height, err := c.source.Dimensions()
	if err != nil {
		return 0, 0, &ResourceError{Op: "dimensions", Err: err}
	}
	if width <= 0 || height <= 0 {
		return 0, 0, &ResourceError{Op: "dimensions", Err: ErrNoFrame}
	}
	return width, height, nil
}

// JPEGQuality maps a 0..1 quality onto the encoder's 1..100 scale.
func JPEGQuality(q float64) int {
	quality := int(math.Round(q * 100))
	if quality < 1 {
		return 1
	}
	if quality > 100 {
		return 100
	}
	return quality
}

func downscale(src image.Image, maxWidth int) image.Image {
	bounds := src.Bounds()
	height := bounds.Dy() * maxWidth / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}
