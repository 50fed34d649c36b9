package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	_ "golang.org/x/image/webp"
)

// SlotSource keeps only the most recently pushed frame. Older frames are overwritten, never queued.
type SlotSource struct {
	clock  clock.Clock
	maxAge time.Duration

	mu       sync.RWMutex
	frame    image.Image
	received time.Time

	frames atomic.Uint64
}

func NewSlotSource(maxAge time.Duration, clk clock.Clock) *SlotSource {
	if clk == nil {
		clk = clock.New()
	}
	return &SlotSource{
		clock:  clk,
		maxAge: maxAge,
	}
}

func (s *SlotSource) Put(img image.Image) {
	s.mu.Lock()
	s.frame = img
	s.received = s.clock.Now()
	s.mu.Unlock()
	s.frames.Add(1)
}

func (s *SlotSource) Dimensions() (int, int, error) {
	frame, err := s.current()
	if err != nil {
		return 0, 0, err
	}
	b := frame.Bounds()
	return b.Dx(), b.Dy(), nil
}

func (s *SlotSource) DrawFrame(dst draw.Image) error {
	frame, err := s.current()
	if err != nil {
		return err
	}
	draw.Draw(dst, dst.Bounds(), frame, frame.Bounds().Min, draw.Src)
	return nil
}

func (s *SlotSource) Received() uint64 {
	return s.frames.Load()
}

// Age returns how long ago the latest frame arrived, or false when none has.
func (s *SlotSource) Age() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return 0, false
	}
	return s.clock.Since(s.received), true
}

func (s *SlotSource) current() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.frame == nil {
		return nil, ErrNoFrame
	}
	if s.maxAge > 0 && s.clock.Since(s.received) > s.maxAge {
		return nil, ErrStaleFrame
	}
	return s.frame, nil
}

// DefaultMaxFramePixels bounds the decoded size of a pushed frame.
const DefaultMaxFramePixels = 4096 * 4096

// DecodeFrame decodes a JPEG, PNG or WebP image. The header is checked first and
// images larger than maxPixels are rejected before any pixel data is allocated.
// A maxPixels of zero or less means DefaultMaxFramePixels.
func DecodeFrame(data []byte, maxPixels int) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyFrame
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxFramePixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode frame header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxPixels/cfg.Height {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrFrameTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode frame: %w", err)
	}
	return img, format, nil
}

var patternBars = []color.RGBA{
	{R: 255, G: 255, B: 255, A: 255},
	{R: 255, G: 255, B: 0, A: 255},
	{R: 0, G: 255, B: 255, A: 255},
	{R: 0, G: 255, B: 0, A: 255},
	{R: 255, G: 0, B: 255, A: 255},
	{R: 255, G: 0, B: 0, A: 255},
	{R: 0, G: 0, B: 255, A: 255},
	{R: 0, G: 0, B: 0, A: 255},
}

// PatternSource renders colour bars with a marker that sweeps across once per second.
type PatternSource struct {
	width  int
	height int
	clock  clock.Clock
}

func NewPatternSource(width, height int, clk clock.Clock) *PatternSource {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	if clk == nil {
		clk = clock.New()
	}
	return &PatternSource{width: width, height: height, clock: clk}
}

func (p *PatternSource) Dimensions() (int, int, error) {
	return p.width, p.height, nil
}

func (p *PatternSource) DrawFrame(dst draw.Image) error {
	bounds := dst.Bounds()
	barWidth := bounds.Dx() / len(patternBars)
	if barWidth == 0 {
		barWidth = 1
	}

	for i, c := range patternBars {
		bar := image.Rect(bounds.Min.X+i*barWidth, bounds.Min.Y, bounds.Min.X+(i+1)*barWidth, bounds.Max.Y)
		if i == len(patternBars)-1 {
			bar.Max.X = bounds.Max.X
		}
		draw.Draw(dst, bar.Intersect(bounds), image.NewUniform(c), image.Point{}, draw.Src)
	}

	size := bounds.Dy() / 8
	if size < 1 {
		size = 1
	}
	offset := int(p.clock.Now().UnixMilli()%1000) * (bounds.Dx() - size) / 1000
	marker := image.Rect(bounds.Min.X+offset, bounds.Max.Y-size, bounds.Min.X+offset+size, bounds.Max.Y)
	draw.Draw(dst, marker.Intersect(bounds), image.NewUniform(color.RGBA{R: 128, G: 128, B: 128, A: 255}), image.Point{}, draw.Src)

	return nil
}
