// Package rasterchrome captures canvas exports with a headless Chrome.
package rasterchrome

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	canvas "github.com/goliatone/go-canvas/components/canvas"
)

// SurfaceSelector is the element captured from the export document.
const SurfaceSelector = "#canvas-surface"

var errEmptyDocument = errors.New("rasterchrome: export document is empty")

// Config configures the browser used for captures.
type Config struct {
	// RemoteURL is a DevTools websocket endpoint. Empty launches a local browser.
	RemoteURL string
	Headless  bool
	Timeout   time.Duration
	// Settle waits after load so chart frames can draw.
	Settle time.Duration
	// Fallback paints the capture when the browser cannot.
	Fallback canvas.Rasterizer
	Logger   *zap.Logger
}

// Rasterizer implements canvas.Rasterizer by loading the export document
// into a fresh tab and screenshotting the surface element.
type Rasterizer struct {
	cfg    Config
	logger *zap.Logger
}

var _ canvas.Rasterizer = (*Rasterizer)(nil)

// New builds a chrome rasterizer.
func New(cfg Config) *Rasterizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Settle < 0 {
		cfg.Settle = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rasterizer{cfg: cfg, logger: logger}
}

// Rasterize renders input.Document and returns the PNG of the surface.
func (r *Rasterizer) Rasterize(ctx context.Context, input canvas.RasterInput) ([]byte, error) {
	if strings.TrimSpace(input.Document) == "" {
		return nil, errEmptyDocument
	}
	png, err := r.capture(ctx, input)
	if err == nil {
		return png, nil
	}
	if r.cfg.Fallback == nil {
		return nil, err
	}
	r.logger.Warn("chrome capture failed, using fallback rasterizer", zap.Error(err))
	return r.cfg.Fallback.Rasterize(ctx, input)
}

func (r *Rasterizer) capture(ctx context.Context, input canvas.RasterInput) ([]byte, error) {
	allocCtx, allocCancel := r.allocator(ctx, input)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	runCtx, cancel := context.WithTimeout(tabCtx, r.cfg.Timeout)
	defer cancel()

	var buf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		loadDocument(input.Document),
		chromedp.WaitVisible(SurfaceSelector, chromedp.ByQuery),
		chromedp.Sleep(r.cfg.Settle),
		chromedp.Screenshot(SurfaceSelector, &buf, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("rasterchrome: capture: %w", err)
	}
	r.logger.Debug("chrome capture completed", zap.Int("bytes", len(buf)))
	return buf, nil
}

func (r *Rasterizer) allocator(ctx context.Context, input canvas.RasterInput) (context.Context, context.CancelFunc) {
	if r.cfg.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(ctx, r.cfg.RemoteURL)
	}
	width, height := windowSize(input)
	opts := make([]chromedp.ExecAllocatorOption, len(chromedp.DefaultExecAllocatorOptions))
	copy(opts, chromedp.DefaultExecAllocatorOptions[:])
	opts = append(opts,
		chromedp.Flag("headless", r.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(width, height),
	)
	return chromedp.NewExecAllocator(ctx, opts...)
}

func loadDocument(doc string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
	})
}

// windowSize fits the viewport to the whole surface so nothing is clipped.
func windowSize(input canvas.RasterInput) (int, int) {
	width := input.Bounds.Width
	for _, w := range input.Widgets {
		width = math.Max(width, w.Rect().Right())
	}
	height := math.Max(input.ContentHeight, input.Bounds.Height)
	return clampDimension(width, 1280), clampDimension(height, 720)
}

func clampDimension(v float64, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return int(math.Ceil(v)) + 32
}
