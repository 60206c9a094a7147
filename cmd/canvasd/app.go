package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	"github.com/goliatone/go-canvas/components/canvas/gorouter"
	"github.com/goliatone/go-canvas/components/canvas/httpapi"
	"github.com/goliatone/go-canvas/components/canvas/rasterchrome"
	"github.com/goliatone/go-canvas/components/canvas/stores/mongostore"
	"github.com/goliatone/go-canvas/components/canvas/stores/sqlitestore"
	"github.com/goliatone/go-canvas/pkg/chartsource"
	"github.com/goliatone/go-canvas/pkg/config"
)

// app holds the wired canvas service and the resources it owns.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	service    *canvas.Service
	controller *canvas.Controller
	executor   *httpapi.CommandExecutor
	broadcast  *canvas.BroadcastHook
	closers    []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &app{cfg: cfg, logger: logger, broadcast: canvas.NewBroadcastHook()}
	telemetry := canvas.NewZapTelemetry(logger.Named("canvas"))

	store, err := a.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	source, err := a.buildChartSource()
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	renderer, err := canvas.NewTemplateRenderer()
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.service = canvas.NewService(canvas.Options{
		ChartSource: source,
		Store:       store,
		Notifier:    canvas.MultiNotifier{a.broadcast, noticeLogger(logger)},
		Hook:        a.broadcast,
		Telemetry:   telemetry,
		Renderer:    renderer,
		Rasterizer:  a.buildRasterizer(telemetry),
		Content:     canvas.NewRendererRegistry(a.buildChartRenderer()),
		SessionTTL:  cfg.Server.SessionTTL,
	})
	a.controller = canvas.NewController(canvas.ControllerOptions{
		Service:  a.service,
		Renderer: renderer,
		Title:    cfg.Server.Title,
	})
	a.executor = httpapi.NewCommandExecutor(a.service, telemetry)
	return a, nil
}

// noticeLogger records user-facing notices; errors and warnings are logged
// at warn level.
func noticeLogger(logger *zap.Logger) canvas.Notifier {
	return canvas.NotifierFunc(func(_ context.Context, userID string, notice canvas.Notice) {
		fields := []zap.Field{
			zap.String("user_id", userID),
			zap.String("level", string(notice.Level)),
			zap.String("message", notice.Message),
		}
		if notice.Code != "" {
			fields = append(fields, zap.String("code", notice.Code))
		}
		if notice.Level == canvas.NoticeError || notice.Level == canvas.NoticeWarning {
			logger.Warn("canvas notice", fields...)
			return
		}
		logger.Debug("canvas notice", fields...)
	})
}

func (a *app) buildStore(ctx context.Context) (canvas.LayoutStore, error) {
	switch a.cfg.Store.Driver {
	case "sqlite":
		store, err := sqlitestore.Open(a.cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		return store, nil
	case "mongo":
		store, client, err := mongostore.Connect(ctx, a.cfg.Store.MongoURI, a.cfg.Store.MongoDatabase, a.cfg.Store.MongoCollection)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, disconnect(client))
		return store, nil
	default:
		return canvas.NewMemoryStore(), nil
	}
}

func disconnect(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error { return client.Disconnect(ctx) }
}

func (a *app) buildChartSource() (canvas.ChartSource, error) {
	if a.cfg.Charts.Source != "http" {
		return chartsource.NewMockClient(chartsource.DemoCharts()), nil
	}
	return chartsource.NewHTTPClient(chartsource.HTTPConfig{
		BaseURL:      a.cfg.Charts.BaseURL,
		Token:        a.cfg.Charts.Token,
		PathTemplate: a.cfg.Charts.PathTemplate,
		HTTPClient:   &http.Client{Timeout: a.cfg.Charts.Timeout},
		Breaker: chartsource.BreakerConfig{
			MaxFailures: a.cfg.Charts.Breaker.MaxFailures,
			Timeout:     a.cfg.Charts.Breaker.OpenTimeout,
			Interval:    a.cfg.Charts.Breaker.Interval,
		},
		Logger: a.logger.Named("chartsource"),
	})
}

func (a *app) buildChartRenderer() *canvas.ChartRenderer {
	var opts []canvas.ChartRendererOption
	if a.cfg.Export.ChartTheme != "" {
		opts = append(opts, canvas.WithChartTheme(a.cfg.Export.ChartTheme))
	}
	if a.cfg.Export.AssetsHost != "" {
		opts = append(opts, canvas.WithChartAssetsHost(a.cfg.Export.AssetsHost))
	}
	return canvas.NewChartRenderer(opts...)
}

func (a *app) buildRasterizer(telemetry canvas.Telemetry) canvas.Rasterizer {
	fallback := canvas.NewGGRasterizer(telemetry)
	if a.cfg.Export.Rasterizer != "chrome" {
		return fallback
	}
	return rasterchrome.New(rasterchrome.Config{
		RemoteURL: a.cfg.Export.ChromeURL,
		Headless:  true,
		Settle:    a.cfg.Export.ChromeSettle,
		Fallback:  fallback,
		Logger:    a.logger.Named("rasterchrome"),
	})
}

// registerGoRouter mounts the page, API and websocket on a go-router router.
func (a *app) registerGoRouter(r router.Router[*fiber.App]) error {
	return gorouter.Register(gorouter.Config[*fiber.App]{
		Router:       r,
		Controller:   a.controller,
		API:          a.executor,
		Broadcast:    a.broadcast,
		BasePath:     a.cfg.Server.BasePath,
		UserResolver: resolveRouterUser,
	})
}

func resolveRouterUser(ctx router.Context) string {
	if v, ok := ctx.Locals("user_id").(string); ok && v != "" {
		return v
	}
	if v := ctx.Header(canvas.UserHeader); v != "" {
		return v
	}
	return ctx.Query("user")
}

// chiHandler serves the page at the base path and the JSON API below /api.
func (a *app) chiHandler() http.Handler {
	base := strings.TrimSuffix(a.cfg.Server.BasePath, "/")
	if base == "" {
		base = "/"
	}
	handlers := &httpapi.Handlers{API: a.executor, Broadcast: a.broadcast}

	r := chi.NewRouter()
	r.Route(base, func(r chi.Router) {
		r.Get("/", a.handlePage)
		r.Mount("/api", handlers.Routes())
	})
	return r
}

func (a *app) handlePage(w http.ResponseWriter, r *http.Request) {
	user := canvas.RequestUserID(r)
	if user == "" {
		http.Error(w, "user id is required", http.StatusUnauthorized)
		return
	}
	var buf bytes.Buffer
	if err := a.controller.RenderTemplate(r.Context(), user, &buf); err != nil {
		a.logger.Error("render canvas page", zap.String("user_id", user), zap.Error(err))
		http.Error(w, err.Error(), httpapi.StatusFor(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// Close releases stores and clients in reverse order of acquisition.
// evictIdle drops idle canvas sessions until ctx is done.
func (a *app) evictIdle(ctx context.Context, every time.Duration) {
	if a.cfg.Server.SessionTTL <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.service.EvictIdle(ctx); n > 0 {
				a.logger.Debug("idle sessions evicted", zap.Int("count", n))
			}
		}
	}
}

func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("canvasd: close: %w", errors.Join(errs...))
	}
	return nil
}
