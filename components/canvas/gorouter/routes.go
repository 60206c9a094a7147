package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	router "github.com/goliatone/go-router"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	"github.com/goliatone/go-canvas/components/canvas/commands"
	"github.com/goliatone/go-canvas/components/canvas/httpapi"
	"github.com/goliatone/go-canvas/components/canvas/queries"
)

var errMissingUser = fmt.Errorf("gorouter: %w", canvas.ErrMissingUser)

// UserResolver extracts the authenticated user id from a router.Context.
type UserResolver func(router.Context) string

// Config wires go-router with the canvas controller, API and event hook.
type Config[T any] struct {
	Router       router.Router[T]
	Controller   *canvas.Controller
	API          httpapi.Executor
	Broadcast    *canvas.BroadcastHook
	UserResolver UserResolver
	BasePath     string
	Routes       RouteConfig
}

// RouteConfig customizes the relative paths used for canvas endpoints.
type RouteConfig struct {
	HTML       string
	Layout     string
	Session    string
	Library    string
	Refresh    string
	Drop       string
	TextBox    string
	Logo       string
	WidgetID   string
	Move       string
	Resize     string
	Edit       string
	Save       string
	Clear      string
	Background string
	Surface    string
	StyleMenu  string
	ExportHTML string
	ExportPNG  string
	WebSocket  string
}

// Register mounts canvas routes (HTML, JSON, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := cfg.routes()
	base := cfg.BasePath
	if base == "" {
		base = "/app"
	}
	resolver := cfg.UserResolver
	if resolver == nil {
		resolver = defaultUserResolver
	}

	group := cfg.Router.Group(base)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		user := resolver(ctx)
		if user == "" {
			return respondError(ctx, errMissingUser)
		}
		var buf bytes.Buffer
		if err := cfg.Controller.RenderTemplate(ctx.Context(), user, &buf); err != nil {
			return respondError(ctx, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	group.Get(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		user := resolver(ctx)
		if user == "" {
			return respondError(ctx, errMissingUser)
		}
		payload, err := cfg.Controller.Payload(ctx.Context(), user)
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, payload)
	}))

	if cfg.API != nil {
		registerAPI(group, cfg.API, resolver, routes)
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	return nil
}

// mutation decodes the body into T, runs the call and answers with the
// refreshed snapshot.
func mutation[T any](api httpapi.Executor, resolver UserResolver, status int, run func(ctx router.Context, user string, payload *T) error) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		user := resolver(ctx)
		if user == "" {
			return respondError(ctx, errMissingUser)
		}
		var payload T
		if body := ctx.Body(); len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
		}
		if err := run(ctx, user, &payload); err != nil {
			return respondError(ctx, err)
		}
		snapshot, err := api.Snapshot(ctx.Context(), queries.UserInput{UserID: user})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(status, snapshot)
	})
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, resolver UserResolver, routes RouteConfig) {
	r.Post(routes.Session, mutation(api, resolver, http.StatusOK, func(ctx router.Context, user string, p *canvas.StartSessionRequest) error {
		p.UserID = user
		return api.StartSession(ctx.Context(), *p)
	}))

	r.Delete(routes.Session, router.WrapHandler(func(ctx router.Context) error {
		user := resolver(ctx)
		if user == "" {
			return respondError(ctx, errMissingUser)
		}
		if err := api.EndSession(ctx.Context(), commands.EndSessionInput{UserID: user}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ended"})
	}))

	r.Get(routes.Library, router.WrapHandler(func(ctx router.Context) error {
		user := resolver(ctx)
		if user == "" {
			return respondError(ctx, errMissingUser)
		}
		lib, err := api.Library(ctx.Context(), queries.UserInput{UserID: user})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, lib)
	}))

	r.Post(routes.Refresh, router.WrapHandler(func(ctx router.Context) error {
		user := resolver(ctx)
		if user == "" {
			return respondError(ctx, errMissingUser)
		}
		status := http.StatusOK
		if err := api.RefreshLibrary(ctx.Context(), commands.RefreshLibraryInput{UserID: user}); err != nil {
			status = http.StatusBadGateway
		}
		lib, err := api.Library(ctx.Context(), queries.UserInput{UserID: user})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(status, lib)
	}))

	r.Post(routes.Drop, mutation(api, resolver, http.StatusCreated, func(ctx router.Context, user string, p *canvas.DropRequest) error {
		p.UserID = user
		return api.Drop(ctx.Context(), *p)
	}))

	r.Post(routes.TextBox, mutation(api, resolver, http.StatusCreated, func(ctx router.Context, user string, p *canvas.AddTextBoxRequest) error {
		p.UserID = user
		return api.AddTextBox(ctx.Context(), *p)
	}))

	r.Post(routes.Logo, mutation(api, resolver, http.StatusCreated, func(ctx router.Context, user string, p *canvas.AddLogoRequest) error {
		p.UserID = user
		return api.AddLogo(ctx.Context(), *p)
	}))

	r.Patch(routes.WidgetID, mutation(api, resolver, http.StatusOK, func(ctx router.Context, user string, p *canvas.WidgetPatch) error {
		return api.UpdateWidget(ctx.Context(), canvas.UpdateWidgetRequest{UserID: user, InstanceID: ctx.Param("id"), Patch: *p})
	}))

	r.Delete(routes.WidgetID, mutation(api, resolver, http.StatusOK, func(ctx router.Context, user string, _ *struct{}) error {
		return api.RemoveWidget(ctx.Context(), canvas.RemoveWidgetRequest{UserID: user, InstanceID: ctx.Param("id")})
	}))

	r.Post(routes.Move, mutation(api, resolver, http.StatusOK, func(ctx router.Context, user string, p *canvas.GestureRequest) error {
		p.UserID, p.InstanceID = user, ctx.Param("id")
		return api.MoveWidget(ctx.Context(), *p)
	}))

	r.Post(routes.Resize, mutation(api, resolver, http.StatusOK, func(ctx router.Context, user string, p *canvas.GestureRequest) error {
		p.UserID, p.InstanceID = user, ctx.Param("id")
		return api.ResizeWidget(ctx.Context(), *p)
	}))

	r.Post(routes.Edit, mutation(api, resolver, http.StatusOK, func(ctx router.Context, user string, p *canvas.EditTextBoxRequest) error {
		p.UserID, p.InstanceID = user, ctx.Param("id")
		return api.EditTextBox(ctx.Context(), *p)
	}))

	r.Post(routes.Save, mutation(api, resolver, http.StatusOK, func(ctx router.Context, user string, _ *struct{}) error {
		return api.SaveLayout(ctx.Context(), commands.SaveLayoutInput{UserID: user})
	}))

	r.Post(routes.Clear, mutation(api, resolver, http.StatusOK, func(ctx router.Context, user string, p *commands.ClearLayoutInput) error {
		p.UserID = user
		return api.ClearLayout(ctx.Context(), *p)
	}))

	r.Put(routes.Background, mutation(api, resolver, http.StatusOK, func(ctx router.Context, user string, p *canvas.SetBackgroundRequest) error {
		p.UserID = user
		return api.SetBackground(ctx.Context(), *p)
	}))

	r.Put(routes.Surface, mutation(api, resolver, http.StatusOK, func(ctx router.Context, user string, p *canvas.SurfaceGeometry) error {
		return api.SetSurface(ctx.Context(), canvas.SetSurfaceRequest{UserID: user, Geometry: *p})
	}))

	r.Get(routes.StyleMenu, router.WrapHandler(func(ctx router.Context) error {
		menu, err := api.StyleMenu(ctx.Context(), queries.StyleMenuInput{Kind: canvas.WidgetKind(ctx.Param("kind"))})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, menu)
	}))

	r.Get(routes.ExportHTML, exportHandler(resolver, api.ExportDocument))
	r.Get(routes.ExportPNG, exportHandler(resolver, api.ExportImage))
}

type exportFunc func(ctx context.Context, input queries.UserInput) (*canvas.Artifact, error)

func exportHandler(resolver UserResolver, export exportFunc) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		user := resolver(ctx)
		if user == "" {
			return respondError(ctx, errMissingUser)
		}
		artifact, err := export(ctx.Context(), queries.UserInput{UserID: user})
		if err != nil {
			return respondError(ctx, err)
		}
		ctx.SetHeader("Content-Type", artifact.ContentType)
		ctx.SetHeader("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(artifact.Filename)))
		return ctx.Send(artifact.Data)
	})
}

func registerWebSocket[T any](r router.Router[T], hook *canvas.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		user, _ := ws.Locals("user_id").(string)
		if user == "" {
			user = ws.Query("user")
		}
		err := streamEvents(ws.Context(), hook, user, func(v any) error { return ws.WriteJSON(v) })
		if closeErr := ws.Close(); err == nil {
			err = closeErr
		}
		return err
	})
}

// streamEvents forwards the user's events to write until ctx ends. A socket
// without a user gets a single error frame and no events.
func streamEvents(ctx context.Context, hook *canvas.BroadcastHook, user string, write func(any) error) error {
	if user == "" {
		_ = write(map[string]string{"error": errMissingUser.Error()})
		return errMissingUser
	}
	events, cancel := hook.Subscribe(user)
	defer cancel()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := write(event); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func defaultUserResolver(ctx router.Context) string {
	if v, ok := ctx.Locals("user_id").(string); ok && v != "" {
		return v
	}
	return ctx.Header(canvas.UserHeader)
}

func respondError(ctx router.Context, err error) error {
	return ctx.JSON(httpapi.StatusFor(err), map[string]string{"error": err.Error()})
}

func (cfg Config[T]) routes() RouteConfig {
	return defaultRouteConfig(cfg.Routes)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	set := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	set(&routes.HTML, "/canvas")
	set(&routes.Layout, "/canvas/_layout")
	set(&routes.Session, "/canvas/session")
	set(&routes.Library, "/canvas/library")
	set(&routes.Refresh, "/canvas/library/refresh")
	set(&routes.Drop, "/canvas/widgets/drop")
	set(&routes.TextBox, "/canvas/widgets/textbox")
	set(&routes.Logo, "/canvas/widgets/logo")
	set(&routes.WidgetID, "/canvas/widgets/:id")
	set(&routes.Move, "/canvas/widgets/:id/move")
	set(&routes.Resize, "/canvas/widgets/:id/resize")
	set(&routes.Edit, "/canvas/widgets/:id/edit")
	set(&routes.Save, "/canvas/layout/save")
	set(&routes.Clear, "/canvas/layout/clear")
	set(&routes.Background, "/canvas/background")
	set(&routes.Surface, "/canvas/surface")
	set(&routes.StyleMenu, "/canvas/style-menu/:kind")
	set(&routes.ExportHTML, "/canvas/export/dashboard.html")
	set(&routes.ExportPNG, "/canvas/export/dashboard.png")
	set(&routes.WebSocket, "/canvas/ws")
	return routes
}
