package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	"github.com/goliatone/go-canvas/components/canvas/rasterchrome"
	"github.com/goliatone/go-canvas/components/canvas/stores/sqlitestore"
	"github.com/goliatone/go-canvas/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestAppServesPageAndAPIOverChi(t *testing.T) {
	cfg := testConfig(t)
	a, err := newApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	handler := a.chiHandler()

	req := httptest.NewRequest(http.MethodGet, "/app/", nil)
	req.Header.Set(canvas.UserHeader, "u1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<title>Dashboard</title>")

	req = httptest.NewRequest(http.MethodPost, "/app/api/widgets/textbox", strings.NewReader(`{"userId":"u1"}`))
	req.Header.Set(canvas.UserHeader, "u1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/app/api/layout?user=u1", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot canvas.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, "u1", snapshot.UserID)
	require.Len(t, snapshot.Widgets, 1)
	assert.Equal(t, canvas.KindTextBox, snapshot.Widgets[0].Kind)
}

func TestAppPageRequiresUser(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t), nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.chiHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAppSQLiteStoreRegistersCloser(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "canvas.db")

	a, err := newApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, a.closers, 1)
	require.NoError(t, a.Close(context.Background()))
	assert.Empty(t, a.closers)
	assert.NoError(t, a.Close(context.Background()))
}

func TestAppChartSourceAndRasterizerSelection(t *testing.T) {
	cfg := testConfig(t)
	a := &app{cfg: cfg}

	raster := a.buildRasterizer(nil)
	_, isGG := raster.(*canvas.GGRasterizer)
	assert.True(t, isGG)

	cfg.Export.Rasterizer = "chrome"
	a = &app{cfg: cfg, logger: zap.NewNop()}
	_, isChrome := a.buildRasterizer(nil).(*rasterchrome.Rasterizer)
	assert.True(t, isChrome)

	cfg.Charts.Source = "http"
	_, err := a.buildChartSource()
	assert.Error(t, err, "http source without base url")

	cfg.Charts.BaseURL = "http://analysis.local"
	source, err := a.buildChartSource()
	require.NoError(t, err)
	assert.NotNil(t, source)
}

func TestMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	cmd := &migrateCmd{Path: path}
	require.NoError(t, cmd.Run(context.Background()))

	store, err := sqlitestore.Open(path)
	require.NoError(t, err)
	defer store.Close()
	_, ok, err := store.Get(context.Background(), canvas.LayoutKey("u1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoticeLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	notifier := noticeLogger(zap.New(core))

	notifier.Notify(context.Background(), "u1", canvas.Notice{Level: canvas.NoticeError, Message: "Save failed", Code: "save_failed"})
	notifier.Notify(context.Background(), "u1", canvas.Notice{Level: canvas.NoticeSuccess, Message: "Dashboard saved"})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "save_failed", entries[0].ContextMap()["code"])
	assert.Equal(t, zap.DebugLevel, entries[1].Level)
}
