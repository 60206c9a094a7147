package canvas

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savedGraph() Widget {
	entry := revenueEntry()
	return Widget{
		InstanceID: "g1",
		Kind:       KindGraph,
		Position:   Position{X: 50, Y: 0},
		Size:       Size{Width: 400, Height: 300},
		Style:      &WidgetStyle{BackgroundColor: "#ffffff", BackgroundOpacity: 1},
		Chart:      &entry,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	notices := NewNoticeRecorder()
	persister := NewPersister(store, notices, nil)

	widgets := []Widget{savedGraph(), textBox("t1", "**Notes**")}
	require.NoError(t, persister.Save(ctx, "u1", widgets))

	raw, ok, err := store.Get(ctx, "dashboard-layout-u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"instanceId":"g1"`)

	loaded := persister.Load(ctx, "u1")
	require.Len(t, loaded, 2)
	assert.Equal(t, widgets, loaded)
	assert.Equal(t, "Q3 Revenue", loaded[0].Chart.Name)

	last, ok := notices.Last("u1")
	require.True(t, ok)
	assert.Equal(t, NoticeSuccess, last.Level)
}

func TestSaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	persister := NewPersister(store, nil, nil)
	widgets := []Widget{savedGraph()}

	require.NoError(t, persister.Save(ctx, "u1", widgets))
	first, _, _ := store.Get(ctx, LayoutKey("u1"))
	require.NoError(t, persister.Save(ctx, "u1", widgets))
	second, _, _ := store.Get(ctx, LayoutKey("u1"))

	assert.Equal(t, first, second)
}

func TestSaveFailureNotifies(t *testing.T) {
	notices := NewNoticeRecorder()
	store := &failingStore{MemoryStore: NewMemoryStore(), putErr: errBoom}
	persister := NewPersister(store, notices, nil)

	err := persister.Save(context.Background(), "u1", []Widget{savedGraph()})
	require.ErrorIs(t, err, errBoom)

	last, ok := notices.Last("u1")
	require.True(t, ok)
	assert.Equal(t, NoticeError, last.Level)
	assert.Equal(t, CodeLayoutSaveFailed, last.Code)
}

func TestLoadMalformedYieldsEmptySilently(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":       `{invalid`,
		"object":         `{"widgets":[]}`,
		"missing size":   `[{"instanceId":"a","kind":"textbox","position":{"x":0,"y":0}}]`,
		"unknown kind":   `[{"instanceId":"a","kind":"video","position":{"x":0,"y":0},"size":{"width":10,"height":10}}]`,
		"duplicate ids":  `[{"instanceId":"a","kind":"textbox","position":{"x":0,"y":0},"size":{"width":10,"height":10}},{"instanceId":"a","kind":"textbox","position":{"x":0,"y":0},"size":{"width":10,"height":10}}]`,
		"zero width box": `[{"instanceId":"a","kind":"textbox","position":{"x":0,"y":0},"size":{"width":0,"height":10}}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			store := NewMemoryStore()
			require.NoError(t, store.Put(ctx, LayoutKey("u1"), []byte(doc)))
			notices := NewNoticeRecorder()
			persister := NewPersister(store, notices, nil)

			assert.Empty(t, persister.Load(ctx, "u1"))
			assert.Empty(t, notices.Notices("u1"))
		})
	}

	persister := NewPersister(NewMemoryStore(), nil, nil)
	assert.Empty(t, persister.Load(ctx, "nobody"))
}

func TestClearRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	persister := NewPersister(store, nil, nil)
	layout := NewLayout()
	require.NoError(t, layout.Add(savedGraph()))
	require.NoError(t, persister.Save(ctx, "u1", layout.Widgets()))

	err := persister.Clear(ctx, "u1", layout, Confirmed(false))
	require.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, 1, layout.Len())
	_, ok, _ := store.Get(ctx, LayoutKey("u1"))
	assert.True(t, ok)

	var prompt string
	confirm := ConfirmFunc(func(_ context.Context, p string) bool {
		prompt = p
		return true
	})
	require.NoError(t, persister.Clear(ctx, "u1", layout, confirm))
	assert.Equal(t, ClearPrompt, prompt)
	assert.Zero(t, layout.Len())
	_, ok, _ = store.Get(ctx, LayoutKey("u1"))
	assert.False(t, ok)
	assert.Empty(t, persister.Load(ctx, "u1"))
}

func TestClearKeepsLayoutWhenDeleteFails(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: NewMemoryStore(), deleteErr: errors.New("read-only")}
	notices := NewNoticeRecorder()
	persister := NewPersister(store, notices, nil)
	layout := NewLayout()
	require.NoError(t, layout.Add(savedGraph()))
	require.NoError(t, persister.Save(ctx, "u1", layout.Widgets()))

	err := persister.Clear(ctx, "u1", layout, Confirmed(true))
	require.Error(t, err)
	assert.Equal(t, 1, layout.Len())
	assert.Len(t, persister.Load(ctx, "u1"), 1)
	last, ok := notices.Last("u1")
	require.True(t, ok)
	assert.Equal(t, CodeLayoutSaveFailed, last.Code)
}
