package canvas

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifications struct {
	channel string
	events  []Event
	err     error
}

func (r *recordingNotifications) PublishCanvasEvent(_ context.Context, channel string, event Event) error {
	r.channel = channel
	r.events = append(r.events, event)
	return r.err
}

func TestNotificationsHookPublishes(t *testing.T) {
	client := &recordingNotifications{}
	hook := &NotificationsHook{Client: client, Channel: "canvas"}

	require.NoError(t, hook.CanvasUpdated(context.Background(), Event{UserID: "u1", Reason: "save"}))
	assert.Equal(t, "canvas", client.channel)
	require.Len(t, client.events, 1)
	assert.Equal(t, "save", client.events[0].Reason)

	var empty *NotificationsHook
	assert.NoError(t, empty.CanvasUpdated(context.Background(), Event{}))
}

func TestMultiHookReturnsFirstError(t *testing.T) {
	errFirst := errors.New("first")
	failing := &recordingNotifications{err: errFirst}
	second := &recordingNotifications{err: errors.New("second")}
	ok := &recordingNotifications{}
	hooks := MultiHook{
		nil,
		&NotificationsHook{Client: failing},
		&NotificationsHook{Client: second},
		&NotificationsHook{Client: ok},
	}

	err := hooks.CanvasUpdated(context.Background(), Event{UserID: "u1", Reason: "drop"})
	assert.ErrorIs(t, err, errFirst)
	assert.Len(t, ok.events, 1, "later hooks still run")
}

func TestMultiNotifierFansOut(t *testing.T) {
	a, b := NewNoticeRecorder(), NewNoticeRecorder()
	MultiNotifier{a, nil, b}.Notify(context.Background(), "u1", Notice{Level: NoticeInfo, Message: "Refreshing…"})

	for _, rec := range []*NoticeRecorder{a, b} {
		notice, ok := rec.Last("u1")
		require.True(t, ok)
		assert.Equal(t, "Refreshing…", notice.Message)
	}
}
