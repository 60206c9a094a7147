package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// BroadcastHook fans out canvas events and notices to in-process subscribers.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

type subscriber struct {
	userID string
	ch     chan Event
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{subs: make(map[int]subscriber)}
}

// CanvasUpdated satisfies EventHook. Slow subscribers drop events.
func (h *BroadcastHook) CanvasUpdated(_ context.Context, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.userID != "" && sub.userID != event.UserID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

// Notify satisfies Notifier by publishing the notice as an event.
func (h *BroadcastHook) Notify(ctx context.Context, userID string, notice Notice) {
	n := notice
	_ = h.CanvasUpdated(ctx, Event{UserID: userID, Reason: "notice", Notice: &n, At: time.Now().UTC()})
}

// Subscribe returns a channel of events for userID and a cancel func. An
// empty userID receives every user's events and is meant for in-process
// consumers; the HTTP streams require a user.
func (h *BroadcastHook) Subscribe(userID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, 16)
	h.subs[id] = subscriber{userID: userID, ch: ch}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

const streamPingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stream forwards the user's events to write until the request ends, the
// subscription closes or a write fails. ping runs when the stream is idle.
func (h *BroadcastHook) stream(r *http.Request, userID string, write func(Event) error, ping func() error) {
	events, cancel := h.Subscribe(userID)
	defer cancel()
	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := ping(); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok || write(event) != nil {
				return
			}
		}
	}
}

// ServeWebSocket upgrades the request and streams the user's events as JSON.
// Requests without a user are rejected before the upgrade.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := streamUser(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	h.stream(r, userID,
		func(event Event) error { return conn.WriteJSON(event) },
		func() error {
			return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		},
	)
}

// ServeSSE streams the user's events as Server-Sent Events named after the
// event reason.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	userID, ok := streamUser(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}
	flush()
	h.stream(r, userID,
		func(event Event) error {
			payload, err := json.Marshal(event)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Reason, payload); err != nil {
				return err
			}
			flush()
			return nil
		},
		func() error {
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return err
			}
			flush()
			return nil
		},
	)
}

func streamUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := RequestUserID(r)
	if userID == "" {
		http.Error(w, ErrMissingUser.Error(), http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// UserHeader carries the authenticated user id set by the host application.
const UserHeader = "X-User-ID"

// RequestUserID reads the user id from the request header or the "user" query parameter.
func RequestUserID(r *http.Request) string {
	if r == nil {
		return ""
	}
	if id := r.Header.Get(UserHeader); id != "" {
		return id
	}
	return r.URL.Query().Get("user")
}
