package canvas

import (
	"context"
	"sync"
)

// LibraryState is the indicator the chart library panel shows.
type LibraryState string

const (
	LibraryIdle    LibraryState = "idle"
	LibraryLoading LibraryState = "loading"
	LibraryEmpty   LibraryState = "empty"
	LibraryReady   LibraryState = "ready"
	LibraryFailed  LibraryState = "error"
)

// LibrarySnapshot is a read-only view of the library panel.
type LibrarySnapshot struct {
	State   LibraryState `json:"state"`
	Entries []ChartEntry `json:"entries"`
	Error   string       `json:"error,omitempty"`
}

// Library caches the chart entries of one user.
type Library struct {
	userID    string
	source    ChartSource
	notifier  Notifier
	telemetry Telemetry

	mu      sync.RWMutex
	entries []ChartEntry
	state   LibraryState
	lastErr string
}

// NewLibrary builds an empty library for userID.
func NewLibrary(userID string, source ChartSource, notifier Notifier, telemetry Telemetry) *Library {
	return &Library{
		userID:    userID,
		source:    source,
		notifier:  normalizeNotifier(notifier),
		telemetry: normalizeTelemetry(telemetry),
		state:     LibraryIdle,
	}
}

// Refresh replaces the cached entries with a fresh fetch. A failed fetch
// leaves the cache empty and is reported both as notice and error.
func (l *Library) Refresh(ctx context.Context) error {
	l.mu.Lock()
	l.state = LibraryLoading
	l.mu.Unlock()
	l.notifier.Notify(ctx, l.userID, Notice{Level: NoticeInfo, Message: "Refreshing…", Code: CodeLibraryRefreshing})

	var (
		entries []ChartEntry
		err     error
	)
	if l.source == nil {
		err = errNoChartSource
	} else {
		entries, err = l.source.FetchCharts(ctx, l.userID)
	}

	l.mu.Lock()
	if err != nil {
		l.entries = nil
		l.state = LibraryFailed
		l.lastErr = err.Error()
	} else {
		l.entries = make([]ChartEntry, len(entries))
		for i, entry := range entries {
			l.entries[i] = cloneChartEntry(entry)
		}
		l.lastErr = ""
		l.state = LibraryReady
		if len(entries) == 0 {
			l.state = LibraryEmpty
		}
	}
	l.mu.Unlock()

	if err != nil {
		l.telemetry.Record(ctx, "canvas.library.refresh_error", map[string]any{
			"user_id": l.userID,
			"error":   err.Error(),
		})
		l.notifier.Notify(ctx, l.userID, Notice{Level: NoticeError, Message: "Could not load charts: " + err.Error(), Code: CodeLibraryFailed})
		return err
	}
	l.telemetry.Record(ctx, "canvas.library.refreshed", map[string]any{
		"user_id": l.userID,
		"count":   len(entries),
	})
	l.notifier.Notify(ctx, l.userID, Notice{Level: NoticeSuccess, Message: "Refreshed", Code: CodeLibraryRefreshed})
	return nil
}

// State returns the panel indicator state.
func (l *Library) State() LibraryState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Loading reports whether a refresh is in flight.
func (l *Library) Loading() bool { return l.State() == LibraryLoading }

// Empty reports whether the library holds no entries.
func (l *Library) Empty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries) == 0
}

// Entries returns a copy of the cached entries in source order.
func (l *Library) Entries() []ChartEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ChartEntry, len(l.entries))
	for i, entry := range l.entries {
		out[i] = cloneChartEntry(entry)
	}
	return out
}

// Entry returns the drag payload for the entry with id.
func (l *Library) Entry(id string) (DragPayload, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, entry := range l.entries {
		if entry.ID == id {
			return DragPayload{Source: SourceChartLibrary, Entry: cloneChartEntry(entry)}, true
		}
	}
	return DragPayload{}, false
}

// Snapshot returns the panel state and entries together.
func (l *Library) Snapshot() LibrarySnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := make([]ChartEntry, len(l.entries))
	for i, entry := range l.entries {
		entries[i] = cloneChartEntry(entry)
	}
	return LibrarySnapshot{State: l.state, Entries: entries, Error: l.lastErr}
}
