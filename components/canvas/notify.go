package canvas

import (
	"context"
	"sync"
)

// NoticeLevel grades a user-facing notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message shown to the user.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
}

// Notifier delivers notices to a user.
type Notifier interface {
	Notify(ctx context.Context, userID string, notice Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, userID string, notice Notice)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, userID string, notice Notice) {
	f(ctx, userID, notice)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, Notice) {}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// Notice codes.
const (
	CodeLibraryRefreshing = "library.refreshing"
	CodeLibraryRefreshed  = "library.refreshed"
	CodeLibraryFailed     = "library.failed"
	CodeDuplicateChart    = "canvas.duplicate_chart"
	CodeLayoutSaved       = "layout.saved"
	CodeLayoutSaveFailed  = "layout.save_failed"
	CodeLayoutCleared     = "layout.cleared"
	CodeExportFailed      = "export.failed"
	CodeInvalidImage      = "logo.invalid_image"
)

// NoticeRecorder keeps every notice it receives. It is used by tests and by
// the CLI to print notices after a command.
type NoticeRecorder struct {
	mu      sync.Mutex
	notices map[string][]Notice
}

// NewNoticeRecorder builds an empty recorder.
func NewNoticeRecorder() *NoticeRecorder {
	return &NoticeRecorder{notices: map[string][]Notice{}}
}

// Notify stores notice.
func (r *NoticeRecorder) Notify(_ context.Context, userID string, notice Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices[userID] = append(r.notices[userID], notice)
}

// Notices returns a copy of the notices delivered to userID.
func (r *NoticeRecorder) Notices(userID string) []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices[userID]...)
}

// Last returns the most recent notice for userID.
func (r *NoticeRecorder) Last(userID string) (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.notices[userID]
	if len(list) == 0 {
		return Notice{}, false
	}
	return list[len(list)-1], true
}

// MultiNotifier fans a notice out to several notifiers.
type MultiNotifier []Notifier

// Notify delivers notice to every non-nil notifier.
func (m MultiNotifier) Notify(ctx context.Context, userID string, notice Notice) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, userID, notice)
		}
	}
}
