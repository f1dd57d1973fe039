// Package notification defines the collaborator the editor core uses to
// surface save and validation outcomes to the operator.
package notification

import (
	"context"
	"log/slog"
	"sync"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notifier surfaces a message to the user.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, message string)
}

// SlogNotifier reports notifications through the structured logger. It is the
// default sink for headless contexts (tests, CLI tools).
type SlogNotifier struct {
	logger *slog.Logger
}

func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger}
}

func (n *SlogNotifier) Notify(ctx context.Context, kind Kind, message string) {
	if kind == KindError {
		n.logger.ErrorContext(ctx, "notification", "kind", kind, "message", message)

		return
	}

	n.logger.InfoContext(ctx, "notification", "kind", kind, "message", message)
}

// Multi fans a notification out to several sinks.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, kind Kind, message string) {
	for _, notifier := range m {
		notifier.Notify(ctx, kind, message)
	}
}

// Entry is one recorded notification.
type Entry struct {
	Kind    Kind
	Message string
}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, Entry{Kind: kind, Message: message})
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Entry(nil), r.entries...)
}
