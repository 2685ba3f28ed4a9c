// Package observability carries per-request timing without global state.
package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

type ctxKey struct{}

// Scope collects labelled durations for one request or job. Two timers with
// the same label overwrite each other only inside this scope.
type Scope struct {
	logger *slog.Logger
	hub    *sentry.Hub

	mu      sync.Mutex
	timings map[string]time.Duration
}

func NewScope(logger *slog.Logger, hub *sentry.Hub) *Scope {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scope{
		logger:  logger,
		hub:     hub,
		timings: make(map[string]time.Duration),
	}
}

func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the scope bound to ctx, or a detached one.
func FromContext(ctx context.Context) *Scope {
	if s, ok := ctx.Value(ctxKey{}).(*Scope); ok && s != nil {
		return s
	}
	return NewScope(nil, nil)
}

func (s *Scope) Logger() *slog.Logger {
	return s.logger
}

// Time starts a timer for label and returns the function that stops it.
func (s *Scope) Time(ctx context.Context, label string) func() {
	var span *sentry.Span
	if s.hub != nil {
		span = sentry.StartSpan(sentry.SetHubOnContext(ctx, s.hub), label)
	}
	start := time.Now()

	return func() {
		elapsed := time.Since(start)
		if span != nil {
			span.Finish()
		}
		s.mu.Lock()
		s.timings[label] = elapsed
		s.mu.Unlock()
		s.logger.Debug("operation timed", "action", label, "latency_ms", float64(elapsed.Microseconds())/1000)
	}
}

func (s *Scope) Timings() map[string]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Duration, len(s.timings))
	for k, v := range s.timings {
		out[k] = v
	}
	return out
}
