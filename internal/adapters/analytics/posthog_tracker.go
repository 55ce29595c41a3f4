// Package analytics forwards product events to PostHog. A tracker without an
// API key silently drops events.
package analytics

import (
	"log/slog"

	"github.com/SscSPs/furniture_budget_engine/internal/core/ports/clients"
	"github.com/posthog/posthog-go"
)

type PosthogTracker struct {
	client posthog.Client
	logger *slog.Logger
}

var _ clients.EventTracker = (*PosthogTracker)(nil)

func NewPosthogTracker(apiKey, endpoint string, logger *slog.Logger) *PosthogTracker {
	if apiKey == "" {
		logger.Warn("Posthog API key is empty, event tracking disabled")
		return &PosthogTracker{logger: logger}
	}
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	if err != nil {
		logger.Error("Failed to initialize posthog client, event tracking disabled", slog.String("error", err.Error()))
		return &PosthogTracker{logger: logger}
	}
	logger.Info("Posthog event tracking enabled", slog.String("endpoint", endpoint))
	return &PosthogTracker{client: client, logger: logger}
}

func (t *PosthogTracker) IsEnabled() bool {
	return t.client != nil
}

func (t *PosthogTracker) Track(distinctID string, event string, properties map[string]any) {
	if t.client == nil {
		return
	}
	if err := t.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: properties,
	}); err != nil {
		t.logger.Warn("Failed to enqueue event", slog.String("event", event), slog.String("error", err.Error()))
	}
}

// Close flushes queued events.
func (t *PosthogTracker) Close() {
	if t.client == nil {
		return
	}
	if err := t.client.Close(); err != nil {
		t.logger.Warn("Failed to close posthog client", slog.String("error", err.Error()))
	}
}
