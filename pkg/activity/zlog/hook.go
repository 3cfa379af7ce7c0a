// Package zlog bridges settings activity events to zerolog so lifecycle
// changes land on the host application's structured log.
package zlog

import (
	"context"

	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/rs/zerolog"
)

// Hook logs every activity event at info level.
type Hook struct {
	Logger zerolog.Logger
}

// New builds a Hook on top of logger.
func New(logger zerolog.Logger) Hook {
	return Hook{Logger: logger}
}

// Notify implements activity.Hook.
func (h Hook) Notify(_ context.Context, event activity.Event) error {
	entry := h.Logger.Info().
		Str("verb", event.Verb).
		Str("object_type", event.ObjectType).
		Str("object_id", event.ObjectID).
		Time("occurred_at", event.OccurredAt)
	if event.Channel != "" {
		entry = entry.Str("channel", event.Channel)
	}
	if event.ActorID != "" {
		entry = entry.Str("actor_id", event.ActorID)
	}
	if len(event.Metadata) > 0 {
		entry = entry.Interface("metadata", event.Metadata)
	}
	entry.Msg("settings activity")
	return nil
}
