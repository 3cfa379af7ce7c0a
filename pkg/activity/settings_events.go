package activity

import "time"

// EventInput describes the common fields for settings lifecycle events.
type EventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Metadata   map[string]any
	Root       string
	Path       string
	OldValue   any
	NewValue   any
	SnapshotID string
	OccurredAt time.Time
}

// BuildRootRegisteredEvent constructs an event for a root registration.
func BuildRootRegisteredEvent(input EventInput) Event {
	return buildSettingsEvent("settings.registered", "settings.root", input)
}

// BuildRootUnregisteredEvent constructs an event for a root removal.
func BuildRootUnregisteredEvent(input EventInput) Event {
	return buildSettingsEvent("settings.unregistered", "settings.root", input)
}

// BuildRootUpdatedEvent constructs an event for a raw tree mutation.
func BuildRootUpdatedEvent(input EventInput) Event {
	return buildSettingsEvent("settings.updated", "settings.root", input)
}

// BuildSnapshotLoadedEvent constructs an event for a persistence load.
func BuildSnapshotLoadedEvent(input EventInput) Event {
	return buildSettingsEvent("settings.loaded", "settings.snapshot", input)
}

// BuildSnapshotSavedEvent constructs an event for a persistence save.
func BuildSnapshotSavedEvent(input EventInput) Event {
	return buildSettingsEvent("settings.saved", "settings.snapshot", input)
}

// BuildOverrideCommittedEvent constructs an event describing an editor
// commit on one scalar path.
func BuildOverrideCommittedEvent(input EventInput) Event {
	return buildSettingsEvent("settings.committed", "settings.scalar", input)
}

func buildSettingsEvent(verb, objectType string, input EventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Path != "" {
		metadata = ensureMetadata(metadata)
		metadata["path"] = input.Path
	}
	if input.SnapshotID != "" {
		metadata = ensureMetadata(metadata)
		metadata["snapshot_id"] = input.SnapshotID
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}
	return Event{
		Verb:       verb,
		ActorID:    input.ActorID,
		UserID:     input.UserID,
		TenantID:   input.TenantID,
		ObjectType: objectType,
		ObjectID:   input.Root,
		Channel:    input.Channel,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return metadata
}
