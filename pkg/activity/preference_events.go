package activity

import (
	"strings"
	"time"
)

// Verbs emitted for preference changes.
const (
	VerbPreferenceUpdated  = "preference.updated"
	VerbPreferenceCleared  = "preference.cleared"
	VerbPreferenceFallback = "preference.fallback"

	ObjectTypePreference = "preference"
)

// PreferenceEventInput describes the common fields for preference events.
type PreferenceEventInput struct {
	Key        string
	BindingID  string
	Codec      string
	Size       int
	Value      any
	Err        error
	Metadata   map[string]any
	Channel    string
	OccurredAt time.Time
}

// BuildPreferenceUpdatedEvent reports a record written under Key.
func BuildPreferenceUpdatedEvent(input PreferenceEventInput) Event {
	return buildPreferenceEvent(VerbPreferenceUpdated, input)
}

// BuildPreferenceClearedEvent reports a record removed from Key.
func BuildPreferenceClearedEvent(input PreferenceEventInput) Event {
	return buildPreferenceEvent(VerbPreferenceCleared, input)
}

// BuildPreferenceFallbackEvent reports a stored record that could not be
// used, so the fallback value was substituted.
func BuildPreferenceFallbackEvent(input PreferenceEventInput) Event {
	return buildPreferenceEvent(VerbPreferenceFallback, input)
}

func buildPreferenceEvent(verb string, input PreferenceEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.BindingID != "" {
		set("binding_id", input.BindingID)
	}
	if input.Codec != "" {
		set("codec", input.Codec)
	}
	if input.Size > 0 {
		set("size", input.Size)
	}
	if input.Value != nil {
		set("value", input.Value)
	}
	if input.Err != nil {
		set("error", input.Err.Error())
	}

	objectID := strings.TrimSpace(input.Key)
	if objectID == "" {
		objectID = ObjectTypePreference
	}

	return Event{
		Verb:       verb,
		ObjectType: ObjectTypePreference,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
