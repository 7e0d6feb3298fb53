package activitymap

import (
	"context"
	"strconv"
	"strings"
	"time"

	accounts "github.com/goliatone/go-accounts"
)

const (
	defaultChannel    = "accounts"
	defaultObjectType = "user"
	defaultActorID    = "anonymous"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel       string
	objectType    string
	actorFallback string
	now           func() time.Time
}

// Normalize converts an accounts.ActivityEvent into a generic normalized shape.
// Events without a user, such as a failed login for an unknown credential,
// are attributed to the actor fallback.
func Normalize(event accounts.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	userID := ""
	if event.UserID > 0 {
		userID = strconv.FormatInt(event.UserID, 10)
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = options.now()
	}

	return Normalized{
		ActorID:    firstNonEmpty(userID, options.actorFallback),
		Verb:       string(event.EventType),
		ObjectType: options.objectType,
		ObjectID:   userID,
		Channel:    options.channel,
		Metadata:   cloneMap(event.Metadata),
		OccurredAt: occurredAt.UTC(),
	}
}

// NewSink returns an activity sink that logs every event in its normalized
// shape at info level.
func NewSink(logger accounts.Logger, opts ...Option) accounts.ActivitySink {
	return accounts.ActivitySinkFunc(func(_ context.Context, event accounts.ActivityEvent) error {
		if logger == nil {
			return nil
		}
		n := Normalize(event, opts...)
		args := []any{
			"verb", n.Verb,
			"actor_id", n.ActorID,
			"object_type", n.ObjectType,
			"object_id", n.ObjectID,
			"channel", n.Channel,
			"occurred_at", n.OccurredAt.Format(time.RFC3339),
		}
		if len(n.Metadata) > 0 {
			args = append(args, "metadata", n.Metadata)
		}
		logger.Info("activity", args...)
		return nil
	})
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the default object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the actor id used when the event has no user.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithClock sets the clock used for events without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(opts *normalizeOptions) {
		if now != nil {
			opts.now = now
		}
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
		now:           time.Now,
	}
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
