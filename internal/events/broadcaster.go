package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/platform-eight/commute-engine/pkg/game"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeChangeFound      EventType = "change.found"
	EventTypeChangeMissed     EventType = "change.missed"
	EventTypeXPChanged        EventType = "xp.changed"
	EventTypeLevelUp          EventType = "level.up"
	EventTypeDayAdvanced      EventType = "day.advanced"
	EventTypeSessionCompleted EventType = "session.completed"
	EventTypeSessionGameOver  EventType = "session.game_over"
)

// Event is the wire format published to presentation consumers. The engine
// never waits on them; animations, sound and thought bubbles all hang off
// this stream.
type Event struct {
	Type      EventType              `json:"type"`
	SessionID string                 `json:"session_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Broadcaster publishes game events to Redis Pub/Sub for distribution to
// renderers and effect systems
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishChangeFound publishes a change.found event
func (b *Broadcaster) PublishChangeFound(ctx context.Context, sessionID uuid.UUID, entityID string) error {
	return b.publishToSession(ctx, sessionID, Event{
		Type: EventTypeChangeFound,
		Data: map[string]interface{}{
			"entity_id": entityID,
		},
	})
}

// PublishChangeMissed publishes a change.missed event; the presentation layer
// runs its missed-highlight off this.
func (b *Broadcaster) PublishChangeMissed(ctx context.Context, sessionID uuid.UUID, entityID string) error {
	return b.publishToSession(ctx, sessionID, Event{
		Type: EventTypeChangeMissed,
		Data: map[string]interface{}{
			"entity_id": entityID,
		},
	})
}

// PublishXPChanged publishes an xp.changed event
func (b *Broadcaster) PublishXPChanged(ctx context.Context, sessionID uuid.UUID, delta int, a game.Awareness) error {
	return b.publishToSession(ctx, sessionID, Event{
		Type: EventTypeXPChanged,
		Data: map[string]interface{}{
			"delta": delta,
			"level": a.Level,
			"xp":    a.XP,
		},
	})
}

// PublishLevelUp publishes one phase of a level-up sequence
func (b *Broadcaster) PublishLevelUp(ctx context.Context, sessionID uuid.UUID, phase game.Phase, up game.LevelUp) error {
	return b.publishToSession(ctx, sessionID, Event{
		Type: EventTypeLevelUp,
		Data: map[string]interface{}{
			"phase": string(phase),
			"from":  up.From,
			"to":    up.To,
		},
	})
}

// PublishDayAdvanced publishes a day.advanced event
func (b *Broadcaster) PublishDayAdvanced(ctx context.Context, sessionID uuid.UUID, day int, changeLive bool) error {
	return b.publishToSession(ctx, sessionID, Event{
		Type: EventTypeDayAdvanced,
		Data: map[string]interface{}{
			"day":         day,
			"change_live": changeLive,
		},
	})
}

// PublishSessionCompleted publishes a session.completed event
func (b *Broadcaster) PublishSessionCompleted(ctx context.Context, sessionID uuid.UUID, stats game.Stats) error {
	return b.publishToSession(ctx, sessionID, Event{
		Type: EventTypeSessionCompleted,
		Data: map[string]interface{}{
			"days_ridden":   stats.DaysRidden,
			"changes_found": stats.ChangesFound,
		},
	})
}

// PublishSessionGameOver publishes a session.game_over event
func (b *Broadcaster) PublishSessionGameOver(ctx context.Context, sessionID uuid.UUID, stats game.Stats) error {
	return b.publishToSession(ctx, sessionID, Event{
		Type: EventTypeSessionGameOver,
		Data: map[string]interface{}{
			"days_ridden":    stats.DaysRidden,
			"changes_found":  stats.ChangesFound,
			"changes_missed": stats.ChangesMissed,
		},
	})
}

// ChannelFor returns the pub/sub channel name for a session.
func ChannelFor(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// publishToSession publishes an event to the session-specific channel
func (b *Broadcaster) publishToSession(ctx context.Context, sessionID uuid.UUID, event Event) error {
	event.SessionID = sessionID.String()
	channel := ChannelFor(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}
