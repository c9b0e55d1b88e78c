package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Channel carries every application event.
const Channel = "campaign-manager:events"

// Event types
const (
	EventCampaignCreated        = "campaign_created"
	EventCampaignUpdated        = "campaign_updated"
	EventCampaignDeleted        = "campaign_deleted"
	EventCampaignPublished      = "campaign_published"
	EventCampaignMetricsSynced  = "campaign_metrics_synced"
	EventLeadCreated            = "lead_created"
	EventLeadUpdated            = "lead_updated"
	EventLeadDeleted            = "lead_deleted"
	EventPlatformConnected      = "platform_connected"
	EventPlatformDisconnected   = "platform_disconnected"
	EventPasswordResetRequested = "password_reset_requested"
)

type Event struct {
	Type string `json:"type"`
	// UserID is the user the event belongs to; realtime delivery is scoped to it.
	UserID  uuid.UUID      `json:"user_id"`
	Payload map[string]any `json:"payload"`
	At      time.Time      `json:"at"`
}

func New(eventType string, userID uuid.UUID, payload map[string]any) Event {
	return Event{Type: eventType, UserID: userID, Payload: payload, At: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
