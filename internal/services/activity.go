package services

import (
	"context"
	"maps"

	"github.com/campaign-manager/backend/internal/events"
	"github.com/campaign-manager/backend/internal/logger"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// activity publishes an event and writes an audit entry for each change.
// Both are best effort: failures are logged and never fail the request.
type activity struct {
	publisher events.Publisher
	audit     AuditStore
	log       *zap.Logger
}

// secretMeta lists payload keys that go out on the event bus but are never
// written to the audit log.
var secretMeta = []string{"reset_token", "email"}

func auditMeta(action string, payload map[string]any) map[string]any {
	if action != events.EventPasswordResetRequested {
		return payload
	}
	meta := maps.Clone(payload)
	for _, k := range secretMeta {
		delete(meta, k)
	}
	return meta
}

func actorType(actor *models.User) string {
	switch {
	case actor == nil:
		return "system"
	case actor.IsAdmin():
		return "admin"
	default:
		return "user"
	}
}

// record notifies owner about action on an entity performed by actor.
func (a activity) record(ctx context.Context, actor *models.User, owner uuid.UUID, action, entityType string, entityID uuid.UUID, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload[entityType+"_id"] = entityID.String()

	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, events.Channel, events.New(action, owner, payload)); err != nil {
			a.log.Warn("failed to publish event", zap.String("type", action), zap.Error(err))
		}
	}

	if a.audit != nil {
		entry := models.AuditLog{
			ActorType:  actorType(actor),
			Action:     action,
			EntityType: entityType,
			EntityID:   &entityID,
			Meta:       auditMeta(action, payload),
			RequestID:  logger.RequestID(ctx),
		}
		if actor != nil {
			entry.ActorUserID = &actor.ID
		}
		if err := a.audit.Log(ctx, entry); err != nil {
			a.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		}
	}
}
