package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID          uuid.UUID      `json:"id"`
	ActorUserID *uuid.UUID     `json:"actorUserId,omitempty"`
	ActorType   string         `json:"actorType"` // user/admin/system
	Action      string         `json:"action"`
	EntityType  string         `json:"entityType"`
	EntityID    *uuid.UUID     `json:"entityId,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	RequestID   string         `json:"requestId,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}
