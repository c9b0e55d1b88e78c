package memstore

import (
	"context"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/google/uuid"
)

type Audit struct {
	s *Store
}

func (r *Audit) Log(_ context.Context, entry models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entry.ID = uuid.New()
	entry.CreatedAt = r.s.now()
	r.s.audit = append(r.s.audit, entry)
	return nil
}

func (r *Audit) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID, limit int) ([]models.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out := []models.AuditLog{}
	for i := len(r.s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.s.audit[i]
		if e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}
