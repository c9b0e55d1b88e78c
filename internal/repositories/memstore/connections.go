package memstore

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/repositories"
	"github.com/google/uuid"
)

type PlatformConnections struct {
	s *Store
}

func (r *PlatformConnections) find(userID uuid.UUID, platform string) (models.PlatformConnection, bool) {
	for _, p := range r.s.conns {
		if p.User == userID && p.Platform == platform {
			return p, true
		}
	}
	return models.PlatformConnection{}, false
}

func (r *PlatformConnections) Upsert(_ context.Context, p *models.PlatformConnection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	if cur, ok := r.find(p.User, p.Platform); ok {
		p.ID = cur.ID
		p.CreatedAt = cur.CreatedAt
		if p.RefreshToken == nil {
			p.RefreshToken = cur.RefreshToken
		}
	} else {
		p.ID = uuid.New()
		p.CreatedAt = now
	}
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	p.UpdatedAt = now
	stored := *p
	stored.Metadata = maps.Clone(p.Metadata)
	r.s.conns[p.ID] = stored
	return nil
}

func (r *PlatformConnections) Get(_ context.Context, userID uuid.UUID, platform string) (*models.PlatformConnection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.find(userID, platform)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (r *PlatformConnections) ListByUser(_ context.Context, userID uuid.UUID) ([]models.PlatformConnection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.PlatformConnection{}
	for _, p := range r.s.conns {
		if p.User == userID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.PlatformConnection) int { return strings.Compare(a.Platform, b.Platform) })
	return out, nil
}

func (r *PlatformConnections) SetStatus(_ context.Context, userID uuid.UUID, platform, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.find(userID, platform)
	if !ok {
		return repositories.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = r.s.now()
	r.s.conns[p.ID] = p
	return nil
}

func (r *PlatformConnections) UpdateAccessToken(_ context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.conns[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.AccessToken = token
	p.ExpiresAt = &expiresAt
	p.Status = models.ConnectionStatusActive
	p.UpdatedAt = r.s.now()
	r.s.conns[id] = p
	return nil
}

func (r *PlatformConnections) ExpireStale(_ context.Context, now time.Time, skip []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, p := range r.s.conns {
		if !p.IsActive() || p.ExpiresAt == nil || !p.ExpiresAt.Before(now) || slices.Contains(skip, p.Platform) {
			continue
		}
		p.Status = models.ConnectionStatusExpired
		p.UpdatedAt = r.s.now()
		r.s.conns[id] = p
		n++
	}
	return n, nil
}

// Len reports the number of stored connections.
func (r *PlatformConnections) Len() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.conns)
}
