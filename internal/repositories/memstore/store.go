// Package memstore provides in-memory implementations of the repositories,
// used by tests and by the API when no database is configured.
package memstore

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/query"
	"github.com/google/uuid"
)

// Store holds every collection behind one lock so cascades stay consistent.
type Store struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]models.User
	campaigns map[uuid.UUID]models.Campaign
	leads     map[uuid.UUID]models.Lead
	conns     map[uuid.UUID]models.PlatformConnection
	audit     []models.AuditLog
	last      time.Time
}

func New() *Store {
	return &Store{
		users:     map[uuid.UUID]models.User{},
		campaigns: map[uuid.UUID]models.Campaign{},
		leads:     map[uuid.UUID]models.Lead{},
		conns:     map[uuid.UUID]models.PlatformConnection{},
	}
}

// userExists reports whether an optional user reference resolves. Callers hold s.mu.
func (s *Store) userExists(id *uuid.UUID) bool {
	if id == nil {
		return true
	}
	_, ok := s.users[*id]
	return ok
}

func (s *Store) Users() *Users                             { return &Users{s: s} }
func (s *Store) Campaigns() *Campaigns                     { return &Campaigns{s: s} }
func (s *Store) Leads() *Leads                             { return &Leads{s: s} }
func (s *Store) PlatformConnections() *PlatformConnections { return &PlatformConnections{s: s} }
func (s *Store) Audit() *Audit                             { return &Audit{s: s} }

// now returns a strictly increasing timestamp. Callers hold mu.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// page filters, sorts and slices items the way the SQL stores do.
func page[T any](items []T, q query.ListQuery, get query.Getter[T], id func(T) uuid.UUID) ([]T, int64) {
	matched := make([]T, 0, len(items))
	for _, it := range items {
		if query.Match(q, it, get) {
			matched = append(matched, it)
		}
	}
	less := query.Less(q, get)
	slices.SortFunc(matched, func(a, b T) int {
		if r := less(a, b); r != 0 {
			return r
		}
		return cmp.Compare(id(a).String(), id(b).String())
	})

	total := int64(len(matched))
	start := min(q.Offset(), len(matched))
	end := min(start+q.Limit, len(matched))
	return matched[start:end], total
}

func byCreatedDesc[T any](items []T, created func(T) time.Time, id func(T) uuid.UUID) {
	slices.SortFunc(items, func(a, b T) int {
		if r := created(b).Compare(created(a)); r != 0 {
			return r
		}
		return cmp.Compare(id(a).String(), id(b).String())
	})
}
