package handlers

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/campaign-manager/backend/internal/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// exclusiveWriter fails when two writes overlap.
type exclusiveWriter struct {
	active  atomic.Int32
	writes  atomic.Int32
	overlap atomic.Bool
}

func (w *exclusiveWriter) WriteMessage(int, []byte) error {
	if w.active.Add(1) > 1 {
		w.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	w.active.Add(-1)
	w.writes.Add(1)
	return nil
}

type brokenWriter struct{}

func (brokenWriter) WriteMessage(int, []byte) error { return errors.New("closed") }

func TestDeliverSerializesWritesPerConnection(t *testing.T) {
	hub := NewWSHub(nil, events.NewLocalBus(), zap.NewNop())
	user := uuid.New()
	w := &exclusiveWriter{}
	hub.register(user, w)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Deliver(events.New(events.EventLeadCreated, user, nil))
		}()
	}
	wg.Wait()

	assert.False(t, w.overlap.Load(), "concurrent writes reached one socket")
	assert.EqualValues(t, 20, w.writes.Load())
}

func TestDeliverRouting(t *testing.T) {
	hub := NewWSHub(nil, events.NewLocalBus(), zap.NewNop())
	owner, other := uuid.New(), uuid.New()
	w := &exclusiveWriter{}
	client := hub.register(owner, w)
	hub.register(owner, brokenWriter{})
	assert.Equal(t, 2, hub.Connections(owner))

	hub.Deliver(events.New(events.EventCampaignCreated, other, nil))
	hub.Deliver(events.New(events.EventPasswordResetRequested, owner, map[string]any{"reset_token": "x"}))
	hub.Deliver(events.New(events.EventCampaignCreated, uuid.Nil, nil))
	assert.Zero(t, w.writes.Load())

	hub.Deliver(events.New(events.EventCampaignCreated, owner, nil))
	assert.EqualValues(t, 1, w.writes.Load())

	hub.unregister(owner, client)
	assert.Equal(t, 1, hub.Connections(owner))
}
