package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

var (
	published = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Events published to the redis bus",
		},
		[]string{"type", "result"},
	)

	delivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_delivered_total",
			Help: "Events received from the redis bus and handed to a subscriber",
		},
		[]string{"type"},
	)
)

type RedisPublisher struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisPublisher(client *redis.Client, log *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log}
}

// Publish sends event on stream. A slow redis does not hold the request past
// publishTimeout.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.client.Publish(ctx, stream, data).Err(); err != nil {
		published.WithLabelValues(event.Type, "error").Inc()
		return err
	}
	published.WithLabelValues(event.Type, "ok").Inc()
	p.log.Debug("event published", zap.String("type", event.Type), zap.String("user_id", event.UserID.String()))
	return nil
}

type RedisSubscriber struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisSubscriber(client *redis.Client, log *zap.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, log: log}
}

// Subscribe waits for the subscription to be confirmed, then delivers events
// on a background goroutine until ctx is cancelled. A panicking handler is
// logged and does not stop delivery.
func (s *RedisSubscriber) Subscribe(ctx context.Context, stream string, handler func(Event)) error {
	pubsub := s.client.Subscribe(ctx, stream)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.log.Error("failed to unmarshal event", zap.String("stream", stream), zap.Error(err))
					continue
				}
				s.deliver(handler, event)
			}
		}
	}()

	return nil
}

func (s *RedisSubscriber) deliver(handler func(Event), event Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("event handler panicked", zap.String("type", event.Type), zap.Any("panic", r))
		}
	}()
	delivered.WithLabelValues(event.Type).Inc()
	handler(event)
}
