package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/logger"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// eventsChannel is the single Redis channel carrying all domain events.
const eventsChannel = "scheduled:events"

// EventPublisher publishes domain events for the admin dashboard's live view.
type EventPublisher interface {
	Publish(ctx context.Context, eventType types.EventType, payload any) error
}

// EventSubscriber delivers published events until the context is cancelled.
type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan types.Event, error)
}

// RedisEventService implements EventPublisher and EventSubscriber over Redis
// Pub/Sub.
type RedisEventService struct {
	redisClient *redis.Client
	log         *zap.SugaredLogger
	metrics     *eventMetrics
}

var (
	_ EventPublisher  = (*RedisEventService)(nil)
	_ EventSubscriber = (*RedisEventService)(nil)
)

type eventMetrics struct {
	publishLatency prometheus.Histogram
	errorCount     prometheus.Counter
	eventCount     *prometheus.CounterVec
}

// Singleton pattern for metrics (avoid double registration in tests).
var (
	eventMetricsInstance *eventMetrics
	eventMetricsOnce     sync.Once
)

func initEventMetrics() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventMetricsInstance = &eventMetrics{
			publishLatency: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "scheduled_event_publish_duration_seconds",
				Help:    "Time taken to publish events",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			}),
			errorCount: promauto.NewCounter(prometheus.CounterOpts{
				Name: "scheduled_event_errors_total",
				Help: "Total number of event processing errors",
			}),
			eventCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "scheduled_events_published_total",
				Help: "Total number of events published",
			}, []string{"event_type"}),
		}
	})
	return eventMetricsInstance
}

// NewRedisEventService returns a new instance of RedisEventService.
func NewRedisEventService(redisClient *redis.Client) *RedisEventService {
	return &RedisEventService{
		redisClient: redisClient,
		log:         logger.GetLogger().Named("events"),
		metrics:     initEventMetrics(),
	}
}

// Publish serializes the payload into an event envelope and publishes it.
func (r *RedisEventService) Publish(ctx context.Context, eventType types.EventType, payload any) error {
	startTime := time.Now()
	defer func() {
		r.metrics.publishLatency.Observe(time.Since(startTime).Seconds())
	}()

	raw, err := json.Marshal(payload)
	if err != nil {
		r.metrics.errorCount.Inc()
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	event := types.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}

	data, err := json.Marshal(event)
	if err != nil {
		r.metrics.errorCount.Inc()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	r.metrics.eventCount.WithLabelValues(string(event.Type)).Inc()

	r.log.Debugw("Publishing event",
		"channel", eventsChannel,
		"eventType", event.Type,
		"eventID", event.ID,
		"payloadSize", len(data),
	)

	// Bounded so a slow Redis never stalls the request path.
	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.redisClient.Publish(publishCtx, eventsChannel, data).Err(); err != nil {
		r.metrics.errorCount.Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe opens a Pub/Sub subscription and forwards decoded events on the
// returned channel until ctx is cancelled. Undecodable messages are counted
// and skipped.
func (r *RedisEventService) Subscribe(ctx context.Context) (<-chan types.Event, error) {
	pubsub := r.redisClient.Subscribe(ctx, eventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	events := make(chan types.Event, 16)
	go func() {
		defer close(events)
		defer func() {
			if err := pubsub.Close(); err != nil {
				r.log.Warnw("Failed to close pubsub", "error", err)
			}
		}()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event types.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					r.metrics.errorCount.Inc()
					r.log.Warnw("Dropping undecodable event", "error", err)
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
