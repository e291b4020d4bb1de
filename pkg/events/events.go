package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Domain event types.
const (
	TypeCandidateAnalyzed   = "candidate.analyzed"
	TypeAssessmentEvaluated = "assessment.evaluated"
)

const defaultSubjectPrefix = "gcc_pulse.events"

var (
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gcc_pulse_events_published_total",
		Help: "Domain events published by type",
	}, []string{"type"})

	droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gcc_pulse_events_dropped_total",
		Help: "Events dropped because a subscriber buffer was full",
	})

	subscribersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gcc_pulse_event_subscribers",
		Help: "Number of live event subscribers",
	})
)

// Event is a domain event fanned out to subscribers.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Subject    string          `json:"subject"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Source     string          `json:"source"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, eventType, subject string, payload any) error
}

// Hub delivers events to local subscribers and, when connected, to NATS so
// other instances see them too.
type Hub struct {
	broker        *broker
	nats          *nats.Conn
	subjectPrefix string
	nodeID        string
	buffer        int
	logger        zerolog.Logger
	now           func() time.Time
}

// Config configures a Hub.
type Config struct {
	NATS          *nats.Conn
	SubjectPrefix string
	Buffer        int
	Logger        zerolog.Logger
}

// NewHub constructs an event hub. NATS is optional.
func NewHub(cfg Config) *Hub {
	prefix := strings.TrimSuffix(cfg.SubjectPrefix, ".")
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 32
	}

	return &Hub{
		broker:        newBroker(),
		nats:          cfg.NATS,
		subjectPrefix: prefix,
		nodeID:        uuid.NewString(),
		buffer:        buffer,
		logger:        cfg.Logger.With().Str("component", "event_hub").Logger(),
		now:           time.Now,
	}
}

// Start consumes events published by other instances until ctx is done.
func (h *Hub) Start(ctx context.Context) error {
	if h.nats == nil {
		return nil
	}

	sub, err := h.nats.Subscribe(h.subjectPrefix+".>", func(msg *nats.Msg) {
		h.handleRemote(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", h.subjectPrefix, err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			h.logger.Warn().Err(err).Msg("failed to drain event subscription")
		}
	}()
	return nil
}

// Publish implements Publisher. Local delivery always happens; a NATS failure
// is returned after it.
func (h *Hub) Publish(_ context.Context, eventType, subject string, payload any) error {
	if strings.TrimSpace(eventType) == "" {
		return errors.New("event type is required")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}

	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Subject:    subject,
		Payload:    raw,
		Source:     h.nodeID,
		OccurredAt: h.now().UTC(),
	}

	publishedTotal.WithLabelValues(eventType).Inc()
	h.broker.broadcast(event)

	if h.nats == nil {
		return nil
	}

	encoded, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := h.nats.Publish(h.subjectPrefix+"."+eventType, encoded); err != nil {
		return fmt.Errorf("publish %s to nats: %w", eventType, err)
	}
	return nil
}

// Subscribe registers a subscriber. The returned func unsubscribes and closes
// the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)
	h.broker.subscribe(ch)
	subscribersActive.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.broker.unsubscribe(ch)
			subscribersActive.Dec()
		})
	}
}

func (h *Hub) handleRemote(data []byte) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Warn().Err(err).Msg("invalid event payload")
		return
	}
	if event.Source == h.nodeID {
		return
	}
	h.broker.broadcast(event)
}

type broker struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

func newBroker() *broker {
	return &broker{subscribers: make(map[chan Event]struct{})}
}

func (b *broker) subscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

func (b *broker) unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *broker) broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			droppedTotal.Inc()
		}
	}
}

// Noop discards every event.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, string, string, any) error { return nil }
