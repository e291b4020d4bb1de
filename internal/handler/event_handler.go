package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/middleware"
	"github.com/noah-isme/gcc-pulse-api/pkg/events"
)

const eventPingInterval = 30 * time.Second

// EventSource hands out domain event subscriptions.
type EventSource interface {
	Subscribe() (<-chan events.Event, func())
}

// EventHandler streams domain events to reviewers over websockets.
type EventHandler struct {
	source EventSource
	logger zerolog.Logger
}

// NewEventHandler constructs an event stream handler.
func NewEventHandler(source EventSource, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		source: source,
		logger: logger.With().Str("component", "event_handler").Logger(),
	}
}

// Register wires the websocket upgrade under /events.
func (h *EventHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals(middleware.CorrelationLocal, middleware.GetCorrelationID(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.stream))
}

func (h *EventHandler) stream(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	correlationID, _ := conn.Locals(middleware.CorrelationLocal).(string)
	log := h.logger.With().Str("user_id", userID).Str("correlation_id", correlationID).Logger()
	filter := eventFilter(conn.Query("types"))

	updates, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()

	log.Info().Msg("event stream connected")
	defer log.Info().Msg("event stream disconnected")

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case event, ok := <-updates:
			if !ok {
				return
			}
			if len(filter) > 0 {
				if _, wanted := filter[event.Type]; !wanted {
					continue
				}
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Debug().Err(err).Msg("failed to write event")
				return
			}
		}
	}
}

func eventFilter(raw string) map[string]struct{} {
	filter := map[string]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			filter[trimmed] = struct{}{}
		}
	}
	return filter
}
