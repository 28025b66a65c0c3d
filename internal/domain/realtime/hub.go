package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const userEventsChannel = "quiet_blocks:user_events"

var (
	wsConnectionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quietblocks",
		Subsystem: "realtime",
		Name:      "connections",
		Help:      "Open websocket connections on this instance.",
	})
	wsEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quietblocks",
		Subsystem: "realtime",
		Name:      "events_total",
		Help:      "Events written to local connection buffers, by result.",
	}, []string{"result"})
)

// RegisterMetrics registers hub metrics on reg
func RegisterMetrics(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{wsConnectionsGauge, wsEventsTotal} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				log.Warn().Err(err).Msg("failed to register realtime metric")
			}
		}
	}
}

// Event is what a connected owner receives
type Event struct {
	Type   string      `json:"type"`
	Data   interface{} `json:"data,omitempty"`
	SentAt time.Time   `json:"sent_at"`
}

type userEventMessage struct {
	UserID           string          `json:"user_id"`
	Payload          json.RawMessage `json:"payload"`
	SenderInstanceID string          `json:"sender_instance_id"`
}

// Connection represents a WebSocket connection
type Connection struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub keeps this instance's websocket connections per owner and fans events
// out to other instances through Redis Pub/Sub when Redis is configured
type Hub struct {
	connections map[uuid.UUID]map[*Connection]bool
	mu          sync.RWMutex

	redis  *redis.Client
	pubsub *redis.PubSub

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc

	instanceID         string
	publishUserEventFn func(ctx context.Context, channel string, payload []byte) error
}

// NewHub creates hub. redisClient may be nil for a single instance.
func NewHub(redisClient *redis.Client) *Hub {
	return NewHubWithInstanceID(redisClient, uuid.NewString())
}

// NewHubWithInstanceID creates hub with explicit instance identifier
func NewHubWithInstanceID(redisClient *redis.Client, instanceID string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[uuid.UUID]map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  instanceID,
	}

	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, userEventsChannel)
		h.publishUserEventFn = func(ctx context.Context, channel string, payload []byte) error {
			return redisClient.Publish(ctx, channel, payload).Err()
		}
	}

	return h
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.UserID] == nil {
				h.connections[conn.UserID] = make(map[*Connection]bool)
			}
			h.connections[conn.UserID][conn] = true
			h.mu.Unlock()
			wsConnectionsGauge.Inc()
			log.Debug().Str("user_id", conn.UserID.String()).Msg("User connected to WebSocket")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.connections[conn.UserID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					close(conn.Send)
					wsConnectionsGauge.Dec()
				}
				if len(conns) == 0 {
					delete(h.connections, conn.UserID)
				}
			}
			h.mu.Unlock()
			log.Debug().Str("user_id", conn.UserID.String()).Msg("User disconnected from WebSocket")
		}
	}
}

func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleUserEventPayload(msg.Payload)
		}
	}
}

func (h *Hub) handleUserEventPayload(payload string) {
	var event userEventMessage
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return
	}
	if event.SenderInstanceID == h.instanceID {
		return
	}
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return
	}
	h.sendLocal(userID, []byte(event.Payload))
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.ctx.Done():
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.ctx.Done():
	}
}

// Publish delivers an event to every connection of ownerID on any instance.
// Failures are logged and never returned.
func (h *Hub) Publish(ownerID uuid.UUID, eventType string, payload interface{}) {
	data, err := json.Marshal(Event{Type: eventType, Data: payload, SentAt: time.Now().UTC()})
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal realtime event")
		return
	}

	h.sendLocal(ownerID, data)

	if err := h.publishUserEvent(ownerID, data); err != nil {
		log.Warn().Err(err).Str("user_id", ownerID.String()).Msg("Redis publish failed")
	}
}

func (h *Hub) sendLocal(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections[userID] {
		select {
		case conn.Send <- data:
			wsEventsTotal.WithLabelValues("sent").Inc()
		default:
			// Buffer full
			wsEventsTotal.WithLabelValues("dropped").Inc()
			log.Warn().Str("user_id", userID.String()).Msg("WebSocket send buffer full")
		}
	}
}

func (h *Hub) publishUserEvent(userID uuid.UUID, data []byte) error {
	if h.publishUserEventFn == nil {
		return nil
	}

	payload, err := json.Marshal(userEventMessage{
		UserID:           userID.String(),
		Payload:          data,
		SenderInstanceID: h.instanceID,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(h.ctx, 2*time.Second)
	defer cancel()
	return h.publishUserEventFn(ctx, userEventsChannel, payload)
}

// ConnectionCount returns number of local connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.connections {
		total += len(conns)
	}
	return total
}

// Shutdown stops the hub
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}
