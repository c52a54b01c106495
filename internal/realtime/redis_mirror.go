package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	mirrorChannel  = "classroom:events"
	publishTimeout = 5 * time.Second
)

// mirrorPayload is the message published to Redis for external consumers.
type mirrorPayload struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

// EventMirror publishes every outbound broadcast onto a Redis channel so
// external consumers (dashboards, transcript recorders) can follow the
// session. Publish-only: the hub stays the sole delivery path to clients and
// in-process state remains authoritative.
type EventMirror struct {
	client *redis.Client
	logger *zap.Logger
}

// NewEventMirror creates a Redis event mirror.
func NewEventMirror(client *redis.Client, logger *zap.Logger) *EventMirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventMirror{client: client, logger: logger}
}

// Publish mirrors one broadcast event. Failures are logged and dropped; the
// session never blocks on the mirror.
func (m *EventMirror) Publish(event string, payload []byte) {
	body, err := json.Marshal(mirrorPayload{Event: event, Data: payload, At: time.Now().Unix()})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := m.client.Publish(ctx, mirrorChannel, body).Err(); err != nil {
		m.logger.Debug("mirror publish", zap.String("event", event), zap.Error(err))
	}
}
