package notifier

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/pkg/logger"
)

// EventSubject carries desk events between API instances.
const EventSubject = "uniwhats.events"

// envelope wraps an event with its origin so an instance skips its own
// publications when they come back around.
type envelope struct {
	Origin string       `json:"origin"`
	Event  *model.Event `json:"event"`
}

// Bridge mirrors broadcasts across API instances over core NATS subjects.
// Delivery is fire-and-forget, matching the notifier's own guarantees:
// no persistence, no replay for late subscribers.
type Bridge struct {
	conn     *nats.Conn
	local    *Notifier
	originID string
	logger   *logger.Logger
}

// Connect dials NATS and subscribes the local notifier to remote events.
func Connect(url, originID string, local *Notifier, log *logger.Logger) (*Bridge, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	b := &Bridge{conn: nc, local: local, originID: originID, logger: log}

	if _, err := nc.Subscribe(EventSubject, b.onRemote); err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return b, nil
}

func (b *Bridge) onRemote(msg *nats.Msg) {
	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		b.logger.Warn("malformed remote event", zap.Error(err))
		return
	}
	if env.Origin == b.originID || env.Event == nil {
		return
	}
	b.local.Broadcast(env.Event)
}

// Broadcast delivers locally and mirrors the event to peer instances.
// A publish failure is logged and swallowed; local observers already
// received the event.
func (b *Bridge) Broadcast(event *model.Event) {
	b.local.Broadcast(event)

	data, err := json.Marshal(envelope{Origin: b.originID, Event: event})
	if err != nil {
		b.logger.Warn("encode event", zap.Error(err))
		return
	}
	if err := b.conn.Publish(EventSubject, data); err != nil {
		b.logger.Warn("publish event", zap.Error(err))
	}
}

// IsConnected reports NATS connectivity for readiness checks.
func (b *Bridge) IsConnected() bool {
	return b.conn != nil && b.conn.IsConnected()
}

// Close drops the NATS connection.
func (b *Bridge) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}
