package notifier

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/pkg/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// errSlowConsumer marks an observer whose send buffer is full.
var errSlowConsumer = errors.New("slow consumer")

// WSObserver adapts a WebSocket connection to the Observer interface.
// Events are serialized once per delivery and pushed through a buffered
// channel drained by the write pump.
type WSObserver struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// NewWSObserver wraps an upgraded connection.
func NewWSObserver(conn *websocket.Conn) *WSObserver {
	return &WSObserver{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// Deliver queues the event for the write pump. A full buffer drops the
// event rather than blocking the broadcast.
func (o *WSObserver) Deliver(event *model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case o.send <- data:
		return nil
	case <-o.done:
		return errors.New("connection closed")
	default:
		return errSlowConsumer
	}
}

// Run services the connection until it drops, then unregisters the
// observer. It blocks and is meant to be the handler goroutine.
func (o *WSObserver) Run(n *Notifier) {
	n.Register(o)
	metrics.WSConnectionsActive.Inc()
	defer func() {
		n.Unregister(o)
		metrics.WSConnectionsActive.Dec()
		close(o.done)
		o.conn.Close()
	}()

	go o.writePump()
	o.readPump()
}

// readPump consumes (and discards) client frames so pings and close
// frames are processed; it returns when the connection dies.
func (o *WSObserver) readPump() {
	o.conn.SetReadLimit(4096)
	o.conn.SetReadDeadline(time.Now().Add(pongWait))
	o.conn.SetPongHandler(func(string) error {
		o.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := o.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (o *WSObserver) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-o.send:
			if !ok {
				return
			}
			o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-o.done:
			return
		}
	}
}
