// Package notifier fans conversation events out to live observers.
//
// Delivery is at-most-once and fire-and-forget: an observer that fails to
// take an event is skipped, and an observer that connects late must
// re-fetch state over the REST API.
package notifier

import (
	"sync"

	"go.uber.org/zap"

	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/pkg/logger"
	"github.com/uniwhats/desk/pkg/metrics"
)

// Observer receives broadcast events. Deliver must not block indefinitely;
// a returned error drops the event for this observer only.
type Observer interface {
	Deliver(event *model.Event) error
}

// Broadcaster is the mutation-side interface services depend on.
type Broadcaster interface {
	Broadcast(event *model.Event)
}

// Notifier owns the observer set. The set is guarded by a mutex; callers
// interact only through Register, Unregister and Broadcast.
type Notifier struct {
	mu        sync.RWMutex
	observers map[Observer]struct{}
	logger    *logger.Logger
}

// New creates an empty notifier.
func New(log *logger.Logger) *Notifier {
	return &Notifier{
		observers: make(map[Observer]struct{}),
		logger:    log,
	}
}

// Register adds an observer to the set.
func (n *Notifier) Register(o Observer) {
	n.mu.Lock()
	n.observers[o] = struct{}{}
	n.mu.Unlock()
}

// Unregister removes an observer. Removing an observer that is not
// registered is a no-op.
func (n *Notifier) Unregister(o Observer) {
	n.mu.Lock()
	delete(n.observers, o)
	n.mu.Unlock()
}

// Len reports the number of registered observers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.observers)
}

// Broadcast delivers the event to every registered observer. A failed
// delivery is logged and counted but never surfaces to the caller and
// never blocks delivery to the remaining observers.
func (n *Notifier) Broadcast(event *model.Event) {
	n.mu.RLock()
	observers := make([]Observer, 0, len(n.observers))
	for o := range n.observers {
		observers = append(observers, o)
	}
	n.mu.RUnlock()

	metrics.EventsBroadcast.WithLabelValues(string(event.Type)).Inc()

	for _, o := range observers {
		if err := o.Deliver(event); err != nil {
			metrics.BroadcastFailures.Inc()
			n.logger.Warn("dropped event for observer",
				zap.String("type", string(event.Type)),
				zap.String("conversation_id", event.ConversationID),
				zap.Error(err),
			)
		}
	}
}

// Drain unregisters every observer; called at shutdown.
func (n *Notifier) Drain() {
	n.mu.Lock()
	n.observers = make(map[Observer]struct{})
	n.mu.Unlock()
}
