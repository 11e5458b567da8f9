package notifier

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/pkg/logger"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []*model.Event
	fail   bool
}

func (o *recordingObserver) Deliver(event *model.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return errors.New("dead socket")
	}
	o.events = append(o.events, event)
	return nil
}

func (o *recordingObserver) received() []*model.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*model.Event(nil), o.events...)
}

func TestUnregisterUnknownObserverIsNoop(t *testing.T) {
	n := New(logger.NewNop())

	assert.NotPanics(t, func() {
		n.Unregister(&recordingObserver{})
	})
	assert.Equal(t, 0, n.Len())
}

func TestBroadcastReachesAllObservers(t *testing.T) {
	n := New(logger.NewNop())
	a := &recordingObserver{}
	b := &recordingObserver{}
	n.Register(a)
	n.Register(b)

	event := &model.Event{Type: model.EventNewMessage, ConversationID: "conv_001"}
	n.Broadcast(event)

	require.Len(t, a.received(), 1)
	require.Len(t, b.received(), 1)
	assert.Equal(t, a.received()[0], b.received()[0])
}

func TestFailingObserverDoesNotBlockOthers(t *testing.T) {
	n := New(logger.NewNop())
	dead := &recordingObserver{fail: true}
	live := &recordingObserver{}
	n.Register(dead)
	n.Register(live)

	assert.NotPanics(t, func() {
		n.Broadcast(&model.Event{Type: model.EventConversationClosed, ConversationID: "conv_001"})
	})

	require.Len(t, live.received(), 1)
	assert.Equal(t, model.EventConversationClosed, live.received()[0].Type)
}

func TestUnregisteredObserverStopsReceiving(t *testing.T) {
	n := New(logger.NewNop())
	o := &recordingObserver{}
	n.Register(o)
	n.Broadcast(&model.Event{Type: model.EventMessagesRead, ConversationID: "conv_001"})
	n.Unregister(o)
	n.Broadcast(&model.Event{Type: model.EventMessagesRead, ConversationID: "conv_002"})

	require.Len(t, o.received(), 1)
	assert.Equal(t, "conv_001", o.received()[0].ConversationID)
}

func TestDrainEmptiesObserverSet(t *testing.T) {
	n := New(logger.NewNop())
	n.Register(&recordingObserver{})
	n.Register(&recordingObserver{})
	n.Drain()
	assert.Equal(t, 0, n.Len())
}

func TestConcurrentRegisterBroadcast(t *testing.T) {
	n := New(logger.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			o := &recordingObserver{}
			n.Register(o)
			n.Unregister(o)
		}()
		go func() {
			defer wg.Done()
			n.Broadcast(&model.Event{Type: model.EventConversationUpdated, ConversationID: "conv_x"})
		}()
	}
	wg.Wait()
}
