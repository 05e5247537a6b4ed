package decision

import (
	"sync"
	"time"
)

// LifecycleType indicates what happened to a decision request.
type LifecycleType string

const (
	LifecycleOpened    LifecycleType = "OPENED"
	LifecycleCommitted LifecycleType = "COMMITTED"
	LifecycleCancelled LifecycleType = "CANCELLED"
	LifecycleRejected  LifecycleType = "REJECTED"
)

// Lifecycle is one notification about a decision request.
type Lifecycle struct {
	Type      LifecycleType
	Client    string // Session owner
	RequestID string
	Kind      Kind
	Player    string // Acting player, when known
	Reason    string // Rejection reason
	Timestamp time.Time
}

func newLifecycle(t LifecycleType, client, requestID string, kind Kind) Lifecycle {
	return Lifecycle{
		Type:      t,
		Client:    client,
		RequestID: requestID,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// LifecycleListener reacts to lifecycle notifications.
type LifecycleListener func(Lifecycle)

type typedLifecycleListener struct {
	handle   int
	callback LifecycleListener
}

// EventBus is a synchronous publish/subscribe hub for lifecycle
// notifications. Listeners run on the publishing goroutine while the
// session lock is held and must not call back into the session.
type EventBus struct {
	mu         sync.RWMutex
	listeners  map[int]LifecycleListener
	typed      map[LifecycleType][]typedLifecycleListener
	nextHandle int
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[int]LifecycleListener),
		typed:     make(map[LifecycleType][]typedLifecycleListener),
	}
}

// Subscribe registers a listener for every notification and returns its handle.
func (bus *EventBus) Subscribe(listener LifecycleListener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for one notification type.
func (bus *EventBus) SubscribeTyped(t LifecycleType, listener LifecycleListener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typed[t] = append(bus.typed[t], typedLifecycleListener{handle: handle, callback: listener})
	return handle
}

// Unsubscribe removes the listener identified by handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for t, listeners := range bus.typed {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].handle == handle {
				bus.typed[t] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the notification to all matching listeners.
func (bus *EventBus) Publish(ev Lifecycle) {
	if bus == nil {
		return
	}
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(ev)
	}
	for _, listener := range bus.typed[ev.Type] {
		listener.callback(ev)
	}
}
