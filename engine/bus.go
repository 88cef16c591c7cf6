package engine

import (
	"sync"
	"time"

	"github.com/cppla/solquest/models"
)

// UserDataEvent carries the full replacement user record. Listeners must not
// assume anything was merged: the payload is always the whole record. A nil
// record is the reset event emitted on disconnect.
type UserDataEvent struct {
	Record    *models.UserRecord
	Timestamp time.Time
}

// Bus is a single-channel, in-process publish/subscribe hub for user data
// updates. Delivery is synchronous, to the listeners registered at publish
// time, in registration order. There is no replay for late subscribers.
type Bus struct {
	mu        sync.Mutex
	listeners []func(UserDataEvent)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener. Listeners are never removed; they live as
// long as the process, like DOM listeners lived as long as the page.
func (b *Bus) Subscribe(fn func(UserDataEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Publish delivers the event to every registered listener before returning.
func (b *Bus) Publish(record *models.UserRecord, ts time.Time) {
	b.mu.Lock()
	snapshot := make([]func(UserDataEvent), len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.Unlock()

	evt := UserDataEvent{Record: record, Timestamp: ts}
	for _, fn := range snapshot {
		fn(evt)
	}
}
