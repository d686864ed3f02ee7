// Package events lets components observe changes to locally stored data.
// The data-access layer owns a Bus and publishes after every write;
// subscribers hold the returned unsubscribe func for as long as they care.
package events

import "sync"

// Topic names a kind of local data.
type Topic string

const (
	Transactions Topic = "transactions"
	Reminders    Topic = "reminders"
	Categories   Topic = "categories"
	Settings     Topic = "settings"
	Savings      Topic = "savings"
)

// Bus delivers change notifications to subscribers of a topic.
type Bus struct {
	mu     sync.Mutex
	subs   map[Topic]map[uint64]func()
	nextID uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[uint64]func())}
}

// Subscribe registers fn for topic and returns a func that removes it.
// The returned func is idempotent.
func (b *Bus) Subscribe(topic Topic, fn func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]func())
	}
	b.subs[topic][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[topic], id)
		})
	}
}

// Publish calls every subscriber of topic synchronously. Subscribers may
// unsubscribe from inside the callback.
func (b *Bus) Publish(topic Topic) {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of subscribers of topic.
func (b *Bus) Len(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
