package events

import "testing"

func TestPublishReachesTopicSubscribers(t *testing.T) {
	bus := NewBus()

	var tx, rem int
	bus.Subscribe(Transactions, func() { tx++ })
	bus.Subscribe(Transactions, func() { tx++ })
	bus.Subscribe(Reminders, func() { rem++ })

	bus.Publish(Transactions)

	if tx != 2 {
		t.Errorf("expected 2 transaction callbacks, got %d", tx)
	}
	if rem != 0 {
		t.Errorf("expected no reminder callbacks, got %d", rem)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	unsubscribe := bus.Subscribe(Reminders, func() { calls++ })
	bus.Publish(Reminders)
	unsubscribe()
	unsubscribe()
	bus.Publish(Reminders)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if n := bus.Len(Reminders); n != 0 {
		t.Errorf("expected no subscribers, got %d", n)
	}
}

func TestUnsubscribeFromCallback(t *testing.T) {
	bus := NewBus()

	calls := 0
	var unsubscribe func()
	unsubscribe = bus.Subscribe(Transactions, func() {
		calls++
		unsubscribe()
	})

	bus.Publish(Transactions)
	bus.Publish(Transactions)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
