package events

import (
	"testing"
)

func TestPublishInvokesHandlersInRegistrationOrder(t *testing.T) {
	bus := NewBus()

	var order []int
	bus.Subscribe("test", func(interface{}) { order = append(order, 1) })
	bus.Subscribe("test", func(interface{}) { order = append(order, 2) })
	bus.Subscribe("test", func(interface{}) { order = append(order, 3) })

	bus.Publish("test", nil)

	if len(order) != 3 {
		t.Fatalf("expected 3 invocations, got %d", len(order))
	}
	for i, v := range order {
		if v != i+1 {
			t.Errorf("handler %d ran out of order: %v", v, order)
		}
	}
}

func TestPublishDeliversPayload(t *testing.T) {
	bus := NewBus()

	var got interface{}
	bus.Subscribe(EventBuildComplete, func(payload interface{}) { got = payload })

	bus.Publish(EventBuildComplete, 42)

	if got != 42 {
		t.Errorf("expected payload 42, got %v", got)
	}
}

func TestPanickingHandlerDoesNotAbortDispatch(t *testing.T) {
	bus := NewBus()

	secondRan := false
	bus.Subscribe("test", func(interface{}) { panic("boom") })
	bus.Subscribe("test", func(interface{}) { secondRan = true })

	bus.Publish("test", nil)

	if !secondRan {
		t.Error("handler after the panicking one did not run")
	}
}

func TestUnsubscribeRemovesHandler(t *testing.T) {
	bus := NewBus()

	count := 0
	unsub := bus.Subscribe("test", func(interface{}) { count++ })
	other := 0
	bus.Subscribe("test", func(interface{}) { other++ })

	bus.Publish("test", nil)
	unsub()
	bus.Publish("test", nil)

	if count != 1 {
		t.Errorf("unsubscribed handler ran %d times, want 1", count)
	}
	if other != 2 {
		t.Errorf("remaining handler ran %d times, want 2", other)
	}
}

func TestPublishUnknownEventIsNoop(t *testing.T) {
	bus := NewBus()
	bus.Publish("nobody-listens", nil)
}
