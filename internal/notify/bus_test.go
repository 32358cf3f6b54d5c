package notify

import (
	"testing"
	"time"
)

func TestBusFansOut(t *testing.T) {
	var bus Bus
	a, cancelA := bus.Subscribe()
	defer cancelA()
	b, cancelB := bus.Subscribe()
	defer cancelB()

	at := time.Now()
	bus.Publish(CompletionEvent{ItemID: "task-1", IsCompleted: true, CompletedAt: &at, Origin: "tui"})

	for name, ch := range map[string]<-chan CompletionEvent{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.ItemID != "task-1" || !ev.IsCompleted || ev.Origin != "tui" {
				t.Fatalf("subscriber %s got %+v", name, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s got nothing", name)
		}
	}
}

func TestBusCancelStopsDelivery(t *testing.T) {
	var bus Bus
	ch, cancel := bus.Subscribe()
	cancel()

	// Cancel twice is fine.
	cancel()

	bus.Publish(CompletionEvent{ItemID: "task-1"})
	if _, ok := <-ch; ok {
		t.Fatalf("cancelled subscriber received an event")
	}
}

func TestBusDropsWhenSubscriberLags(t *testing.T) {
	var bus Bus
	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			bus.Publish(CompletionEvent{ItemID: "task-1", IsCompleted: i%2 == 0})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("publisher blocked on a lagging subscriber")
	}
}
