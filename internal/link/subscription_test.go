package link

import "testing"

func TestHubFanOutPreservesOrder(t *testing.T) {
	h := newHub[int]()
	a := h.subscribe(8)
	b := h.subscribe(8)

	for i := 1; i <= 3; i++ {
		h.publish(i)
	}

	for _, sub := range []*Subscription[int]{a, b} {
		for want := 1; want <= 3; want++ {
			got := <-sub.Items()
			if got != want {
				t.Fatalf("got %d, want %d", got, want)
			}
		}
	}
}

func TestSubscriptionStopDetaches(t *testing.T) {
	h := newHub[int]()
	sub := h.subscribe(8)
	sub.Stop()
	sub.Stop() // idempotent

	h.publish(42)

	if _, ok := <-sub.Items(); ok {
		t.Fatal("stopped subscription still delivered an item")
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	h := newHub[int]()
	sub := h.subscribe(1)

	h.publish(1)
	h.publish(2) // dropped, buffer full

	if got := <-sub.Items(); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
	select {
	case v := <-sub.Items():
		t.Fatalf("unexpected extra item %d", v)
	default:
	}
}

func TestHubSeedDeliveredFirst(t *testing.T) {
	h := newHub[string]()
	sub := h.subscribe(4, "seed")
	h.publish("next")

	if got := <-sub.Items(); got != "seed" {
		t.Fatalf("got %q, want seed first", got)
	}
	if got := <-sub.Items(); got != "next" {
		t.Fatalf("got %q, want next", got)
	}
}

func TestHubCloseAllClosesSubscribers(t *testing.T) {
	h := newHub[int]()
	sub := h.subscribe(4)
	h.closeAll()

	if _, ok := <-sub.Items(); ok {
		t.Fatal("subscription should be closed")
	}
	sub.Stop() // must not panic after closeAll
}
