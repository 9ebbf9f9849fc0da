package link

import "sync"

// Subscription is a cancellable stream of telemetry items. Items are
// delivered in the order they arrived from the vehicle. Stop detaches
// the subscription; the Items channel is closed afterwards. Stop is
// safe to call more than once.
type Subscription[T any] struct {
	items <-chan T
	stop  func()
	once  sync.Once
}

// NewSubscription wraps an item channel and a stop function. The stop
// function must close the channel.
func NewSubscription[T any](items <-chan T, stop func()) *Subscription[T] {
	return &Subscription[T]{items: items, stop: stop}
}

func (s *Subscription[T]) Items() <-chan T {
	return s.items
}

func (s *Subscription[T]) Stop() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}

// hub fans one telemetry stream out to any number of subscribers.
// Publishing never blocks the event loop: a subscriber that has fallen
// behind its buffer loses the item.
type hub[T any] struct {
	mu   sync.Mutex
	subs map[chan T]struct{}
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[chan T]struct{})}
}

func (h *hub[T]) subscribe(buffer int, seed ...T) *Subscription[T] {
	ch := make(chan T, buffer)
	h.mu.Lock()
	for _, v := range seed {
		ch <- v
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	stop := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return NewSubscription((<-chan T)(ch), stop)
}

func (h *hub[T]) publish(v T) {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- v:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *hub[T]) closeAll() {
	h.mu.Lock()
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}
