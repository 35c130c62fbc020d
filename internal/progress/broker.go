package progress

import (
	"fmt"
	"sync"
	"time"

	"svw.info/advent/internal/domain"
	"svw.info/advent/internal/metrics"
)

// EventKind classifies a progression change.
type EventKind int

const (
	EventGuess        EventKind = iota // guess counter written
	EventCompleted                     // completion flag written
	EventAnswers                       // answer snapshot written
	EventRollover                      // local calendar day changed
	EventStoreChanged                  // backing store modified outside the engine
)

func (k EventKind) String() string {
	switch k {
	case EventGuess:
		return "guess"
	case EventCompleted:
		return "completed"
	case EventAnswers:
		return "answers"
	case EventRollover:
		return "rollover"
	case EventStoreChanged:
		return "store_changed"
	default:
		return "unknown"
	}
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(b []byte) error {
	for v := EventGuess; v <= EventStoreChanged; v++ {
		if v.String() == string(b) {
			*k = v
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", b)
}

// Event tells subscribers that unlock state may have changed. Ordinal is zero
// for events that are not tied to one puzzle.
type Event struct {
	Kind    EventKind      `json:"kind"`
	Ordinal domain.Ordinal `json:"ordinal,omitempty"`
	At      time.Time      `json:"at"`
}

// Broker fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event, and is expected to re-read state on
// the next one it receives.
type Broker struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener with the given buffer size. The returned
// cancel func closes the channel and is safe to call more than once.
func (b *Broker) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()
	metrics.Subscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
			metrics.Subscribers.Dec()
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber that has room for it.
func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Len returns the number of live subscriptions.
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
