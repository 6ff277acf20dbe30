package store

import (
	"context"
	"sync"

	"github.com/goserg/arena/internal/domain"
)

// Feed fans snapshots out to subscribers. Each subscriber has its own delivery
// goroutine; a slow subscriber only ever sees the latest pending snapshot.
type Feed struct {
	mu   sync.Mutex
	subs map[*feedSub]struct{}
}

type feedSub struct {
	feed       *Feed
	onSnapshot func(domain.Snapshot)
	cancel     context.CancelFunc
	signal     chan struct{}

	mu      sync.Mutex
	latest  domain.Snapshot
	pending bool
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[*feedSub]struct{})}
}

// Subscribe registers onSnapshot and queues initial as its first delivery.
func (f *Feed) Subscribe(ctx context.Context, initial domain.Snapshot, onSnapshot func(domain.Snapshot)) Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &feedSub{
		feed:       f,
		onSnapshot: onSnapshot,
		cancel:     cancel,
		signal:     make(chan struct{}, 1),
	}
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	sub.offer(initial)
	go sub.run(ctx)
	return sub
}

// Publish queues snapshot for every subscriber. Callers publish in commit order.
func (f *Feed) Publish(snapshot domain.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		sub.offer(snapshot)
	}
}

// Len returns the number of live subscriptions.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (s *feedSub) offer(snapshot domain.Snapshot) {
	s.mu.Lock()
	s.latest = snapshot
	s.pending = true
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *feedSub) run(ctx context.Context) {
	defer s.remove()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.signal:
			s.mu.Lock()
			snapshot, pending := s.latest, s.pending
			s.latest, s.pending = nil, false
			s.mu.Unlock()
			if pending && ctx.Err() == nil {
				s.onSnapshot(snapshot)
			}
		}
	}
}

func (s *feedSub) remove() {
	s.feed.mu.Lock()
	delete(s.feed.subs, s)
	s.feed.mu.Unlock()
}

func (s *feedSub) Close() {
	s.cancel()
}
