package live

import (
	"context"
	"errors"
	"sync"

	"github.com/goserg/arena/internal/cache/mem"
	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/store"
	"github.com/sirupsen/logrus"
)

type State int

const (
	Disconnected State = iota
	Synced
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Synced:
		return "synced"
	case Failed:
		return "failed"
	}
	return "unknown"
}

var ErrAlreadyStarted = errors.New("synchronizer already started")

// Renderer receives every view the synchronizer builds.
type Renderer interface {
	Render(v View)
	RenderFailure(err error)
}

// Synchronizer owns the mirror. It applies each snapshot wholesale, re-ranks
// and hands the new view to every renderer. A subscription error is terminal:
// the synchronizer reports it and does not resubscribe.
type Synchronizer struct {
	source store.Subscriber
	mirror *mem.Cache
	title  string
	log    *logrus.Entry

	mu        sync.RWMutex
	state     State
	view      View
	err       error
	renderers []Renderer
	sub       store.Subscription
	started   bool
}

func New(l *logrus.Logger, source store.Subscriber, mirror *mem.Cache, title string) *Synchronizer {
	return &Synchronizer{
		source: source,
		mirror: mirror,
		title:  title,
		log:    l.WithField("from", "live-sync"),
	}
}

// AddRenderer registers r. If a view or a failure is already known r gets it at once.
func (s *Synchronizer) AddRenderer(r Renderer) {
	s.mu.Lock()
	s.renderers = append(s.renderers, r)
	state, view, err := s.state, s.view, s.err
	s.mu.Unlock()

	switch state {
	case Synced:
		r.Render(view)
	case Failed:
		r.RenderFailure(err)
	}
}

func (s *Synchronizer) RemoveRenderer(r Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.renderers {
		if s.renderers[i] == r {
			s.renderers = append(s.renderers[:i], s.renderers[i+1:]...)
			return
		}
	}
}

func (s *Synchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	sub, err := s.source.Subscribe(ctx, domain.PlayersCollection, s.onSnapshot, s.onError)
	if err != nil {
		s.onError(err)
		return err
	}
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	return nil
}

func (s *Synchronizer) Stop() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

func (s *Synchronizer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// View returns the latest view and whether one exists.
func (s *Synchronizer) View() (View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view, s.state == Synced
}

func (s *Synchronizer) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Synchronizer) onSnapshot(snapshot domain.Snapshot) {
	s.mu.Lock()
	if s.state == Failed {
		s.mu.Unlock()
		return
	}
	s.mirror.Update(snapshot)
	view := Build(s.mirror.Players(), s.view.Ticker, s.title)
	view.Seq = s.view.Seq + 1
	s.view = view
	s.state = Synced
	renderers := append([]Renderer(nil), s.renderers...)
	s.mu.Unlock()

	s.log.WithFields(map[string]interface{}{
		"players": len(view.Standings),
		"seq":     view.Seq,
	}).Debug("snapshot applied")
	for _, r := range renderers {
		r.Render(view)
	}
}

func (s *Synchronizer) onError(err error) {
	s.mu.Lock()
	if s.state == Failed {
		s.mu.Unlock()
		return
	}
	s.state = Failed
	s.err = err
	renderers := append([]Renderer(nil), s.renderers...)
	s.mu.Unlock()

	s.log.WithError(err).Error("subscription failed")
	for _, r := range renderers {
		r.RenderFailure(err)
	}
}
