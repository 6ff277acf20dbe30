package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/store"
)

// Pending is a deletion awaiting confirmation.
type Pending struct {
	ID   string
	Name string
}

func (p Pending) Prompt() string {
	return fmt.Sprintf("Remove %q from the arena? This cannot be undone.", p.Name)
}

// Removed is the outcome of a confirmed deletion.
type Removed struct {
	ID   string
	Name string
}

func (r Removed) Toast() string {
	return fmt.Sprintf("🗑️ %s removed from the arena.", r.Name)
}

// Removal is one client's two-step delete: Initiate marks a player, Confirm
// deletes the marked player, Cancel clears the mark.
type Removal struct {
	svc    *PlayerService
	caller Capability

	mu      sync.Mutex
	pending *Pending
}

func (s *PlayerService) NewRemoval(caller Capability) *Removal {
	return &Removal{svc: s, caller: caller}
}

func (r *Removal) Initiate(id, name string) (Pending, error) {
	if !r.caller.Privileged() {
		err := domain.Detail(domain.ErrPermissionDenied, "⚠ Admin access required.")
		r.svc.logFailure("remove-initiate", err)
		return Pending{}, err
	}
	p := Pending{ID: id, Name: name}
	r.mu.Lock()
	r.pending = &p
	r.mu.Unlock()
	return p, nil
}

func (r *Removal) Pending() (Pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return Pending{}, false
	}
	return *r.pending, true
}

// Cancel clears the mark and reports whether one was set.
func (r *Removal) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	had := r.pending != nil
	r.pending = nil
	return had
}

// Confirm deletes the marked player. The mark is cleared on success and kept
// on failure so the operator can retry.
func (r *Removal) Confirm(ctx context.Context) (Removed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return Removed{}, domain.ErrNoPendingRemoval
	}
	if !r.caller.Privileged() {
		err := domain.Detail(domain.ErrPermissionDenied, "⚠ Admin access required.")
		r.svc.logFailure("remove", err)
		return Removed{}, err
	}
	p := *r.pending
	if current, ok := r.svc.players.Get(p.ID); ok && current.Name != "" {
		p.Name = current.Name
	}
	err := r.svc.store.Remove(r.caller.Context(ctx), store.Key(domain.PlayersCollection, p.ID))
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrUpdateFailed, err)
		r.svc.logFailure("remove", err)
		return Removed{}, err
	}
	r.pending = nil
	r.svc.log.WithField("id", p.ID).Info("player removed")
	return Removed{ID: p.ID, Name: p.Name}, nil
}
