package audio

import (
	"errors"
	"time"

	"github.com/goserg/arena/internal/access"
	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/service"
)

// GoalEcho is the delay of the second goal cue after a scoring match.
const GoalEcho = 300 * time.Millisecond

// Dispatcher turns protocol outcomes into cues, so the protocols never know
// about audio.
type Dispatcher struct {
	sink  Sink
	after func(d time.Duration, f func())
}

func NewDispatcher(sink Sink) *Dispatcher {
	return &Dispatcher{
		sink: sink,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// WithScheduler replaces the timer used for delayed cues.
func (d *Dispatcher) WithScheduler(after func(time.Duration, func())) *Dispatcher {
	d.after = after
	return d
}

func (d *Dispatcher) Registered(_ service.Registered, err error) {
	if err != nil {
		d.sink.Play(Error)
		return
	}
	d.sink.Play(Register)
}

// MatchSubmitted plays goal on success and a second goal shortly after when
// anything was scored. Failures shown next to the form play error; a missing
// privilege is only reported as a toast and stays silent.
func (d *Dispatcher) MatchSubmitted(out service.MatchRecorded, err error) {
	if err != nil {
		if !errors.Is(err, domain.ErrPermissionDenied) {
			d.sink.Play(Error)
		}
		return
	}
	d.sink.Play(Goal)
	if out.Scored() {
		d.after(GoalEcho, func() { d.sink.Play(Goal) })
	}
}

func (d *Dispatcher) RemovalInitiated(err error) {
	if err != nil {
		return
	}
	d.sink.Play(Delete)
}

func (d *Dispatcher) Removed(_ service.Removed, err error) {
	if err != nil {
		return
	}
	d.sink.Play(Delete)
}

func (d *Dispatcher) RemovalCancelled() {
	d.sink.Play(Click)
}

func (d *Dispatcher) SignOutRequested() {
	d.sink.Play(Click)
}

// Session plays login for an explicit sign-in, never for the initial delivery.
func (d *Dispatcher) Session(t access.Transition) {
	if t == access.SignedIn {
		d.sink.Play(Login)
	}
}
