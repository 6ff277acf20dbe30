package audio

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
)

// Cue names a sound effect. The browser synthesizes the sound.
type Cue string

const (
	Click    Cue = "click"
	Register Cue = "register"
	Goal     Cue = "goal"
	Delete   Cue = "delete"
	Login    Cue = "login"
	Error    Cue = "error"
)

var known = mapset.NewSet[Cue](Click, Register, Goal, Delete, Login, Error)

func (c Cue) Valid() bool {
	return known.Contains(c)
}

// Sink plays cues. It never reports back.
type Sink interface {
	Play(c Cue)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(c Cue)

func (f SinkFunc) Play(c Cue) { f(c) }

// Multi plays every cue on each sink.
type Multi []Sink

func (m Multi) Play(c Cue) {
	for _, s := range m {
		s.Play(c)
	}
}

type LogSink struct {
	log *logrus.Entry
}

func NewLogSink(l *logrus.Logger) *LogSink {
	return &LogSink{log: l.WithField("from", "audio")}
}

func (s *LogSink) Play(c Cue) {
	s.log.WithField("cue", c).Trace("play")
}
