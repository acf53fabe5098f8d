// Package tourtest provides a scheduler and a synthesizer that only act when
// a test tells them to.
package tourtest

import (
	"sync"
	"time"

	"github.com/v7h-lab/Nomen-origins/internal/tour"
)

// Timer is a timer created by Scheduler.
type Timer struct {
	s       *Scheduler
	D       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *Timer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// Stopped reports whether Stop was called.
func (t *Timer) Stopped() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.stopped
}

// Scheduler records timers and fires them only through Fire.
type Scheduler struct {
	mu     sync.Mutex
	timers []*Timer
}

func (s *Scheduler) AfterFunc(d time.Duration, f func()) tour.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &Timer{s: s, D: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Fire runs timer i, even one that was stopped, as a late callback would.
func (s *Scheduler) Fire(i int) {
	s.mu.Lock()
	t := s.timers[i]
	t.fired = true
	s.mu.Unlock()
	t.f()
}

// FireLast runs the most recently created timer.
func (s *Scheduler) FireLast() {
	s.Fire(s.Len() - 1)
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) Timer(i int) *Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[i]
}

// Speech is one utterance handed to Synth.
type Speech struct {
	synth    *Synth
	U        tour.Utterance
	done     func(error)
	canceled int
}

func (sp *Speech) Cancel() {
	sp.synth.mu.Lock()
	sp.canceled++
	sp.synth.mu.Unlock()
}

// Canceled returns how many times Cancel was called.
func (sp *Speech) Canceled() int {
	sp.synth.mu.Lock()
	defer sp.synth.mu.Unlock()
	return sp.canceled
}

// Synth records utterances. When Instant is set, Speak completes each
// utterance before returning.
type Synth struct {
	mu        sync.Mutex
	voices    []tour.Voice
	instant   bool
	spoken    []*Speech
	cancelAll int
}

// NewSynth creates a Synth offering voices.
func NewSynth(instant bool, voices ...tour.Voice) *Synth {
	return &Synth{instant: instant, voices: voices}
}

func (s *Synth) Voices() []tour.Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voices
}

func (s *Synth) Speak(u tour.Utterance, done func(error)) tour.Speech {
	s.mu.Lock()
	sp := &Speech{synth: s, U: u, done: done}
	s.spoken = append(s.spoken, sp)
	idx := len(s.spoken) - 1
	instant := s.instant
	s.mu.Unlock()

	if instant {
		s.Finish(idx, nil)
	}
	return sp
}

func (s *Synth) CancelAll() {
	s.mu.Lock()
	s.cancelAll++
	s.mu.Unlock()
}

// Finish completes utterance i with err. Completing twice is allowed so
// tests can play duplicate callbacks.
func (s *Synth) Finish(i int, err error) {
	s.mu.Lock()
	sp := s.spoken[i]
	s.mu.Unlock()
	sp.done(err)
}

// FinishLast completes the most recent utterance successfully.
func (s *Synth) FinishLast() {
	s.Finish(s.Len()-1, nil)
}

func (s *Synth) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spoken)
}

func (s *Synth) Speech(i int) *Speech {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spoken[i]
}

// Texts returns everything spoken so far, in order.
func (s *Synth) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	for i, sp := range s.spoken {
		out[i] = sp.U.Text
	}
	return out
}

// CancelAllCalls returns how many times CancelAll was called.
func (s *Synth) CancelAllCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelAll
}

// Recorder collects tour changes.
type Recorder struct {
	mu      sync.Mutex
	changes []tour.Change
}

func (r *Recorder) Listen(c tour.Change) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
}

func (r *Recorder) Changes() []tour.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tour.Change(nil), r.changes...)
}
