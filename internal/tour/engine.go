package tour

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/v7h-lab/Nomen-origins/internal/model"
)

// Reason says why the tour state changed.
type Reason string

const (
	ReasonStarted  Reason = "started"
	ReasonAdvanced Reason = "advanced"
	ReasonFinished Reason = "finished"
	ReasonStopped  Reason = "stopped"
	ReasonSelected Reason = "selected"
	ReasonReplaced Reason = "replaced"
)

// Change is emitted on every state entry.
type Change struct {
	Active bool
	Step   int
	Reason Reason
}

// State is the engine's externally visible state. Active is true exactly
// when Step is not NoStep.
type State struct {
	Active bool `json:"active"`
	Step   int  `json:"step"`
}

// Options tunes narration.
type Options struct {
	// Dwell is the minimum time each waypoint stays active. Values below
	// DefaultDwell are raised to it.
	Dwell  time.Duration
	Voices VoicePolicy
	Rate   float64
	Pitch  float64
	Logger *zap.Logger
}

// DefaultOptions returns the standard tour pacing.
func DefaultOptions() Options {
	return Options{
		Dwell:  DefaultDwell,
		Voices: DefaultVoicePolicy(),
		Rate:   0.9,
		Pitch:  1.0,
	}
}

// Engine runs at most one tour at a time.
//
// The listener is called with the state lock held, in transition order. It
// must not call back into the Engine.
type Engine struct {
	// cmdMu serialises Start and the interrupting commands so a CancelAll
	// issued by one can never land on speech requested by the next.
	cmdMu sync.Mutex

	mu       sync.Mutex
	result   *model.EtymologyResult
	step     int
	gen      uint64
	rv       *rendezvous
	timer    Timer
	speech   Speech
	listener func(Change)

	sched Scheduler
	synth Synthesizer
	opts  Options
	log   *zap.Logger
}

type request struct {
	token uint64
	text  string
}

// New creates an idle engine. listener may be nil.
func New(sched Scheduler, synth Synthesizer, listener func(Change), opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Rate == 0 {
		opts.Rate = 1
	}
	if opts.Pitch == 0 {
		opts.Pitch = 1
	}
	if opts.Dwell < DefaultDwell {
		opts.Dwell = DefaultDwell
	}
	return &Engine{
		step:     NoStep,
		listener: listener,
		sched:    sched,
		synth:    synth,
		opts:     opts,
		log:      log,
	}
}

// State returns the current tour state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{Active: e.step != NoStep, Step: e.step}
}

// Start begins a tour of result with the introduction. A running tour is
// abandoned first. It returns false, leaving the engine untouched, when
// result has no waypoints.
func (e *Engine) Start(result *model.EtymologyResult) bool {
	if result == nil || len(result.Locations) == 0 {
		return false
	}

	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	e.mu.Lock()
	restarted := e.step != NoStep
	old := e.invalidateLocked()
	e.result = result.Clone()
	req := e.enterLocked(IntroStep, ReasonStarted)
	e.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
	e.synth.CancelAll()
	e.log.Debug("tour started",
		zap.String("name", result.Name),
		zap.Int("waypoints", len(result.Locations)),
		zap.Bool("restarted", restarted))

	e.speak(req)
	return true
}

// Stop ends the tour. It reports whether a tour was running.
func (e *Engine) Stop() bool {
	return e.interrupt(ReasonStopped)
}

// Select ends the tour because the user picked waypoint index directly.
func (e *Engine) Select(index int) bool {
	e.log.Debug("waypoint selected manually", zap.Int("index", index))
	return e.interrupt(ReasonSelected)
}

// Reset ends the tour because its data was replaced or cleared.
func (e *Engine) Reset() bool {
	return e.interrupt(ReasonReplaced)
}

// interrupt moves to Idle, then stops the pending timer and all speech
// before returning. It always cancels speech, even when idle.
func (e *Engine) interrupt(reason Reason) bool {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	e.mu.Lock()
	wasActive := e.step != NoStep
	h := e.invalidateLocked()
	e.result = nil
	if wasActive {
		e.notifyLocked(Change{Active: false, Step: NoStep, Reason: reason})
	}
	e.mu.Unlock()

	if h != nil {
		h.Cancel()
	}
	e.synth.CancelAll()

	if wasActive {
		e.log.Debug("tour interrupted", zap.String("reason", string(reason)))
	}
	return wasActive
}

// invalidateLocked retires the current step so that none of its callbacks
// can match again, and returns its speech handle for the caller to cancel.
func (e *Engine) invalidateLocked() Speech {
	e.gen++
	e.rv = nil
	e.step = NoStep
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	h := e.speech
	e.speech = nil
	return h
}

func (e *Engine) enterLocked(index int, reason Reason) request {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.speech = nil

	e.gen++
	rv := newRendezvous(e.gen)
	e.rv = rv
	e.step = index

	s := stepFor(e.result, index, e.opts.Dwell)
	e.notifyLocked(Change{Active: true, Step: index, Reason: reason})

	if s.dwell <= 0 {
		rv.mark(signalTimer)
	} else {
		token := rv.token
		e.timer = e.sched.AfterFunc(s.dwell, func() {
			e.signal(token, signalTimer, nil)
		})
	}
	return request{token: rv.token, text: s.text}
}

// signal delivers a timer or speech completion for the step tagged token.
func (e *Engine) signal(token uint64, sig signal, err error) {
	e.mu.Lock()
	if e.rv == nil || e.rv.token != token {
		e.mu.Unlock()
		e.log.Debug("stale tour signal ignored", zap.Stringer("signal", sig), zap.Uint64("token", token))
		return
	}
	if err != nil {
		e.log.Debug("narration failed, continuing", zap.Int("step", e.step), zap.Error(err))
	}
	if sig == signalTimer {
		e.timer = nil
	}
	if !e.rv.mark(sig) {
		e.mu.Unlock()
		return
	}

	next := e.step + 1
	if next >= len(e.result.Locations) {
		e.invalidateLocked()
		e.result = nil
		e.notifyLocked(Change{Active: false, Step: NoStep, Reason: ReasonFinished})
		e.mu.Unlock()
		e.log.Debug("tour finished")
		return
	}
	req := e.enterLocked(next, ReasonAdvanced)
	e.mu.Unlock()

	e.speak(req)
}

// speak requests narration for req outside the state lock. A handle that
// comes back for a step that has since been retired is canceled.
func (e *Engine) speak(req request) {
	if !e.current(req.token) {
		return
	}

	u := Utterance{
		Text:  req.text,
		Voice: e.opts.Voices.Pick(e.synth.Voices()),
		Rate:  e.opts.Rate,
		Pitch: e.opts.Pitch,
	}
	token := req.token
	h := e.synth.Speak(u, func(err error) {
		e.signal(token, signalSpeech, err)
	})
	if h == nil {
		return
	}

	e.mu.Lock()
	if e.rv != nil && e.rv.token == token && !e.rv.speechDone {
		e.speech = h
		h = nil
	}
	e.mu.Unlock()

	if h != nil {
		h.Cancel()
	}
}

func (e *Engine) current(token uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rv != nil && e.rv.token == token
}

func (e *Engine) notifyLocked(c Change) {
	if e.listener != nil {
		e.listener(c)
	}
}
