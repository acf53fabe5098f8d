// Package explorer holds the state of one exploring user and turns their
// actions into lookups, chat turns and tours.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/v7h-lab/Nomen-origins/internal/geo"
	"github.com/v7h-lab/Nomen-origins/internal/intent"
	"github.com/v7h-lab/Nomen-origins/internal/model"
	"github.com/v7h-lab/Nomen-origins/internal/provider"
	"github.com/v7h-lab/Nomen-origins/internal/tour"
)

var (
	ErrEmptyInput     = errors.New("empty input")
	ErrNoSuchWaypoint = errors.New("no such waypoint")
)

// User visible messages for provider failures.
const (
	LookupFailedMessage = "Could not trace the history of this name. Please try another."
	ChatFallbackMessage = "Sorry, I'm having trouble connecting right now."
)

// NoSelection means no waypoint is highlighted.
const NoSelection = -1

type Options struct {
	Tour   tour.Options
	Logger *zap.Logger
}

// Session coordinates one user's lookups, chat and tour.
//
// Subscribers are called with the state lock held, in order. They must not
// block or call back into the Session.
type Session struct {
	provider provider.Provider
	engine   *tour.Engine
	log      *zap.Logger

	// opMu serialises the steps that touch the tour engine. It is never
	// held across a provider call.
	opMu sync.Mutex

	mu           sync.Mutex
	state        State
	lookupSeq    uint64
	cancelLookup context.CancelFunc
	chatPending  int
	subs         map[int]func(State)
	nextSub      int
}

// NewSession creates a session that narrates tours through synth.
func NewSession(p provider.Provider, sched tour.Scheduler, synth tour.Synthesizer, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		provider: p,
		log:      log,
		state:    State{Selected: NoSelection, TourStep: tour.NoStep},
		subs:     make(map[int]func(State)),
	}
	opts.Tour.Logger = log
	s.engine = tour.New(sched, synth, s.onTourChange, opts.Tour)
	return s
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe calls fn with the current state and then after every change.
func (s *Session) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	fn(s.snapshotLocked())
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Submit classifies input and runs it as a lookup or a chat turn.
func (s *Session) Submit(ctx context.Context, input string) (intent.Intent, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return intent.NameSearch, ErrEmptyInput
	}

	in := intent.Classify(input)
	s.log.Debug("input classified", zap.String("input", input), zap.Stringer("intent", in))
	if in == intent.NameSearch {
		return in, s.Search(ctx, input)
	}
	return in, s.Chat(ctx, input)
}

// Search looks up name. Any tour stops and a lookup still in flight is
// abandoned. A provider failure is reported through State.Error, not the
// returned error.
func (s *Session) Search(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyInput
	}

	s.opMu.Lock()
	s.engine.Reset()

	s.mu.Lock()
	s.lookupSeq++
	seq := s.lookupSeq
	if s.cancelLookup != nil {
		s.cancelLookup()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancelLookup = cancel

	s.state.ShowChat = false
	s.state.Transcript = append(s.state.Transcript,
		model.ChatMessage{Role: model.RoleUser, Text: fmt.Sprintf("Explore [%s]", name)},
		model.ChatMessage{Role: model.RoleAssistant, Text: fmt.Sprintf("I have analyzed the origins and history of [%s].", name)},
	)
	s.state.Query = name
	s.state.Loading = true
	s.state.Error = ""
	s.state.Result = nil
	s.state.Selected = NoSelection
	s.publishLocked()
	s.mu.Unlock()
	s.opMu.Unlock()

	result, err := s.provider.FetchEtymology(ctx, name)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.lookupSeq {
		s.log.Debug("dropping superseded lookup", zap.String("name", name))
		return nil
	}
	s.cancelLookup = nil
	s.state.Loading = false
	if err != nil {
		s.log.Warn("lookup failed", zap.String("name", name), zap.Error(err))
		s.state.Result = nil
		s.state.Error = LookupFailedMessage
	} else {
		s.log.Info("lookup complete", zap.String("name", result.Name), zap.Int("waypoints", len(result.Locations)))
		s.state.Result = result
	}
	s.publishLocked()
	return nil
}

// Chat sends text to the assistant with the transcript so far. A provider
// failure appends ChatFallbackMessage instead of a reply.
func (s *Session) Chat(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}

	s.mu.Lock()
	history := append([]model.ChatMessage(nil), s.state.Transcript...)
	s.state.ShowChat = true
	s.chatPending++
	s.state.ChatLoading = true
	s.state.Transcript = append(s.state.Transcript, model.ChatMessage{Role: model.RoleUser, Text: text})
	s.publishLocked()
	s.mu.Unlock()

	reply, err := s.provider.FetchReply(ctx, history, text)
	if err != nil {
		s.log.Warn("chat failed", zap.Error(err))
		reply = ChatFallbackMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatPending--
	s.state.ChatLoading = s.chatPending > 0
	s.state.Transcript = append(s.state.Transcript, model.ChatMessage{Role: model.RoleAssistant, Text: reply})
	s.publishLocked()
	return nil
}

// SelectWaypoint highlights waypoint index, ending any tour.
func (s *Session) SelectWaypoint(index int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	r := s.state.Result
	s.mu.Unlock()
	if r == nil || index < 0 || index >= len(r.Locations) {
		return fmt.Errorf("%w: %d", ErrNoSuchWaypoint, index)
	}

	s.engine.Select(index)

	s.mu.Lock()
	s.state.Selected = index
	s.publishLocked()
	s.mu.Unlock()
	return nil
}

// StartTour starts narrating the current result. It reports false when there
// is nothing to tour.
func (s *Session) StartTour() bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.startTourLocked()
}

// StopTour ends the tour and clears the highlighted waypoint.
func (s *Session) StopTour() {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.engine.Stop()
}

// ToggleTour starts the tour if none is running and stops it otherwise. It
// reports whether a tour is running afterwards.
func (s *Session) ToggleTour() bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.engine.State().Active {
		s.engine.Stop()
		return false
	}
	return s.startTourLocked()
}

// startTourLocked requires s.opMu.
func (s *Session) startTourLocked() bool {
	s.mu.Lock()
	r := s.state.Result
	s.mu.Unlock()
	return s.engine.Start(r)
}

// Back returns to the chat when there is a conversation, and home otherwise.
func (s *Session) Back() {
	s.mu.Lock()
	toChat := len(s.state.Transcript) > 0
	s.mu.Unlock()
	s.back(toChat)
}

// BackToHome leaves the result view for the home screen.
func (s *Session) BackToHome() {
	s.back(false)
}

// BackToChat leaves the result view for the conversation.
func (s *Session) BackToChat() {
	s.back(true)
}

func (s *Session) back(showChat bool) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.engine.Reset()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonLookupLocked()
	s.state.Result = nil
	s.state.Error = ""
	s.state.Selected = NoSelection
	s.state.ShowChat = showChat
	s.publishLocked()
}

// Close stops the tour and abandons any lookup. The session stays usable.
func (s *Session) Close() {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.engine.Reset()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonLookupLocked()
	s.publishLocked()
}

func (s *Session) abandonLookupLocked() {
	s.lookupSeq++
	if s.cancelLookup != nil {
		s.cancelLookup()
		s.cancelLookup = nil
	}
	s.state.Loading = false
}

// onTourChange mirrors the engine's state. It runs under the engine's lock.
func (s *Session) onTourChange(c tour.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Touring = c.Active
	s.state.TourStep = c.Step
	switch c.Reason {
	case tour.ReasonStarted, tour.ReasonAdvanced:
		if c.Step >= 0 {
			s.state.Selected = c.Step
		} else {
			s.state.Selected = NoSelection
		}
	case tour.ReasonSelected:
		// SelectWaypoint sets the new selection.
	default:
		s.state.Selected = NoSelection
	}
	s.publishLocked()
}

func (s *Session) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, fn := range s.subs {
		fn(snap)
	}
}

func (s *Session) snapshotLocked() State {
	st := s.state
	st.Result = s.state.Result.Clone()
	st.Transcript = append([]model.ChatMessage{}, s.state.Transcript...)

	var waypoints []model.Waypoint
	if st.Result != nil {
		waypoints = st.Result.Locations
	}
	st.Viewport = geo.ViewportFor(waypoints, st.Selected)
	st.View = st.view()
	return st
}
