package speech

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/v7h-lab/Nomen-origins/internal/tour"
)

// Event types published by Remote.
const (
	EventSpeak  = "speak"
	EventCancel = "cancel"
)

var (
	// ErrUnknownUtterance is returned when a client completes an utterance
	// that is not pending.
	ErrUnknownUtterance = errors.New("unknown utterance")
	// ErrNoListener completes an utterance that no client received.
	ErrNoListener = errors.New("no client listening")
)

// Event instructs a remote client. A cancel event without an ID cancels
// everything.
type Event struct {
	Type  string  `json:"type"`
	ID    string  `json:"id,omitempty"`
	Text  string  `json:"text,omitempty"`
	Voice string  `json:"voice,omitempty"`
	Rate  float64 `json:"rate,omitempty"`
	Pitch float64 `json:"pitch,omitempty"`
}

// Remote bridges to a synthesizer that lives in a client, such as a
// browser's speechSynthesis. Events are published in order; the client
// answers with Complete and reports its voices with SetVoices.
//
// publish is called with the Remote's lock held and must not block. It
// reports whether any client received the event; a speak event nobody
// received fails at once so a tour never waits on it.
type Remote struct {
	publish func(Event) bool

	mu      sync.Mutex
	voices  []tour.Voice
	pending map[string]func(error)
}

func NewRemote(publish func(Event) bool) *Remote {
	return &Remote{
		publish: publish,
		pending: make(map[string]func(error)),
	}
}

// SetVoices replaces the voices the client has available.
func (r *Remote) SetVoices(voices []tour.Voice) {
	r.mu.Lock()
	r.voices = append([]tour.Voice(nil), voices...)
	r.mu.Unlock()
}

func (r *Remote) Voices() []tour.Voice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tour.Voice(nil), r.voices...)
}

func (r *Remote) Speak(u tour.Utterance, done func(error)) tour.Speech {
	e := Event{
		Type:  EventSpeak,
		ID:    uuid.NewString(),
		Text:  u.Text,
		Rate:  u.Rate,
		Pitch: u.Pitch,
	}
	if u.Voice != nil {
		e.Voice = u.Voice.Name
	}

	r.mu.Lock()
	r.pending[e.ID] = done
	delivered := r.publish(e)
	if !delivered {
		delete(r.pending, e.ID)
	}
	r.mu.Unlock()

	if !delivered {
		done(fmt.Errorf("%w: %s", ErrNoListener, e.ID))
	}
	return remoteSpeech{r: r, id: e.ID}
}

// Complete finishes utterance id. A non-empty errMsg reports a client side
// synthesis failure.
func (r *Remote) Complete(id, errMsg string) error {
	r.mu.Lock()
	done, ok := r.pending[id]
	delete(r.pending, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUtterance, id)
	}
	if errMsg != "" {
		done(fmt.Errorf("client synthesis: %s", errMsg))
		return nil
	}
	done(nil)
	return nil
}

// CancelAll tells the client to stop speaking and fails every pending
// utterance with ErrCanceled.
func (r *Remote) CancelAll() {
	r.mu.Lock()
	pending := r.pending
	r.pending = make(map[string]func(error))
	r.publish(Event{Type: EventCancel})
	r.mu.Unlock()

	for _, done := range pending {
		done(ErrCanceled)
	}
}

// FailPending completes every pending utterance with err without telling
// the client. It is used when the client goes away.
func (r *Remote) FailPending(err error) int {
	r.mu.Lock()
	pending := r.pending
	r.pending = make(map[string]func(error))
	r.mu.Unlock()

	for _, done := range pending {
		done(err)
	}
	return len(pending)
}

// Pending returns the number of utterances awaiting completion.
func (r *Remote) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

type remoteSpeech struct {
	r  *Remote
	id string
}

func (s remoteSpeech) Cancel() {
	s.r.mu.Lock()
	done, ok := s.r.pending[s.id]
	delete(s.r.pending, s.id)
	if ok {
		s.r.publish(Event{Type: EventCancel, ID: s.id})
	}
	s.r.mu.Unlock()

	if ok {
		done(ErrCanceled)
	}
}
