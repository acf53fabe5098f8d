package web

import (
	"sync"

	"go.uber.org/zap"
)

// SSE event names.
const (
	eventState  = "state"
	eventSpeak  = "speak"
	eventCancel = "cancel"
)

type event struct {
	Name string
	Data any
}

// hub fans one session's events out to its open event streams. Publishing
// never blocks; a stream that falls behind loses events.
type hub struct {
	log *zap.Logger

	mu     sync.Mutex
	subs   map[chan event]struct{}
	closed bool
}

func newHub(log *zap.Logger) *hub {
	return &hub{log: log, subs: make(map[chan event]struct{})}
}

func (h *hub) subscribe() (<-chan event, func()) {
	ch := make(chan event, 64)
	h.mu.Lock()
	if h.closed {
		close(ch)
	} else {
		h.subs[ch] = struct{}{}
	}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// publish returns how many streams accepted the event.
func (h *hub) publish(name string, data any) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	delivered := 0
	for ch := range h.subs {
		select {
		case ch <- event{Name: name, Data: data}:
			delivered++
		default:
			h.log.Warn("dropping event; stream buffer full", zap.String("event", name))
		}
	}
	return delivered
}

func (h *hub) listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// close ends every stream. Later subscribers get a closed channel.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		close(ch)
	}
	h.subs = make(map[chan event]struct{})
}
