package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/v7h-lab/Nomen-origins/internal/explorer"
	"github.com/v7h-lab/Nomen-origins/internal/provider"
	"github.com/v7h-lab/Nomen-origins/internal/speech"
	"github.com/v7h-lab/Nomen-origins/internal/tour"
)

const sessionCookie = "nomen_session"

// client is one browser: its explorer session, the speech bridge to its
// speechSynthesis, and its event streams.
type client struct {
	id      string
	session *explorer.Session
	remote  *speech.Remote
	hub     *hub

	mu       sync.Mutex
	lastSeen time.Time
}

func (c *client) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *client) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Sessions keeps browser sessions in memory and evicts idle ones.
type Sessions struct {
	provider provider.Provider
	sched    tour.Scheduler
	clock    clockwork.Clock
	opts     explorer.Options
	idle     time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	clients map[string]*client
}

func newSessions(p provider.Provider, sched tour.Scheduler, clock clockwork.Clock, opts explorer.Options, idle time.Duration, log *zap.Logger) *Sessions {
	return &Sessions{
		provider: p,
		sched:    sched,
		clock:    clock,
		opts:     opts,
		idle:     idle,
		log:      log,
		clients:  make(map[string]*client),
	}
}

// Len returns the number of live sessions.
func (m *Sessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// resolve returns the caller's session, creating one and setting the cookie
// when the request carries none or an unknown one.
func (m *Sessions) resolve(w http.ResponseWriter, r *http.Request) *client {
	if ck, err := r.Cookie(sessionCookie); err == nil {
		m.mu.Lock()
		c, ok := m.clients[ck.Value]
		m.mu.Unlock()
		if ok {
			c.touch(m.clock.Now())
			return c
		}
	}

	c := m.create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    c.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c
}

func (m *Sessions) create() *client {
	c := &client{
		id:       uuid.NewString(),
		hub:      newHub(m.log),
		lastSeen: m.clock.Now(),
	}
	c.remote = speech.NewRemote(func(e speech.Event) bool {
		return c.hub.publish(e.Type, e) > 0
	})

	opts := m.opts
	opts.Logger = m.log.With(zap.String("session", c.id))
	c.session = explorer.NewSession(m.provider, m.sched, c.remote, opts)
	c.session.Subscribe(func(st explorer.State) {
		c.hub.publish(eventState, newStatePayload(st))
	})

	m.mu.Lock()
	m.clients[c.id] = c
	m.mu.Unlock()
	m.log.Debug("session created", zap.String("session", c.id))
	return c
}

// Sweep evicts sessions idle for longer than the idle timeout, stopping
// their tours and closing their event streams. It returns how many went.
func (m *Sessions) Sweep() int {
	cutoff := m.clock.Now().Add(-m.idle)

	m.mu.Lock()
	var evicted []*client
	for id, c := range m.clients {
		if c.idleSince().Before(cutoff) && c.hub.listeners() == 0 {
			evicted = append(evicted, c)
			delete(m.clients, id)
		}
	}
	m.mu.Unlock()

	for _, c := range evicted {
		c.session.Close()
		c.hub.close()
		m.log.Debug("session evicted", zap.String("session", c.id))
	}
	return len(evicted)
}

// Close evicts every session.
func (m *Sessions) Close() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*client)
	m.mu.Unlock()

	for _, c := range clients {
		c.session.Close()
		c.hub.close()
	}
}

// RunJanitor sweeps every interval until ctx is done.
func (m *Sessions) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if n := m.Sweep(); n > 0 {
				m.log.Info("evicted idle sessions", zap.Int("count", n), zap.Int("remaining", m.Len()))
			}
		}
	}
}
