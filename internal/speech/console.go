package speech

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"

	"github.com/v7h-lab/Nomen-origins/internal/tour"
)

var captionStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#a5b4fc"))

// Console "speaks" by printing a caption and completing after the time it
// would take to read it aloud.
type Console struct {
	w     io.Writer
	clock clockwork.Clock
	wpm   float64

	mu      sync.Mutex
	pending map[*consoleSpeech]struct{}
}

// NewConsole writes captions to w and times them on clock. A non-positive
// wpm uses DefaultWordsPerMinute.
func NewConsole(w io.Writer, clock clockwork.Clock, wpm float64) *Console {
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	return &Console{
		w:       w,
		clock:   clock,
		wpm:     wpm,
		pending: make(map[*consoleSpeech]struct{}),
	}
}

func (c *Console) Voices() []tour.Voice {
	return []tour.Voice{{Name: "Console", Lang: "en", Default: true}}
}

// ReadingTime estimates how long text takes to say at rate.
func (c *Console) ReadingTime(text string, rate float64) time.Duration {
	if rate <= 0 {
		rate = 1
	}
	words := len(strings.Fields(text))
	minutes := float64(words) / (c.wpm * rate)
	return time.Duration(math.Round(minutes * float64(time.Minute)))
}

func (c *Console) Speak(u tour.Utterance, done func(error)) tour.Speech {
	fmt.Fprintln(c.w, captionStyle.Render("» "+u.Text))

	s := &consoleSpeech{c: c, done: done}
	c.mu.Lock()
	c.pending[s] = struct{}{}
	s.timer = c.clock.AfterFunc(c.ReadingTime(u.Text, u.Rate), func() {
		s.complete(nil)
	})
	c.mu.Unlock()
	return s
}

// CancelAll completes every pending caption with ErrCanceled.
func (c *Console) CancelAll() {
	c.mu.Lock()
	pending := make([]*consoleSpeech, 0, len(c.pending))
	for s := range c.pending {
		pending = append(pending, s)
	}
	c.mu.Unlock()

	for _, s := range pending {
		s.Cancel()
	}
}

type consoleSpeech struct {
	c     *Console
	timer clockwork.Timer
	done  func(error)
}

func (s *consoleSpeech) Cancel() {
	s.complete(ErrCanceled)
}

func (s *consoleSpeech) complete(err error) {
	s.c.mu.Lock()
	if _, ok := s.c.pending[s]; !ok {
		s.c.mu.Unlock()
		return
	}
	delete(s.c.pending, s)
	s.timer.Stop()
	s.c.mu.Unlock()

	s.done(err)
}
