package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/v7h-lab/Nomen-origins/internal/tour"
)

// Command speaks by running an external text-to-speech program, such as
// espeak or say. Each argument may contain the placeholders {text},
// {voice} and {rate}.
type Command struct {
	argv   []string
	voices []tour.Voice
	log    *zap.Logger

	mu      sync.Mutex
	running map[*commandSpeech]struct{}
}

// NewCommand creates a Command backend. voices are advertised to the voice
// policy as is.
func NewCommand(argv []string, voices []tour.Voice, log *zap.Logger) (*Command, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("speech command not set")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Command{
		argv:    argv,
		voices:  voices,
		log:     log,
		running: make(map[*commandSpeech]struct{}),
	}, nil
}

func (c *Command) Voices() []tour.Voice {
	return c.voices
}

// Args expands the argv template for u.
func (c *Command) Args(u tour.Utterance) []string {
	voice := ""
	if u.Voice != nil {
		voice = u.Voice.Name
	}
	r := strings.NewReplacer(
		"{text}", u.Text,
		"{voice}", voice,
		"{rate}", strconv.FormatFloat(u.Rate, 'f', -1, 64),
	)
	args := make([]string, len(c.argv))
	for i, a := range c.argv {
		args[i] = r.Replace(a)
	}
	return args
}

func (c *Command) Speak(u tour.Utterance, done func(error)) tour.Speech {
	ctx, cancel := context.WithCancel(context.Background())
	args := c.Args(u)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	s := &commandSpeech{c: c, cancel: cancel}
	if err := cmd.Start(); err != nil {
		cancel()
		done(fmt.Errorf("starting %s: %w", args[0], err))
		return s
	}

	c.mu.Lock()
	c.running[s] = struct{}{}
	c.mu.Unlock()
	c.log.Debug("speech command started", zap.String("program", args[0]), zap.Int("pid", cmd.Process.Pid))

	go func() {
		err := cmd.Wait()
		cancel()

		c.mu.Lock()
		delete(c.running, s)
		canceled := s.canceled
		c.mu.Unlock()

		switch {
		case canceled:
			err = ErrCanceled
		case err != nil:
			err = fmt.Errorf("running %s: %w", args[0], err)
		}
		done(err)
	}()
	return s
}

// CancelAll kills every running speech process.
func (c *Command) CancelAll() {
	c.mu.Lock()
	running := make([]*commandSpeech, 0, len(c.running))
	for s := range c.running {
		running = append(running, s)
	}
	c.mu.Unlock()

	for _, s := range running {
		s.Cancel()
	}
}

type commandSpeech struct {
	c        *Command
	cancel   context.CancelFunc
	canceled bool
}

func (s *commandSpeech) Cancel() {
	s.c.mu.Lock()
	_, running := s.c.running[s]
	if running {
		s.canceled = true
	}
	s.c.mu.Unlock()

	if running {
		s.cancel()
	}
}
