package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v7h-lab/Nomen-origins/internal/explorer"
	"github.com/v7h-lab/Nomen-origins/internal/tour"
	"github.com/v7h-lab/Nomen-origins/internal/tui"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Explore names interactively in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		p, err := newProvider(ctx)
		if err != nil {
			return err
		}

		// The screen belongs to the UI; it draws captions itself.
		logger = zap.NewNop()
		clock := clockwork.NewRealClock()
		synth, err := newSynth(io.Discard, clock)
		if err != nil {
			return err
		}

		session := explorer.NewSession(p, tour.NewScheduler(clock), synth, explorer.Options{Tour: tourOptions()})
		defer session.Close()

		m := tui.New(ctx, session)
		defer m.Close()

		_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		if err != nil && ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(exploreCmd)
}
