package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/v7h-lab/Nomen-origins/internal/tour"
)

var tourDwell time.Duration

var tourCmd = &cobra.Command{
	Use:   "tour NAME",
	Short: "Look up a name and narrate its journey in the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("dwell") && tourDwell < tour.DefaultDwell {
			return fmt.Errorf("--dwell must be at least %s", tour.DefaultDwell)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		p, err := newProvider(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		name := strings.Join(args, " ")
		fmt.Fprintf(out, "Tracing the history of %s...\n", name)
		r, err := p.FetchEtymology(ctx, name)
		if err != nil {
			return fmt.Errorf("looking up %s: %w", name, err)
		}
		printResult(out, r)
		if len(r.Locations) == 0 {
			fmt.Fprintln(out, "No waypoints to tour.")
			return nil
		}

		clock := clockwork.NewRealClock()
		synth, err := newSynth(out, clock)
		if err != nil {
			return err
		}
		opts := tourOptions()
		if cmd.Flags().Changed("dwell") {
			opts.Dwell = tourDwell
		}

		finished := make(chan struct{})
		var once sync.Once
		engine := tour.New(tour.NewScheduler(clock), synth, func(c tour.Change) {
			if c.Active && c.Step >= 0 {
				w := r.Locations[c.Step]
				fmt.Fprintf(out, "\n[%d/%d] %s (%s)\n", c.Step+1, len(r.Locations), w.Name, w.Category)
			}
			if !c.Active {
				once.Do(func() { close(finished) })
			}
		}, opts)

		engine.Start(r)
		select {
		case <-finished:
			fmt.Fprintln(out, "\nTour complete.")
		case <-ctx.Done():
			engine.Stop()
			fmt.Fprintln(out, "\nTour stopped.")
		}
		return nil
	},
}

func init() {
	tourCmd.Flags().DurationVar(&tourDwell, "dwell", tour.DefaultDwell, "Minimum time spent at each waypoint")
	rootCmd.AddCommand(tourCmd)
}
