package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/v7h-lab/Nomen-origins/internal/markup"
)

var askCmd = &cobra.Command{
	Use:   "ask QUESTION...",
	Short: "Ask the assistant for name ideas",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		p, err := newProvider(ctx)
		if err != nil {
			return err
		}

		question := strings.Join(args, " ")
		reply, err := p.FetchReply(ctx, nil, question)
		if err != nil {
			return fmt.Errorf("asking: %w", err)
		}

		out := cmd.OutOrStdout()
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
		if err != nil {
			return fmt.Errorf("creating renderer: %w", err)
		}
		rendered, err := r.Render(markup.Markdown(reply))
		if err != nil {
			fmt.Fprintln(out, markup.Plain(reply))
		} else {
			fmt.Fprint(out, rendered)
		}

		if names := markup.Names(reply); len(names) > 0 {
			fmt.Fprintf(out, "\nLook them up with: nomen lookup %s\n", strings.Join(names, " "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
