package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v7h-lab/Nomen-origins/internal/model"
)

var lookupJSON bool

var lookupCmd = &cobra.Command{
	Use:   "lookup NAME...",
	Short: "Look up the etymology of one or more names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		p, err := newProvider(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var results []*model.EtymologyResult
		failed := 0
		for i, name := range args {
			select {
			case <-ctx.Done():
				fmt.Fprintf(os.Stderr, "\nInterrupted after %d/%d names\n", i, len(args))
				return nil
			default:
			}

			if !lookupJSON {
				fmt.Fprintf(out, "  [%d/%d] %s...", i+1, len(args), name)
			}

			r, err := p.FetchEtymology(ctx, name)
			if err != nil {
				failed++
				logger.Warn("lookup failed", zap.String("name", name), zap.Error(err))
				if !lookupJSON {
					fmt.Fprintf(out, " ERROR: %v\n", err)
				}
				continue
			}
			results = append(results, r)

			if !lookupJSON {
				fmt.Fprintf(out, " %d waypoints\n", len(r.Locations))
				printResult(out, r)
			}
		}

		if lookupJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		fmt.Fprintf(out, "\nDone. %d found, %d failed\n", len(results), failed)
		return nil
	},
}

func printResult(out io.Writer, r *model.EtymologyResult) {
	title := r.Name
	if g := r.CompactGender(); g != "" {
		title += " (" + g + ")"
	}
	fmt.Fprintf(out, "\n%s\n%s\n", title, r.Meaning)
	if len(r.OriginRoots) > 0 {
		fmt.Fprintf(out, "Roots: %s\n", strings.Join(r.OriginRoots, ", "))
	}
	for _, w := range r.Locations {
		fmt.Fprintf(out, "  - %-20s %-9s (%.2f, %.2f) %s\n", w.Name, w.Category, w.Latitude, w.Longitude, w.Significance)
	}
	if len(r.RelatedNames) > 0 {
		fmt.Fprintf(out, "Related: %s\n", strings.Join(r.RelatedNames, ", "))
	}
	fmt.Fprintln(out)
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "Print results as JSON")
	rootCmd.AddCommand(lookupCmd)
}
