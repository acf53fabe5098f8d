package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/v7h-lab/Nomen-origins/internal/explorer"
	"github.com/v7h-lab/Nomen-origins/internal/web"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive map web app",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("host") {
			serveHost = cfg.Server.Host
		}
		if !cmd.Flags().Changed("port") {
			servePort = cfg.Server.Port
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, err := newProvider(ctx)
		if err != nil {
			return err
		}

		srv := web.NewServer(fmt.Sprintf("%s:%d", serveHost, servePort), web.Options{
			Provider:       p,
			Explorer:       explorer.Options{Tour: tourOptions()},
			IdleTimeout:    cfg.Session.IdleTimeout.Std(),
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Logger:         logger,
		})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.ListenAndServe(gctx, cfg.Server.ShutdownTimeout.Std())
		})
		if interval := cfg.Session.JanitorInterval.Std(); interval > 0 {
			g.Go(func() error {
				return srv.Sessions().RunJanitor(gctx, interval)
			})
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Host to listen on")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
