// ABOUTME: Serve command exposing the deck over the network
// ABOUTME: Runs the websocket remote, optional mDNS and optionally the TUI together
package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/harperreed/wavdeck/internal/remote"
	"github.com/harperreed/wavdeck/internal/ui"
	"github.com/harperreed/wavdeck/pkg/deck"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(opts *options) *cobra.Command {
	var (
		port  int
		mdns  bool
		name  string
		noTUI bool
		rng   rangeFlags
	)

	cmd := &cobra.Command{
		Use:   "serve <file>",
		Short: "Control the deck remotely over a websocket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.RemotePort = port
			}
			if cmd.Flags().Changed("mdns") {
				cfg.MDNS = mdns
			}
			if cmd.Flags().Changed("name") {
				cfg.Name = name
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			useTUI := !noTUI
			logger, closeLog, err := setupLogging(cfg, useTUI)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			var (
				srv *remote.Server
				fwd = ui.NewForwarder()
			)
			player, err := newDeck(cfg, logger, deckHooks{
				onStateChange: func(st deck.Status) {
					fwd.StateChanged(st)
					if srv != nil {
						srv.Broadcast(st)
					}
				},
				onError: fwd.Error,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := player.Close(); err != nil {
					logger.Warn("close player", "err", err)
				}
			}()

			if err := player.Load(args[0]); err != nil {
				return err
			}
			if err := rng.apply(player); err != nil {
				return err
			}

			srv = remote.New(remote.Config{
				Port:       cfg.RemotePort,
				Name:       cfg.Name,
				EnableMDNS: cfg.MDNS,
				Logger:     logger,
			}, player)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return srv.Run(ctx)
			})

			if useTUI {
				prog := ui.Run(player)
				fwd.Attach(prog)
				g.Go(func() error {
					go func() {
						<-ctx.Done()
						prog.Quit()
					}()
					_, err := prog.Run()
					// quitting the TUI ends the server too
					stop()
					return err
				})
			}

			err = g.Wait()
			if err != nil && !isCanceled(err) {
				return err
			}
			return nil
		},
	}

	rng.register(cmd)
	cmd.Flags().IntVar(&port, "port", 0, "Remote control port")
	cmd.Flags().BoolVar(&mdns, "mdns", false, "Advertise the remote over mDNS")
	cmd.Flags().StringVar(&name, "name", "", "Service name (default: hostname-wavdeck)")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable the TUI, log to stderr")
	return cmd
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
