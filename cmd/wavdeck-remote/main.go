// ABOUTME: Command-line remote for a running wavdeck serve instance
// ABOUTME: Finds the deck over mDNS or by address and sends one command
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/wavdeck/internal/remote"
	"github.com/spf13/cobra"
)

var (
	serverAddr    string
	browseTimeout time.Duration
)

func main() {
	root := &cobra.Command{
		Use:          "wavdeck-remote",
		Short:        "Control a wavdeck over the network",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&serverAddr, "server", "", "Deck address host:port (default: discover over mDNS)")
	root.PersistentFlags().DurationVar(&browseTimeout, "browse", 3*time.Second, "mDNS discovery timeout")

	root.AddCommand(
		action("play", "Play the selection", cobra.NoArgs, func([]string) (remote.Command, error) {
			return remote.Command{Action: remote.ActionPlay}, nil
		}),
		action("loop", "Loop the selection", cobra.NoArgs, func([]string) (remote.Command, error) {
			return remote.Command{Action: remote.ActionLoop}, nil
		}),
		action("stop", "Stop playback", cobra.NoArgs, func([]string) (remote.Command, error) {
			return remote.Command{Action: remote.ActionStop}, nil
		}),
		action("select <start-ms> <end-ms>", "Select a region", cobra.ExactArgs(2), func(args []string) (remote.Command, error) {
			start, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return remote.Command{}, fmt.Errorf("start: %w", err)
			}
			end, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return remote.Command{}, fmt.Errorf("end: %w", err)
			}
			return remote.Command{Action: remote.ActionSelect, StartMs: start, EndMs: end}, nil
		}),
		action("marker <ms|clear>", "Set or clear the start marker", cobra.ExactArgs(1), func(args []string) (remote.Command, error) {
			if args[0] == "clear" {
				return remote.Command{Action: remote.ActionMarker, Clear: true}, nil
			}
			ms, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return remote.Command{}, fmt.Errorf("marker: %w", err)
			}
			return remote.Command{Action: remote.ActionMarker, Ms: ms}, nil
		}),
		action("volume <db>", "Set the volume in dB", cobra.ExactArgs(1), func(args []string) (remote.Command, error) {
			db, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return remote.Command{}, fmt.Errorf("volume: %w", err)
			}
			return remote.Command{Action: remote.ActionVolume, DB: &db}, nil
		}),
		&cobra.Command{
			Use:   "status",
			Short: "Print the deck status as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withClient(cmd.Context(), func(ctx context.Context, c *remote.Client) error {
					if err := c.RequestStatus(); err != nil {
						return err
					}
					return printNextStatus(ctx, cmd, c)
				})
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Print status changes until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return withClient(ctx, func(ctx context.Context, c *remote.Client) error {
					for {
						if err := printNextStatus(ctx, cmd, c); err != nil {
							if errors.Is(err, context.Canceled) {
								return nil
							}
							return err
						}
					}
				})
			},
		},
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// action builds a subcommand that sends one command and prints the reply
func action(use, short string, args cobra.PositionalArgs, build func([]string) (remote.Command, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := build(args)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *remote.Client) error {
				if err := c.Send(command); err != nil {
					return err
				}
				return printNextStatus(ctx, cmd, c)
			})
		},
	}
}

// withClient connects to the deck, discovering it first if needed
func withClient(ctx context.Context, fn func(context.Context, *remote.Client) error) error {
	addr := serverAddr
	if addr == "" {
		log.Info("browsing for decks", "timeout", browseTimeout)
		found, err := remote.Browse(ctx, browseTimeout)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return fmt.Errorf("no deck found after %s", browseTimeout)
		}
		log.Info("discovered deck", "name", found[0].Name, "addr", found[0].Addr())
		addr = found[0].Addr()
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c, err := remote.Dial(dialCtx, addr, "wavdeck-remote")
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(ctx, c)
}

// printNextStatus prints the next status, or returns the server's error
func printNextStatus(ctx context.Context, cmd *cobra.Command, c *remote.Client) error {
	for {
		msg, err := c.Next(ctx)
		if err != nil {
			return err
		}
		switch msg.Type {
		case remote.TypeError:
			f := msg.Failure()
			return fmt.Errorf("%s: %s", f.Action, f.Message)
		case remote.TypeStatus:
			st, err := msg.Status()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}
	}
}
