// ABOUTME: Interactive TUI command
// ABOUTME: Runs the bubbletea deck UI with logs redirected to a file
package cli

import (
	"github.com/harperreed/wavdeck/internal/ui"
	"github.com/spf13/cobra"
)

func newTUICommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui <file>",
		Short: "Open a file in the interactive deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts, args[0])
		},
	}
}

func runTUI(cmd *cobra.Command, opts *options, path string) error {
	cfg, err := loadConfig(cmd.Flags(), opts)
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogging(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	fwd := ui.NewForwarder()
	player, err := newDeck(cfg, logger, deckHooks{
		onStateChange: fwd.StateChanged,
		onError:       fwd.Error,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := player.Close(); err != nil {
			logger.Warn("close player", "err", err)
		}
	}()

	if err := player.Load(path); err != nil {
		return err
	}

	prog := ui.Run(player)
	fwd.Attach(prog)
	logger.Info("tui started", "file", path, "device", cfg.Device)

	_, err = prog.Run()
	return err
}
