// ABOUTME: Headless play command
// ABOUTME: Plays or loops a selection until it ends, a timeout or ctrl-c
package cli

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caarlos0/ctrlc"
	"github.com/charmbracelet/log"
	"github.com/harperreed/wavdeck/internal/config"
	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/harperreed/wavdeck/pkg/deck"
	"github.com/harperreed/wavdeck/pkg/playback"
	"github.com/spf13/cobra"
)

// rangeFlags select a region of the loaded file
type rangeFlags struct {
	start  string
	end    string
	marker string
}

func (r *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.start, "start", "", "Selection start; bare numbers are milliseconds, or a duration like 1.5s")
	cmd.Flags().StringVar(&r.end, "end", "", "Selection end; bare numbers are milliseconds, or a duration like 1.5s")
	cmd.Flags().StringVar(&r.marker, "marker", "", "Start playback here instead of the selection start (milliseconds or a duration)")
}

// apply selects the requested region. Unset bounds keep the whole file.
func (r *rangeFlags) apply(player *deck.Player) error {
	st := player.Status()
	if r.start != "" || r.end != "" {
		startMs := audio.ParseMillis(r.start, 0)
		endMs := audio.ParseMillis(r.end, audio.FramesToMillis(st.Frames, st.Format.SampleRate))
		if _, err := player.Select(startMs, endMs); err != nil {
			return err
		}
	}
	if r.marker != "" {
		if _, err := player.SetMarker(audio.ParseMillis(r.marker, 0)); err != nil {
			return err
		}
	}
	return nil
}

func newPlayCommand(opts *options) *cobra.Command {
	var (
		rng     rangeFlags
		loop    bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Play a selection without the TUI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			logger, closeLog, err := setupLogging(cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			return runPlay(cmd.Context(), cfg, logger, args[0], rng, loop, timeout)
		},
	}

	rng.register(cmd)
	cmd.Flags().BoolVarP(&loop, "loop", "l", false, "Loop the selection")
	cmd.Flags().DurationVar(&timeout, "for", 0, "Stop after this long (0 plays until the end or ctrl-c)")
	return cmd
}

func runPlay(ctx context.Context, cfg config.Config, logger *log.Logger, path string, rng rangeFlags, loop bool, timeout time.Duration) error {
	var armed atomic.Bool
	done := make(chan struct{})
	var doneOnce sync.Once

	player, err := newDeck(cfg, logger, deckHooks{
		onStateChange: func(st deck.Status) {
			logger.Debug("state", "state", st.Playback.State, "position", st.Playback.Position)
			if armed.Load() && st.Playback.State == playback.Idle {
				doneOnce.Do(func() { close(done) })
			}
		},
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
	if err := rng.apply(player); err != nil {
		return err
	}

	st := player.Status()
	logger.Info("playing",
		"file", st.Name,
		"from", fmt.Sprintf("%.3fs", audio.FramesToMillis(st.Selection.Start, st.Format.SampleRate)/1000),
		"to", fmt.Sprintf("%.3fs", audio.FramesToMillis(st.Selection.End, st.Format.SampleRate)/1000),
		"loop", loop,
		"volume_db", st.VolumeDB)

	armed.Store(true)
	if loop {
		err = player.Loop()
	} else {
		err = player.Play()
	}
	if err != nil {
		return err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err = ctrlc.Default.Run(ctx, func() error {
		select {
		case <-done:
		case <-ctx.Done():
		}
		return nil
	})
	player.Stop()

	if err != nil {
		logger.Info("stopped early", "reason", err)
	}
	return nil
}
