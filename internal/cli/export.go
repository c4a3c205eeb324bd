// ABOUTME: Export, info and devices commands
// ABOUTME: File-level operations that never open a sound card
package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/harperreed/wavdeck/pkg/audio/decode"
	"github.com/harperreed/wavdeck/pkg/audio/output"
	"github.com/spf13/cobra"
)

func newExportCommand(opts *options) *cobra.Command {
	var (
		rng rangeFlags
		out string
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write a selection to a WAV file",
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

			cfg.Device = "null"
			player, err := newDeck(cfg, logger, deckHooks{})
			if err != nil {
				return err
			}
			defer func() { _ = player.Close() }()

			if err := player.Load(args[0]); err != nil {
				return err
			}
			if err := rng.apply(player); err != nil {
				return err
			}

			if out == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				out = base + "-selection.wav"
			}
			if err := player.Export(out); err != nil {
				return err
			}

			st := player.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames (%s) at %d Hz, %d-bit\n",
				out, st.Selection.Frames(),
				formatSeconds(st.Selection.Frames(), st.Format.SampleRate),
				st.Format.SampleRate, cfg.ExportBitDepth)
			return nil
		},
	}

	rng.register(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output path (default: <name>-selection.wav)")
	return cmd
}

func newInfoCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show the format of an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd.Flags(), opts); err != nil {
				return err
			}
			track, err := decode.File(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			f := track.Format
			fmt.Fprintf(w, "File:      %s\n", filepath.Base(args[0]))
			fmt.Fprintf(w, "Codec:     %s\n", f.Codec)
			fmt.Fprintf(w, "Rate:      %d Hz\n", f.SampleRate)
			fmt.Fprintf(w, "Channels:  %d\n", f.Channels)
			fmt.Fprintf(w, "BitDepth:  %d\n", f.BitDepth)
			fmt.Fprintf(w, "Frames:    %d\n", track.Frames())
			fmt.Fprintf(w, "Duration:  %s\n", formatSeconds(track.Frames(), f.SampleRate))
			return nil
		},
	}
}

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List output backends",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range output.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func formatSeconds(frames, rate int) string {
	return fmt.Sprintf("%.3fs", audio.FramesToMillis(frames, rate)/1000)
}
