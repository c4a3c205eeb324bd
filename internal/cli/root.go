// ABOUTME: Cobra command tree for the wavdeck binary
// ABOUTME: Loads configuration, applies flag overrides and builds the deck
package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harperreed/wavdeck/internal/config"
	"github.com/harperreed/wavdeck/internal/logging"
	"github.com/harperreed/wavdeck/internal/version"
	"github.com/harperreed/wavdeck/pkg/audio/output"
	"github.com/harperreed/wavdeck/pkg/deck"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// options are the persistent flags shared by every command
type options struct {
	envFile     string
	device      string
	blockFrames int
	resampleTo  int
	volumeDB    float64
	bitDepth    int
	logLevel    string
	logFile     string
}

// NewRootCommand builds the command tree. Running it with a file argument
// opens the TUI.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "wavdeck [file]",
		Short: "Trim and replay regions of audio files",
		Long: `wavdeck loads an audio file, lets you select a region of it and plays or
loops that region. Selections can be exported as WAV.

Configuration comes from defaults, a .env file, WAVDECK_* environment
variables and finally command-line flags.`,
		Version:       version.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runTUI(cmd, opts, args[0])
		},
	}

	registerFlags(root.PersistentFlags(), opts)

	root.AddCommand(
		newTUICommand(opts),
		newPlayCommand(opts),
		newServeCommand(opts),
		newExportCommand(opts),
		newInfoCommand(opts),
		newDevicesCommand(),
	)
	return root
}

func registerFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVar(&opts.envFile, "env-file", ".env", "Environment file to load")
	flags.StringVar(&opts.device, "device", "", "Output backend: "+fmt.Sprint(output.Names()))
	flags.IntVar(&opts.blockFrames, "block-frames", 0, "Frames per output block")
	flags.IntVar(&opts.resampleTo, "resample", 0, "Resample loaded files to this rate (0 keeps the file rate)")
	flags.Float64Var(&opts.volumeDB, "volume", 0, "Initial volume in dB")
	flags.IntVar(&opts.bitDepth, "bit-depth", 0, "Export bit depth (16 or 24)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFile, "log-file", "", "Log file path")
}

// Execute runs the command tree
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// loadConfig builds the configuration and applies flags that were set
func loadConfig(flags *pflag.FlagSet, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("device") {
		cfg.Device = opts.device
	}
	if flags.Changed("block-frames") {
		cfg.BlockFrames = opts.blockFrames
	}
	if flags.Changed("resample") {
		cfg.ResampleTo = opts.resampleTo
	}
	if flags.Changed("volume") {
		cfg.VolumeDB = opts.volumeDB
	}
	if flags.Changed("bit-depth") {
		cfg.ExportBitDepth = opts.bitDepth
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}

	return cfg, cfg.Validate()
}

// deckHooks are the callbacks a command wants from the deck
type deckHooks struct {
	onStateChange func(deck.Status)
	onError       func(error)
}

// newDeck opens the configured output and wraps it in a player
func newDeck(cfg config.Config, logger *log.Logger, hooks deckHooks) (*deck.Player, error) {
	dev, err := output.New(cfg.Device, cfg.BlockFrames)
	if err != nil {
		return nil, err
	}

	player, err := deck.NewPlayer(deck.Config{
		Device:         dev,
		ResampleTo:     cfg.ResampleTo,
		VolumeDB:       cfg.VolumeDB,
		ExportBitDepth: cfg.ExportBitDepth,
		OnStateChange:  hooks.onStateChange,
		OnError:        hooks.onError,
		Logger:         logger,
	})
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	return player, nil
}

// setupLogging routes logs to a file only when quiet, stderr otherwise
func setupLogging(cfg config.Config, quiet bool) (*log.Logger, func() error, error) {
	opts := logging.Options{Level: cfg.LogLevel, Quiet: quiet}
	if quiet {
		opts.File = cfg.LogFile
	}
	return logging.Setup(opts)
}
