// ABOUTME: Runtime configuration for wavdeck
// ABOUTME: Defaults overridden by a .env file and WAVDECK_* environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration
type Config struct {
	// Audio
	Device      string  // output backend: malgo, oto, portaudio, null
	BlockFrames int     // frames per callback block
	ResampleTo  int     // convert tracks to this rate, 0 keeps the file rate
	VolumeDB    float64 // initial volume

	// Export
	ExportBitDepth int

	// Logging
	LogLevel string
	LogFile  string

	// Remote control
	RemotePort int
	MDNS       bool
	Name       string
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Device:         "malgo",
		BlockFrames:    512,
		ResampleTo:     0,
		VolumeDB:       0,
		ExportBitDepth: 16,
		LogLevel:       "info",
		LogFile:        "wavdeck.log",
		RemotePort:     8928,
		MDNS:           false,
		Name:           defaultName(),
	}
}

// Load reads envFile (ignored when missing) into the process environment
// and builds the configuration from WAVDECK_* variables over the defaults.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	d := Defaults()
	cfg := Config{
		Device:         envStr("WAVDECK_DEVICE", d.Device),
		BlockFrames:    envInt("WAVDECK_BLOCK_FRAMES", d.BlockFrames),
		ResampleTo:     envInt("WAVDECK_RESAMPLE_TO", d.ResampleTo),
		VolumeDB:       envFloat("WAVDECK_VOLUME_DB", d.VolumeDB),
		ExportBitDepth: envInt("WAVDECK_EXPORT_BIT_DEPTH", d.ExportBitDepth),
		LogLevel:       envStr("WAVDECK_LOG_LEVEL", d.LogLevel),
		LogFile:        envStr("WAVDECK_LOG_FILE", d.LogFile),
		RemotePort:     envInt("WAVDECK_REMOTE_PORT", d.RemotePort),
		MDNS:           envBool("WAVDECK_MDNS", d.MDNS),
		Name:           envStr("WAVDECK_NAME", d.Name),
	}
	return cfg, cfg.Validate()
}

// Validate reports the first unusable value
func (c Config) Validate() error {
	if c.BlockFrames <= 0 {
		return fmt.Errorf("block frames must be positive, got %d", c.BlockFrames)
	}
	if c.ResampleTo < 0 {
		return fmt.Errorf("resample rate must not be negative, got %d", c.ResampleTo)
	}
	if c.ExportBitDepth != 16 && c.ExportBitDepth != 24 {
		return fmt.Errorf("export bit depth must be 16 or 24, got %d", c.ExportBitDepth)
	}
	if c.RemotePort < 0 || c.RemotePort > 65535 {
		return fmt.Errorf("remote port out of range: %d", c.RemotePort)
	}
	return nil
}

func defaultName() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-wavdeck", hostname)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}
