// package config reads the TOML file that configures the loader, logging and the viewer.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

// Config is the root of a configuration file. Every section is optional.
type Config struct {
	Loader LoaderConfig `toml:"loader"`
	Log    LogConfig    `toml:"log"`
	Viewer ViewerConfig `toml:"viewer"`
}

// LoaderConfig mirrors the loader's builder options.
type LoaderConfig struct {
	// Workers is the number of concurrent blob and image fetches; 0 uses the CPU count.
	Workers int `toml:"workers"`

	// PrimitiveMode is "first" or "split".
	PrimitiveMode string `toml:"primitive_mode"`

	// EmissiveDefault is "white" or "black".
	EmissiveDefault string `toml:"emissive_default"`

	Profiling bool `toml:"profiling"`

	// MaxTextureSize caps decoded image dimensions; 0 disables downscaling.
	MaxTextureSize int `toml:"max_texture_size"`
}

type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`
}

type ViewerConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`

	// Background is the RGBA color the window is cleared to, each channel in [0,1].
	Background [4]float64 `toml:"background"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Loader: LoaderConfig{
			PrimitiveMode:   "first",
			EmissiveDefault: "white",
		},
		Log: LogConfig{Level: "warn"},
		Viewer: ViewerConfig{
			Width:      1280,
			Height:     720,
			Title:      "oxyscene",
			Background: [4]float64{0.08, 0.08, 0.1, 1},
		},
	}
}

// Load reads and validates the configuration file at path. Keys absent from the file keep
// their Default values.
//
// Parameters:
//   - path: the TOML file
//
// Returns:
//   - Config: the parsed configuration
//   - error: error if the file cannot be read or is invalid
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a TOML configuration. Unknown keys are rejected.
//
// Parameters:
//   - r: the TOML source
//
// Returns:
//   - Config: the parsed configuration
//   - error: error if decoding or validation fails
func Parse(r io.Reader) (Config, error) {
	cfg := Default()

	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown config keys:\n%s", strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			return Config{}, fmt.Errorf("invalid config:\n%s", decodeErr.String())
		}
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.Loader.Workers < 0 {
		return fmt.Errorf("loader.workers must not be negative, got %d", c.Loader.Workers)
	}
	if c.Loader.MaxTextureSize < 0 {
		return fmt.Errorf("loader.max_texture_size must not be negative, got %d", c.Loader.MaxTextureSize)
	}
	if _, err := loader.ParsePrimitiveMode(c.Loader.PrimitiveMode); err != nil {
		return fmt.Errorf("loader.primitive_mode: %w", err)
	}
	if _, err := loader.ParseEmissiveDefault(c.Loader.EmissiveDefault); err != nil {
		return fmt.Errorf("loader.emissive_default: %w", err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("viewer size must be positive, got %dx%d", c.Viewer.Width, c.Viewer.Height)
	}
	for _, ch := range c.Viewer.Background {
		if ch < 0 || ch > 1 {
			return fmt.Errorf("viewer.background channels must be in [0,1], got %v", c.Viewer.Background)
		}
	}
	return nil
}

// NewLogger builds the logger described by the log section.
//
// Parameters:
//   - w: the log destination
//
// Returns:
//   - *log.Logger: a logger at the configured level
func (c Config) NewLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "oxyscene",
	})
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		level = log.WarnLevel
	}
	logger.SetLevel(level)
	return logger
}

// LoaderOptions converts the loader section into loader builder options. The fetcher
// honours MaxTextureSize. Callers append WithBackend and WithLogger themselves.
//
// Returns:
//   - []loader.LoaderBuilderOption: the options
func (c Config) LoaderOptions() []loader.LoaderBuilderOption {
	mode, _ := loader.ParsePrimitiveMode(c.Loader.PrimitiveMode)
	emissive, _ := loader.ParseEmissiveDefault(c.Loader.EmissiveDefault)

	opts := []loader.LoaderBuilderOption{
		loader.WithPrimitiveMode(mode),
		loader.WithEmissiveDefault(emissive),
		loader.WithProfiling(c.Loader.Profiling),
		loader.WithFetcher(loader.NewFetcher(loader.WithMaxTextureSize(c.Loader.MaxTextureSize))),
	}
	if c.Loader.Workers > 0 {
		opts = append(opts, loader.WithWorkers(c.Loader.Workers))
	}
	return opts
}
