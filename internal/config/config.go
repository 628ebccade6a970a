// Package config loads and validates talkdb settings.
//
// Settings come from an optional YAML file, then environment overrides.
// Validate checks the result against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/talkdb/internal/pathres"
)

//go:embed schema.cue
var schemaCUE string

// EnvDataDir overrides Config.DataDir when set.
const EnvDataDir = "TALKDB_DATA_DIR"

// ErrInvalid is returned by Validate when the config violates the schema.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings. Field names in YAML and JSON match the CUE
// schema.
type Config struct {
	DataDir       string `yaml:"data_dir" json:"data_dir"`
	Resolver      string `yaml:"resolver" json:"resolver"`
	Cipher        string `yaml:"cipher" json:"cipher"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms" json:"busy_timeout_ms"`
	Synchronous   string `yaml:"synchronous" json:"synchronous"`
	PageSize      int    `yaml:"page_size" json:"page_size"`
	LogLevel      string `yaml:"log_level" json:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataDir:       ".talkdb",
		Resolver:      pathres.NameSharded,
		Cipher:        "column",
		BusyTimeoutMS: 5000,
		Synchronous:   "NORMAL",
		PageSize:      64,
		LogLevel:      "info",
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path or a missing file yields the defaults. The result is
// validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := decode(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if dir := os.Getenv(EnvDataDir); dir != "" {
		cfg.DataDir = dir
	}
	cfg.Synchronous = strings.ToUpper(cfg.Synchronous)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks c against the embedded CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}

// PathResolver returns the configured resolver.
func (c Config) PathResolver() (pathres.Resolver, error) {
	return pathres.ByName(c.Resolver)
}

// BusyTimeout returns BusyTimeoutMS as a duration.
func (c Config) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMS) * time.Millisecond
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to Info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
