package app

import (
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"mad-sand/internal/catalog"
	"mad-sand/internal/engine"
	"mad-sand/internal/physics"
)

//go:embed config.schema.json
var configSchema string

// MaxDimension bounds the grid size. Observer frames carry sizes as uint16
// and the config schema uses the same limit.
const MaxDimension = 4096

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the runtime parameters shared by every frontend.
type Config struct {
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
	Scale  int   `yaml:"scale"`
	TPS    int   `yaml:"tps"`
	Seed   int64 `yaml:"seed"`

	Catalog  string `yaml:"catalog"`
	Material string `yaml:"material"`
	Brush    int    `yaml:"brush"`
	Tile     int    `yaml:"tile"`
	Mode     string `yaml:"mode"`

	ConfigPath string `yaml:"-"`
	Observe    string `yaml:"observe"`
	Trace      string `yaml:"trace"`
	Audio      bool   `yaml:"audio"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Width:    200,
		Height:   150,
		Scale:    4,
		TPS:      60,
		Seed:     42,
		Material: "Sand",
		Brush:    3,
		Tile:     32,
		Mode:     "incremental",
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Width, "width", c.Width, "grid width in cells")
	fs.IntVar(&c.Height, "height", c.Height, "grid height in cells")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed")
	fs.StringVar(&c.Catalog, "catalog", c.Catalog, "particle catalog file (empty uses the built-in one)")
	fs.StringVar(&c.Material, "material", c.Material, "initial brush material, by name or id")
	fs.IntVar(&c.Brush, "brush", c.Brush, "brush radius in cells")
	fs.IntVar(&c.Tile, "tile", c.Tile, "dirty-region tile size in pixels")
	fs.StringVar(&c.Mode, "mode", c.Mode, "step mode: incremental or full")
	fs.StringVar(&c.ConfigPath, "config", c.ConfigPath, "YAML config file")
	fs.StringVar(&c.Observe, "observe", c.Observe, "serve a websocket viewer on this address")
	fs.StringVar(&c.Trace, "trace", c.Trace, "write a zstd-compressed tick trace to this file")
	fs.BoolVar(&c.Audio, "audio", c.Audio, "play activity audio")
}

// FromMap populates a Config from a string map. Invalid values are ignored.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	for k, v := range cfg {
		_ = c.Set(k, v)
	}
	return c
}

// Set assigns one key by its flag name.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	var err error
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "width", "w":
		err = setPositive(&c.Width, value)
	case "height", "h":
		err = setPositive(&c.Height, value)
	case "scale":
		err = setPositive(&c.Scale, value)
	case "tps":
		err = setPositive(&c.TPS, value)
	case "tile":
		err = setPositive(&c.Tile, value)
	case "brush":
		var n int
		if n, err = strconv.Atoi(value); err == nil && n < 0 {
			err = errors.New("must not be negative")
		}
		if err == nil {
			c.Brush = n
		}
	case "seed":
		var n int64
		if n, err = strconv.ParseInt(value, 10, 64); err == nil {
			c.Seed = n
		}
	case "catalog":
		c.Catalog = value
	case "material":
		c.Material = value
	case "mode":
		if _, err = physics.ParseMode(value); err == nil {
			c.Mode = strings.ToLower(value)
		}
	case "config":
		c.ConfigPath = value
	case "observe":
		c.Observe = value
	case "trace":
		c.Trace = value
	case "audio":
		var b bool
		if b, err = strconv.ParseBool(value); err == nil {
			c.Audio = b
		}
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, value, err)
	}
	return nil
}

func setPositive(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if n <= 0 {
		return errors.New("must be positive")
	}
	*dst = n
	return nil
}

// Validate checks ranges that the flag parser cannot.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.Width > MaxDimension || c.Height > MaxDimension:
		return fmt.Errorf("%w: grid must be at most %dx%d, got %dx%d", ErrInvalidConfig, MaxDimension, MaxDimension, c.Width, c.Height)
	case c.Scale <= 0:
		return fmt.Errorf("%w: scale must be positive", ErrInvalidConfig)
	case c.TPS <= 0:
		return fmt.Errorf("%w: tps must be positive", ErrInvalidConfig)
	case c.Brush < 0:
		return fmt.Errorf("%w: brush must not be negative", ErrInvalidConfig)
	}
	if _, err := physics.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LoadFile reads a YAML config on top of the defaults. The document is
// validated against the embedded JSON schema first.
func LoadFile(path string) (Config, error) {
	c := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := validateDocument(raw); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	c.ConfigPath = path
	return c, c.Validate()
}

func validateDocument(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	// The validator expects encoding/json values.
	js, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(js, &v); err != nil {
		return err
	}
	schema, err := jsonschema.CompileString("config.schema.json", configSchema)
	if err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Resolve parses args into a Config. Values come from the defaults, then the
// file named by -config, then any flag set explicitly on the command line.
func Resolve(fs *flag.FlagSet, args []string) (Config, error) {
	c := DefaultConfig()
	c.Bind(fs)
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if c.ConfigPath == "" {
		return c, c.Validate()
	}

	file, err := LoadFile(c.ConfigPath)
	if err != nil {
		return c, err
	}
	var setErr error
	fs.Visit(func(f *flag.Flag) {
		if setErr == nil {
			setErr = file.Set(f.Name, f.Value.String())
		}
	})
	if setErr != nil {
		return file, setErr
	}
	return file, file.Validate()
}

// NewLogger returns the prefixed logger shared by long-lived components.
func NewLogger() *log.Logger {
	return log.New(os.Stderr, "[sand] ", log.LstdFlags)
}

// LoadCatalog reads the configured catalog, or the built-in one, and logs
// every skipped block.
func (c Config) LoadCatalog(logger *log.Logger) (*catalog.Catalog, error) {
	var (
		cat   *catalog.Catalog
		diags []catalog.Diagnostic
		err   error
	)
	if c.Catalog == "" {
		cat, diags, err = catalog.Default()
	} else {
		cat, diags, err = catalog.Load(c.Catalog)
	}
	if err != nil {
		return nil, err
	}
	for _, d := range diags {
		if logger != nil {
			logger.Printf("catalog: %s", d)
		}
	}
	return cat, nil
}

// EngineOptions resolves names in the config against cat.
func (c Config) EngineOptions(cat *catalog.Catalog) (engine.Options, error) {
	mode, err := physics.ParseMode(c.Mode)
	if err != nil {
		return engine.Options{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	material, err := ResolveMaterial(cat, c.Material)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		Width:    c.Width,
		Height:   c.Height,
		Seed:     c.Seed,
		Catalog:  cat,
		Mode:     mode,
		Material: material,
		Brush:    c.Brush,
	}, nil
}

// ResolveMaterial accepts a material name or numeric id. Empty selects the
// first user material.
func ResolveMaterial(cat *catalog.Catalog, s string) (uint16, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return cat.Next(catalog.EmptyID, 1), nil
	}
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		if _, ok := cat.Lookup(uint16(n)); ok {
			return uint16(n), nil
		}
		return 0, fmt.Errorf("material %s: %w", s, catalog.ErrUnknownMaterial)
	}
	if mt, ok := cat.ByName(s); ok {
		return mt.ID, nil
	}
	return 0, fmt.Errorf("material %q: %w", s, catalog.ErrUnknownMaterial)
}
