package cli

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/layout"
)

const (
	// defaultConfigFile is read from the working directory when present.
	defaultConfigFile = "forcegraph.toml"

	// envPrefix namespaces environment overrides, e.g. FORCEGRAPH_NODE_CHARGE.
	envPrefix = "FORCEGRAPH_"

	defaultAddr = "localhost:8080"
)

// settings is the merged configuration shared by all commands.
type settings struct {
	Width     float64 `koanf:"width"`
	Height    float64 `koanf:"height"`
	Addr      string  `koanf:"addr"`
	RedisAddr string  `koanf:"redis-addr"`
	NoCache   bool    `koanf:"no-cache"`

	Layout layout.Config `koanf:"-"`
}

// Viewport returns the configured viewport.
func (s *settings) Viewport() layout.Viewport {
	return layout.Viewport{Width: s.Width, Height: s.Height}
}

func defaults() map[string]any {
	c := layout.DefaultConfig()
	return map[string]any{
		"width":                  layout.DefaultViewport.Width,
		"height":                 layout.DefaultViewport.Height,
		"addr":                   defaultAddr,
		"redis-addr":             "",
		"no-cache":               false,
		"min-node-radius":        c.MinNodeRadius,
		"max-node-radius":        c.MaxNodeRadius,
		"min-zoom":               c.MinZoom,
		"max-zoom":               c.MaxZoom,
		"gravity-strength":       c.GravityStrength,
		"node-charge":            c.NodeCharge,
		"pre-generate":           c.PreGenerate,
		"pre-generate-freeze":    c.PreGenerateFreeze,
		"pre-generate-max-ticks": c.PreGenerateMaxTicks,
		"release-on-drag-end":    c.ReleaseOnDragEnd,
		"seed":                   c.Seed,
	}
}

// addLayoutFlags registers the viewport and layout flags. Defaults
// shown in --help match the built-in defaults; a flag only wins over file
// and env values when it is set explicitly.
func addLayoutFlags(flags *pflag.FlagSet) {
	c := layout.DefaultConfig()
	flags.String("config", "", "config file (default ./"+defaultConfigFile+" if present)")
	flags.Float64("width", layout.DefaultViewport.Width, "viewport width")
	flags.Float64("height", layout.DefaultViewport.Height, "viewport height")
	flags.Float64("min-node-radius", c.MinNodeRadius, "radius of the lightest node")
	flags.Float64("max-node-radius", c.MaxNodeRadius, "radius of the heaviest node")
	flags.Float64("min-zoom", c.MinZoom, "smallest zoom factor")
	flags.Float64("max-zoom", c.MaxZoom, "largest zoom factor")
	flags.Float64("gravity-strength", c.GravityStrength, "pull toward the centre on each axis")
	flags.Float64("node-charge", c.NodeCharge, "many-body strength (negative repels)")
	flags.Bool("pre-generate", c.PreGenerate, "settle the layout before the first frame")
	flags.Bool("pre-generate-freeze", c.PreGenerateFreeze, "pin every node after pre-generation")
	flags.Int("pre-generate-max-ticks", c.PreGenerateMaxTicks, "upper bound on pre-generation ticks")
	flags.Bool("release-on-drag-end", c.ReleaseOnDragEnd, "unpin a node when its drag ends")
	flags.Uint64("seed", c.Seed, "seed for the collision jiggle")
	addCacheFlags(flags)
}

// addCacheFlags registers the cache backend flags.
func addCacheFlags(flags *pflag.FlagSet) {
	if flags.Lookup("no-cache") != nil {
		return
	}
	flags.Bool("no-cache", false, "disable the layout cache")
	flags.String("redis-addr", "", "Redis address of a shared layout cache (default: local files)")
}

// loadSettings merges, in increasing priority: built-in defaults, the
// config file, FORCEGRAPH_* environment variables and explicitly set flags.
//
// The config file is --config when given (it must exist), else
// ./forcegraph.toml when present.
func loadSettings(flags *pflag.FlagSet) (*settings, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path, explicit := "", false
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			path, explicit = f.Value.String(), true
		}
	}
	if path == "" {
		path = defaultConfigFile
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if explicit || !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config file %s", path)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var s settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if err := k.Unmarshal("", &s.Layout); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode layout config")
	}
	if err := s.Viewport().Validate(); err != nil {
		return nil, err
	}
	if err := s.Layout.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// mapProvider serves an in-memory map to koanf.
type mapProvider map[string]any

func (p mapProvider) Read() (map[string]any, error) { return p, nil }

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("mapProvider does not support ReadBytes")
}
