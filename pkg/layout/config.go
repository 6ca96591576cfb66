package layout

import (
	stderrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/scale"
)

// Default configuration values.
const (
	DefaultMinZoom             = 0.1
	DefaultMaxZoom             = 10
	DefaultGravityStrength     = 0.2
	DefaultNodeCharge          = -1000
	DefaultPreGenerateMaxTicks = 10000
)

// Config holds the tunables of a layout. Zero is not a usable Config; start
// from DefaultConfig.
type Config struct {
	MinNodeRadius float64 `json:"min_node_radius" koanf:"min-node-radius" validate:"gte=0,ltefield=MaxNodeRadius"`
	MaxNodeRadius float64 `json:"max_node_radius" koanf:"max-node-radius" validate:"gte=0"`
	MinZoom       float64 `json:"min_zoom" koanf:"min-zoom" validate:"gt=0,ltefield=MaxZoom"`
	MaxZoom       float64 `json:"max_zoom" koanf:"max-zoom" validate:"gt=0"`

	GravityStrength float64 `json:"gravity_strength" koanf:"gravity-strength"`
	NodeCharge      float64 `json:"node_charge" koanf:"node-charge"`

	PreGenerate         bool `json:"pre_generate" koanf:"pre-generate"`
	PreGenerateFreeze   bool `json:"pre_generate_freeze" koanf:"pre-generate-freeze"`
	PreGenerateMaxTicks int  `json:"pre_generate_max_ticks" koanf:"pre-generate-max-ticks" validate:"gte=0"`

	// ReleaseOnDragEnd unpins a node when a drag ends. When false the node
	// stays where it was dropped.
	ReleaseOnDragEnd bool `json:"release_on_drag_end" koanf:"release-on-drag-end"`

	// Seed drives the jiggle applied to coincident nodes.
	Seed uint64 `json:"seed" koanf:"seed"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		MinNodeRadius:       scale.DefaultMinRadius,
		MaxNodeRadius:       scale.DefaultMaxRadius,
		MinZoom:             DefaultMinZoom,
		MaxZoom:             DefaultMaxZoom,
		GravityStrength:     DefaultGravityStrength,
		NodeCharge:          DefaultNodeCharge,
		PreGenerate:         true,
		PreGenerateMaxTicks: DefaultPreGenerateMaxTicks,
		Seed:                1,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first invalid field as an INVALID_CONFIG error.
func (c Config) Validate() error {
	finite := []struct {
		name string
		v    float64
	}{
		{"min-node-radius", c.MinNodeRadius},
		{"max-node-radius", c.MaxNodeRadius},
		{"min-zoom", c.MinZoom},
		{"max-zoom", c.MaxZoom},
		{"gravity-strength", c.GravityStrength},
		{"node-charge", c.NodeCharge},
	}
	for _, f := range finite {
		if err := errors.ValidateFinite(f.name, f.v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
		}
	}
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}

	e := verrs[0]
	var msg string
	switch e.Tag() {
	case "gte":
		msg = fmt.Sprintf("must be at least %s", e.Param())
	case "gt":
		msg = fmt.Sprintf("must be greater than %s", e.Param())
	case "ltefield":
		msg = fmt.Sprintf("must not exceed %s", e.Param())
	default:
		msg = fmt.Sprintf("validation failed (%s)", e.Tag())
	}
	return errors.New(errors.ErrCodeInvalidConfig, "%s: %s", e.Field(), msg)
}

// Viewport is the drawing area in pixels. It is read once at configuration
// time; later resizes do not move the force targets.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultViewport is used when no size is given.
var DefaultViewport = Viewport{Width: 960, Height: 600}

// Center returns the middle of the viewport.
func (v Viewport) Center() (x, y float64) { return v.Width / 2, v.Height / 2 }

// Validate rejects non-positive or non-finite sizes.
func (v Viewport) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"width", v.Width}, {"height", v.Height}} {
		if err := errors.ValidateFinite(f.name, f.v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid viewport")
		}
		if f.v <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "viewport %s must be positive, got %v", f.name, f.v)
		}
	}
	return nil
}
