package layout

import (
	"math"
	"testing"

	"github.com/matzehuels/forcegraph/pkg/errors"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"equal radii", func(c *Config) { c.MinNodeRadius, c.MaxNodeRadius = 12, 12 }, false},
		{"inverted radii", func(c *Config) { c.MinNodeRadius = 25 }, true},
		{"negative radius", func(c *Config) { c.MinNodeRadius = -1 }, true},
		{"zero zoom", func(c *Config) { c.MinZoom = 0 }, true},
		{"inverted zoom", func(c *Config) { c.MinZoom, c.MaxZoom = 5, 2 }, true},
		{"negative cap", func(c *Config) { c.PreGenerateMaxTicks = -1 }, true},
		{"zero cap", func(c *Config) { c.PreGenerateMaxTicks = 0 }, false},
		{"nan charge", func(c *Config) { c.NodeCharge = math.NaN() }, true},
		{"infinite gravity", func(c *Config) { c.GravityStrength = math.Inf(1) }, true},
		{"attractive charge", func(c *Config) { c.NodeCharge = 30 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Validate() code = %q, want INVALID_CONFIG", errors.GetCode(err))
			}
		})
	}
}

func TestViewport(t *testing.T) {
	x, y := Viewport{Width: 800, Height: 600}.Center()
	if x != 400 || y != 300 {
		t.Errorf("Center() = (%v, %v), want (400, 300)", x, y)
	}
	for _, v := range []Viewport{{}, {Width: -1, Height: 10}, {Width: math.NaN(), Height: 10}} {
		if err := v.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", v)
		}
	}
}
