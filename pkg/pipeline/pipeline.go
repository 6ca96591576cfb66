// Package pipeline runs the configure → render pipeline shared by the CLI
// and the server.
//
// # Stages
//
//  1. Layout: configure a [layout.Engine] for a node set, pre-generating
//     positions. The resulting snapshot is cached, so a second run with
//     the same nodes, config and viewport restores instead of simulating.
//  2. Render: build a [scene.Scene] and write it in each requested format
//     (svg, html, dot, pdf, png, json). Artifacts are cached per format.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, g, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	if res.Empty() {
//	    return nil // nothing to draw
//	}
//	os.WriteFile("graph.svg", res.Artifacts["svg"], 0o644)
//
// An empty node set is not an error: Execute returns an empty result and
// renders nothing.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/scene"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatHTML = "html"
	FormatDOT  = "dot"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// DefaultPNGScale is the resolution multiplier for PNG output.
const DefaultPNGScale = 2.0

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatHTML: true,
	FormatDOT:  true,
	FormatPDF:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// Options configures a pipeline run.
type Options struct {
	Viewport layout.Viewport `json:"viewport"`
	Config   layout.Config   `json:"config"`

	Formats     []string `json:"formats,omitempty"`
	Interactive bool     `json:"interactive,omitempty"`
	Scale       float64  `json:"scale,omitempty"`
	Title       string   `json:"title,omitempty"`

	// Refresh skips cache lookups; results are still written back.
	Refresh bool `json:"refresh,omitempty"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Engine    *layout.Engine
	Scene     *scene.Scene
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Empty reports whether the run had no nodes to draw.
func (r *Result) Empty() bool { return r == nil || r.Engine == nil }

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	Ticks      int
	Alpha      float64
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, formatList())
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func formatList() string {
	return strings.Join([]string{FormatSVG, FormatHTML, FormatDOT, FormatPDF, FormatPNG, FormatJSON}, ", ")
}

// SetDefaults fills zero fields. A zero Config becomes layout.DefaultConfig.
func (o *Options) SetDefaults() {
	if o.Viewport == (layout.Viewport{}) {
		o.Viewport = layout.DefaultViewport
	}
	if o.Config == (layout.Config{}) {
		o.Config = layout.DefaultConfig()
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultPNGScale
	}
}

// Validate applies defaults and checks every option.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := o.Viewport.Validate(); err != nil {
		return err
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %v", o.Scale)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return fmt.Errorf("formats: %w", err)
	}
	return nil
}
