package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/forcegraph/pkg/render"
	"github.com/matzehuels/forcegraph/pkg/render/dot"
	"github.com/matzehuels/forcegraph/pkg/render/html"
	"github.com/matzehuels/forcegraph/pkg/render/svg"
	"github.com/matzehuels/forcegraph/pkg/scene"
)

// Render writes s in every format of opts. snapshot is the JSON layout
// snapshot emitted for the json format.
func Render(ctx context.Context, s *scene.Scene, snapshot []byte, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	// Rasterized and exported forms share one plain SVG.
	var plain []byte
	plainSVG := func() []byte {
		if plain == nil {
			plain = svg.Render(s)
		}
		return plain
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			if opts.Interactive {
				data = svg.Render(s, svg.WithInteraction(opts.Config.MinZoom, opts.Config.MaxZoom))
			} else {
				data = plainSVG()
			}
		case FormatHTML:
			data, err = html.Render(s, html.Options{
				Title:   opts.Title,
				MinZoom: opts.Config.MinZoom,
				MaxZoom: opts.Config.MaxZoom,
			})
		case FormatDOT:
			data = []byte(dot.ToDOT(s))
		case FormatPDF:
			data, err = render.ToPDF(ctx, plainSVG())
		case FormatPNG:
			data, err = render.ToPNG(ctx, plainSVG(), opts.Scale)
		case FormatJSON:
			data = snapshot
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
