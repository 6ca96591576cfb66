package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/render"
	"github.com/matzehuels/forcegraph/pkg/render/dot"
	"github.com/matzehuels/forcegraph/pkg/scene"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string   // output file (single format) or base path
	formats     []string // svg, html, dot, pdf, png, json
	layoutFile  string   // snapshot written by the layout command
	interactive bool     // embed pan/zoom/drag script in svg
	scale       float64  // png resolution multiplier
	title       string   // html page title
	graphviz    bool     // also render the dot source through graphviz
	refresh     bool     // ignore cached layouts and artifacts
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: pipeline.DefaultPNGScale}

	cmd := &cobra.Command{
		Use:   "render [nodes.json|nodes.toml]",
		Short: "Render the diagram to SVG, HTML, DOT, PDF or PNG",
		Long: `Render the diagram to SVG, HTML, DOT, PDF or PNG.

Positions come from a pre-generated layout, either computed from the node file
or restored from a snapshot written by 'forcegraph layout' (--layout).

PDF and PNG output require rsvg-convert (librsvg) on PATH.`,
		Example: `  forcegraph render nodes.json -f svg,html
  forcegraph render --layout nodes.layout.json -f png --scale 3
  forcegraph render nodes.toml --interactive -o diagram.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			s, err := loadSettings(cmd.Flags())
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args, s, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), html, dot, pdf, png, json (comma-separated)")
	cmd.Flags().StringVar(&opts.layoutFile, "layout", "", "render a layout snapshot instead of simulating")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "embed pan, zoom and drag support in SVG output")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG resolution multiplier")
	cmd.Flags().StringVar(&opts.title, "title", "", "HTML page title")
	cmd.Flags().BoolVar(&opts.graphviz, "graphviz", false, "also write <base>.gv.svg laid out by Graphviz with pinned positions")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	addLayoutFlags(cmd.Flags())

	return cmd
}

// runRender computes or restores the layout and writes every requested format.
func (c *CLI) runRender(ctx context.Context, args []string, s *settings, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, s)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := pipeline.Options{
		Viewport:    s.Viewport(),
		Config:      s.Layout,
		Formats:     opts.formats,
		Interactive: opts.interactive,
		Scale:       opts.scale,
		Title:       opts.title,
		Refresh:     opts.refresh,
	}
	if err := popts.Validate(); err != nil {
		return err
	}
	if needsRasterizer(popts.Formats) && !render.Available() {
		return errors.New(errors.ErrCodeUnsupported, "pdf and png output need rsvg-convert (librsvg) on PATH")
	}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	e, input, layoutHit, err := c.renderEngine(ctx, runner, args, opts.layoutFile, popts)
	if stderrors.Is(err, layout.ErrNoNodes) {
		spinner.Stop()
		printWarning("No nodes in %s, nothing to render", input)
		return nil
	}
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	// A restored snapshot carries its own config and viewport.
	popts.Config = e.Config()
	popts.Viewport = e.Viewport()
	logger.Debug("layout ready", "nodes", e.Len(), "ticks", e.PreGenerated(), "cached", layoutHit)

	sc := scene.Build(e)
	if popts.Title == "" {
		popts.Title = filepath.Base(basePath(input))
	}

	spinner.SetMessage("Rendering " + strings.Join(popts.Formats, ", ") + "...")
	prog := newProgress(logger)
	artifacts, renderHit, err := runner.RenderWithCacheInfo(ctx, e, sc, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done("rendered", "formats", strings.Join(popts.Formats, ","), "cached", renderHit)

	base := outputBase(opts.output, input)
	var written []string
	for _, format := range popts.Formats {
		path := base + "." + format
		if len(popts.Formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := writeOutput(path, artifacts[format]); err != nil {
			return err
		}
		written = append(written, path)
	}

	if opts.graphviz {
		data, err := dot.RenderSVG(ctx, dot.ToDOT(sc))
		if err != nil {
			return fmt.Errorf("graphviz: %w", err)
		}
		path := base + ".gv.svg"
		if err := writeOutput(path, data); err != nil {
			return err
		}
		written = append(written, path)
	}

	if opts.output == "-" {
		return nil
	}
	printSuccess("Render complete")
	for _, path := range written {
		printFile(path)
	}
	printStats(e.Len(), e.PreGenerated(), layoutHit && renderHit)
	return nil
}

// renderEngine restores the engine from layoutFile when set, else computes
// it from the node file in args. It also returns the input name used for
// output paths.
func (c *CLI) renderEngine(ctx context.Context, runner *pipeline.Runner, args []string, layoutFile string, opts pipeline.Options) (*layout.Engine, string, bool, error) {
	if layoutFile != "" {
		e, err := readLayout(layoutFile)
		return e, strings.TrimSuffix(layoutFile, ".layout.json"), true, err
	}

	g, input, err := loadNodes(args)
	if err != nil {
		return nil, "", false, err
	}
	e, hit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
	return e, input, hit, err
}

// readLayout restores an engine from a snapshot file. A snapshot without
// nodes yields layout.ErrNoNodes.
func readLayout(path string) (*layout.Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()

	snap, err := layout.ReadSnapshot(f)
	if err != nil {
		return nil, err
	}
	if len(snap.Nodes) == 0 {
		return nil, layout.ErrNoNodes
	}
	return layout.Restore(snap)
}

func needsRasterizer(formats []string) bool {
	for _, f := range formats {
		if f == pipeline.FormatPDF || f == pipeline.FormatPNG {
			return true
		}
	}
	return false
}

// outputBase derives the base output path from the output and input paths.
// A known format extension on output is stripped.
func outputBase(output, input string) string {
	if output == "" {
		return basePath(input)
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
