package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		refresh bool
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "layout [nodes.json|nodes.toml]",
		Short: "Pre-generate a layout and write it as a JSON snapshot",
		Long: `Pre-generate a layout and write it as a JSON snapshot.

The snapshot holds every node's position, velocity and pin together with the
configuration and viewport it was computed for. 'render --layout' draws it
without simulating again.

Without a node file the built-in five-node sample is used.
Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd.Flags())
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args, s, output, refresh, quiet)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached layouts")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the position table")
	addLayoutFlags(cmd.Flags())

	return cmd
}

// runLayout loads the nodes, configures the engine and writes the snapshot.
func (c *CLI) runLayout(ctx context.Context, args []string, s *settings, output string, refresh, quiet bool) error {
	g, input, err := loadNodes(args)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, s)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Pre-generating layout...")
	spinner.Start()
	prog := newProgress(loggerFromContext(ctx))

	e, cacheHit, err := runner.LayoutWithCacheInfo(ctx, g, pipeline.Options{
		Viewport: s.Viewport(),
		Config:   s.Layout,
		Refresh:  refresh,
	})
	if stderrors.Is(err, layout.ErrNoNodes) {
		spinner.Stop()
		printWarning("No nodes in %s, nothing to lay out", input)
		return nil
	}
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	prog.done("laid out", "nodes", e.Len(), "ticks", e.PreGenerated(), "cached", cacheHit)

	var buf bytes.Buffer
	if err := layout.WriteSnapshot(e.Snapshot(), &buf); err != nil {
		return err
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath(input) + ".layout.json"
	}
	if err := writeOutput(outputPath, buf.Bytes()); err != nil {
		return err
	}
	if outputPath == "-" {
		return nil
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(e.Len(), e.PreGenerated(), cacheHit)
	if !quiet {
		printNewline()
		fmt.Println(positionTable(e.Snapshot()))
	}
	printNewline()
	printNextStep("Render", "forcegraph render --layout "+outputPath)

	return nil
}

// positionTable formats the snapshot as a table of node positions.
func positionTable(snap *layout.Snapshot) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ID", "NAME", "TYPE", "X", "Y", "PINNED")

	for i, n := range snap.Nodes {
		b := snap.Bodies[i]
		pinned := ""
		if b.Pin != nil {
			pinned = iconSuccess
		}
		t.Row(
			fmt.Sprint(n.ID),
			n.Name,
			n.Category(),
			fmt.Sprintf("%.1f", b.X),
			fmt.Sprintf("%.1f", b.Y),
			pinned,
		)
	}
	return t.String()
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
