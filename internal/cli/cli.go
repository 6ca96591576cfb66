package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/buildinfo"
	"github.com/matzehuels/forcegraph/pkg/cache"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "forcegraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   appName,
		Short: "forcegraph lays out and renders force-directed node diagrams",
		Long: `forcegraph places nodes with a force simulation (repulsion, centring and
collision avoidance) and renders the result as SVG, HTML, DOT, PDF or PNG,
serves it live in a browser, or shows it in the terminal.`,
		Version:      buildinfo.Resolve(),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger, cmd.Name()))
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner backed by Redis when s.RedisAddr is
// set, else by the file cache. Keys are scoped by snapshot version so a
// format change never restores an incompatible entry.
func (c *CLI) newRunner(ctx context.Context, s *settings) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, s)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, newKeyer(), c.Logger), nil
}

func newKeyer() cache.Keyer {
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), fmt.Sprintf("v%d:", layout.SnapshotVersion))
}

func newCache(ctx context.Context, s *settings) (cache.Cache, error) {
	switch {
	case s.NoCache:
		return cache.NewNullCache(), nil
	case s.RedisAddr != "":
		return cache.NewRedisCache(ctx, s.RedisAddr)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/forcegraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// loadNodes reads the node file named by args, or returns the built-in
// sample when args is empty.
func loadNodes(args []string) (*graph.Graph, string, error) {
	if len(args) == 0 {
		return graph.Sample(), "sample", nil
	}
	g, err := graph.ReadFile(args[0])
	if err != nil {
		return nil, "", err
	}
	return g, args[0], nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// basePath strips the extension from input, falling back to appName.
func basePath(input string) string {
	if input == "" || input == "sample" {
		return appName
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}
