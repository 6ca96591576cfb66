package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/metrics"
	"github.com/matzehuels/forcegraph/pkg/server"
	"github.com/matzehuels/forcegraph/pkg/watch"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	watch   bool
	metrics bool
	title   string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [nodes.json|nodes.toml]",
		Short: "Serve a live, draggable diagram in the browser",
		Long: `Serve a live, draggable diagram in the browser.

Each browser tab gets its own simulation. Dragging a node pins it and reheats
the layout; frames stream back over a WebSocket until the layout cools.

With --watch the node file is reloaded on change and open tabs refresh.`,
		Example: `  forcegraph serve nodes.json --watch
  forcegraph serve --addr :9000 --metrics`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd.Flags())
			if err != nil {
				return err
			}
			if opts.watch && len(args) == 0 {
				return fmt.Errorf("--watch needs a node file")
			}
			return c.runServe(cmd.Context(), args, s, opts)
		},
	}

	cmd.Flags().String("addr", defaultAddr, "listen address")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload the node file when it changes")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "expose Prometheus metrics at /metrics")
	cmd.Flags().StringVar(&opts.title, "title", "", "page title")
	addLayoutFlags(cmd.Flags())

	return cmd
}

// runServe serves the node set until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, args []string, s *settings, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	g, input, err := loadNodes(args)
	if err != nil {
		return err
	}
	if g.Len() == 0 {
		printWarning("No nodes in %s, the page will stay empty", input)
	}

	runner, err := c.newRunner(ctx, s)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srvOpts := server.Options{
		Viewport: s.Viewport(),
		Config:   s.Layout,
		Title:    opts.title,
	}
	if srvOpts.Title == "" {
		srvOpts.Title = appName + " · " + input
	}
	if opts.metrics {
		reg := metrics.NewRegistry()
		reg.Install()
		srvOpts.Metrics = reg.Handler()
	}

	srv := server.New(runner, g, logger, srvOpts)

	if opts.watch {
		if err := c.startWatch(ctx, srv, args[0]); err != nil {
			return err
		}
	}

	url := "http://" + s.Addr
	printSuccess("Serving %s", StyleLink.Render(url))
	printStats(g.Len(), 0, false)
	if opts.watch {
		printDetail("Watching %s", args[0])
	}
	printNewline()
	printNextStep("Stop", "Ctrl+C")

	return srv.ListenAndServe(ctx, s.Addr)
}

// startWatch reloads srv from path whenever the file changes.
func (c *CLI) startWatch(ctx context.Context, srv *server.Server, path string) error {
	w, err := watch.New(path, watch.WithLogger(c.Logger))
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			c.Logger.Error("watcher stopped", "err", err)
		}
	}()
	go srv.Watch(ctx, w)
	c.Logger.Debug("watching node file", "path", w.Path())
	return nil
}
