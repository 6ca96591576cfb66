// Package cli implements the forcegraph command-line interface.
//
// # Commands
//
//   - layout: pre-generate a layout and write it as a JSON snapshot
//   - render: write SVG, HTML, DOT, PDF or PNG from a node file or snapshot
//   - serve: serve a live diagram in the browser
//   - view: explore the diagram in the terminal
//   - cache: manage the layout cache
//
// # Configuration
//
// Layout and viewport settings come from flags, FORCEGRAPH_* environment
// variables and forcegraph.toml, in that order of precedence.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the forcegraph logger: timestamps as "15:04:05.00",
// filtered at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one step of a command (layout, render) and logs its
// outcome with the elapsed time as a structured field.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and an elapsed field, e.g.
//
//	14:32:01.45 INFO layout: laid out nodes=5 ticks=300 elapsed=12ms
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey struct{}

// withLogger attaches l to ctx, prefixed with the command name when one is
// given.
func withLogger(ctx context.Context, l *log.Logger, command string) context.Context {
	if command != "" {
		l = l.WithPrefix(command)
	}
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() for contexts that never went through the root command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
