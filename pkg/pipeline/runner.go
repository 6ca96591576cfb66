package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forcegraph/pkg/cache"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/observability"
	"github.com/matzehuels/forcegraph/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs layout and render for g. An empty node set yields an empty
// Result and no error.
func (r *Runner) Execute(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	layoutStart := time.Now()
	e, hit, err := r.LayoutWithCacheInfo(ctx, g, opts)
	if stderrors.Is(err, layout.ErrNoNodes) {
		r.Logger.Debug("no nodes, nothing to draw")
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Engine = e
	result.Stats.NodeCount = e.Len()
	result.Stats.Ticks = e.PreGenerated()
	result.Stats.Alpha = e.Alpha()
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = hit

	r.Logger.Info("computed layout",
		"nodes", e.Len(),
		"ticks", e.PreGenerated(),
		"alpha", e.Alpha(),
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	result.Scene = scene.Build(e)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, e, result.Scene, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo configures an engine for g, restoring it from the
// cached snapshot when one exists. It returns layout.ErrNoNodes for an
// empty node set.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (*layout.Engine, bool, error) {
	opts.SetDefaults()
	if g.Len() == 0 {
		return nil, false, layout.ErrNoNodes
	}

	var nodes bytes.Buffer
	if err := graph.Write(g, &nodes, graph.FormatJSON); err != nil {
		return nil, false, fmt.Errorf("serialize nodes for cache key: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(nodes.Bytes()), cache.LayoutKeyOpts{
		Width:  opts.Viewport.Width,
		Height: opts.Viewport.Height,
		Config: opts.Config,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			e, err := restore(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return e, true, nil
			}
			r.Logger.Debug("discarding cached layout", "key", cacheKey, "err", err)
		} else if err != nil {
			r.Logger.Warn("layout cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, g.Len())
	start := time.Now()
	e, err := layout.Configure(ctx, g, opts.Viewport, opts.Config)
	ticks := 0
	if e != nil {
		ticks = e.PreGenerated()
	}
	hooks.OnLayoutComplete(ctx, g.Len(), ticks, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	if err := layout.WriteSnapshot(e.Snapshot(), &buf); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, buf.Bytes(), cache.TTLLayout); err != nil {
			r.Logger.Warn("layout cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", buf.Len())
		}
	}

	return e, false, nil
}

// Layout is a convenience wrapper that discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, g *graph.Graph, opts Options) (*layout.Engine, error) {
	e, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return e, err
}

func restore(data []byte) (*layout.Engine, error) {
	snap, err := layout.ReadSnapshot(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return layout.Restore(snap)
}

// RenderWithCacheInfo renders s in every requested format. Artifacts are
// keyed by the engine snapshot, so a moved node invalidates them.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, e *layout.Engine, s *scene.Scene, opts Options) (map[string][]byte, bool, error) {
	opts.SetDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	var snap bytes.Buffer
	if err := layout.WriteSnapshot(e.Snapshot(), &snap); err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(snap.Bytes())

	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(layoutHash, artifactKeyOpts(opts, format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, s, snap.Bytes(), opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, artifactKeyOpts(opts, format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("artifact cache write failed", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

func artifactKeyOpts(opts Options, format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Interactive: opts.Interactive}
	if format == FormatPNG {
		k.Scale = opts.Scale
	}
	return k
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
