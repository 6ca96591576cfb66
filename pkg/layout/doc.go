// Package layout positions a node set with a force simulation and is the
// single owner of its mutable layout state.
//
// [Configure] builds an [Engine] for a node set and viewport:
//
//	eng, err := layout.Configure(ctx, g, layout.Viewport{Width: 800, Height: 600}, layout.DefaultConfig())
//	if errors.Is(err, layout.ErrNoNodes) {
//	    return nil // nothing to draw
//	}
//
// The engine registers five forces in order: charge, center, collide, x
// and y. With [Config.PreGenerate] set it runs the simulation synchronously
// until it cools or [Config.PreGenerateMaxTicks] is reached, so the first
// frame is already close to converged.
//
// # Messages
//
// All later changes to positions go through [Engine.Update], which consumes
// a [Message] ([Tick], [DragStart], [DragMove] or [DragEnd]) and returns the
// projected frame. Live surfaces own one engine per viewer and feed it
// messages from a single goroutine.
//
// # Snapshots
//
// [Engine.Snapshot] captures the full layout state as a JSON-friendly
// [Snapshot]; [Restore] rebuilds an engine from one without pre-generating.
package layout
