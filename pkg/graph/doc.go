// Package graph defines the node records that forcegraph lays out.
//
// A [Node] is an immutable input record: an integer id, a display name, an
// optional weight and an optional category. Node sets are read from JSON or
// TOML node files, or taken from the built-in [Sample].
//
// # Node Files
//
// JSON:
//
//	{
//	  "nodes": [
//	    {"id": 0, "name": "Node 1", "weight": 20},
//	    {"id": 1, "name": "Node 2", "type": "unique", "weight": 100}
//	  ]
//	}
//
// TOML:
//
//	[[nodes]]
//	id = 0
//	name = "Node 1"
//	weight = 20
//
// The format is chosen by file extension in [ReadFile] and [WriteFile].
//
// # Categories
//
// A node's category selects the CSS classes of its circle and label
// (node-<category> and node-text-<category>). An empty category means
// [DefaultCategory].
package graph
