package graph_test

import (
	"fmt"
	"os"

	"github.com/matzehuels/forcegraph/pkg/graph"
)

func ExampleSample() {
	g := graph.Sample()
	for _, n := range g.Nodes {
		fmt.Printf("%d %s %s %g\n", n.ID, n.Name, n.Category(), *n.Weight)
	}
	// Output:
	// 0 Node 1 default 20
	// 1 Node 2 unique 100
	// 2 Node 3 default 50
	// 3 Node 4 default 50
	// 4 Node 5 default 80
}

func ExampleWrite() {
	g := &graph.Graph{Nodes: []graph.Node{
		{ID: 7, Name: "app", Weight: graph.Weight(3)},
	}}
	if err := graph.Write(g, os.Stdout, graph.FormatJSON); err != nil {
		fmt.Println("Error:", err)
	}
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": 7,
	//       "name": "app",
	//       "weight": 3
	//     }
	//   ]
	// }
}
