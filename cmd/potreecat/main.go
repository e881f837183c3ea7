// Command potreecat opens a Potree v2 point cloud, loads its full
// hierarchy, and prints the node tree plus the point count decoded from
// one sample node.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kestrelpc/potree"
	"github.com/kestrelpc/potree/blob"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: potreecat <base-url>")
		fmt.Println("  base-url may be file:///path/to/cloud or http(s)://host/path/to/cloud")
		os.Exit(1)
	}

	baseURL := os.Args[1]
	ctx := context.Background()

	r, err := potree.Open(ctx, baseURL, blob.NewDefault())
	if err != nil {
		fmt.Printf("ERROR: failed to open %s: %v\n", baseURL, err)
		os.Exit(1)
	}

	meta := r.Metadata()
	fmt.Printf("=== %s ===\n", meta.Name)
	fmt.Printf("points: %d, encoding: %s, depth: %d\n\n", meta.Points, meta.Encoding, meta.Hierarchy.Depth)

	if err := r.LoadEntireHierarchy(ctx); err != nil {
		fmt.Printf("ERROR: failed to load hierarchy: %v\n", err)
		os.Exit(1)
	}

	snap := r.HierarchySnapshot()
	for _, n := range snap {
		fmt.Printf("%*s%s (level %d, %d pts)\n", int(n.Level)*2, "", n.Name, n.Level, n.NumPoints)
	}

	sample := findFirstLoadableNode(snap)
	if sample == nil {
		fmt.Println("\nno node with points to decode")
		return
	}

	pts, err := r.LoadPoints(ctx, sample.ID)
	if err != nil {
		fmt.Printf("\nERROR: failed to decode points for node %q: %v\n", sample.Name, err)
		os.Exit(1)
	}
	fmt.Printf("\ndecoded %d points from node %q\n", len(pts), sample.Name)
}

func findFirstLoadableNode(snap []potree.SnapshotNode) *potree.SnapshotNode {
	for i := range snap {
		if snap[i].NumPoints > 0 {
			return &snap[i]
		}
	}
	return nil
}
