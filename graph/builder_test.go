package graph

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func testBuilder() *Builder {
	return NewBuilder(zap.NewNop().Sugar())
}

// TestBuildEmpty tests empty input
func TestBuildEmpty(t *testing.T) {
	snap := testBuilder().Build(nil, nil, "wiki-ws-1")

	if len(snap.Nodes) != 0 {
		t.Errorf("Expected 0 nodes, got %d", len(snap.Nodes))
	}
	if len(snap.Edges) != 0 {
		t.Errorf("Expected 0 edges, got %d", len(snap.Edges))
	}
	if snap.Meta.Stats.TotalNodes != 0 {
		t.Errorf("Meta TotalNodes = %d, want 0", snap.Meta.Stats.TotalNodes)
	}
	if snap.Meta.GroupID != "wiki-ws-1" {
		t.Errorf("Meta GroupID = %q, want wiki-ws-1", snap.Meta.GroupID)
	}
}

// TestBuildNodeDeduplication tests that duplicate node IDs overwrite rather than duplicate
func TestBuildNodeDeduplication(t *testing.T) {
	nodes := []SourceNode{
		{ID: "alice", Label: "Alice", NodeType: "person"},
		{ID: "alice", Label: "Alice B.", NodeType: "person"},
	}

	snap := testBuilder().Build(nodes, nil, "g")

	if len(snap.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(snap.Nodes))
	}
	if snap.Nodes[0].Label != "Alice B." {
		t.Errorf("Expected last write to win, got label %q", snap.Nodes[0].Label)
	}
}

// TestBuildDropsDanglingEdges tests that edges referencing missing nodes are dropped silently
func TestBuildDropsDanglingEdges(t *testing.T) {
	nodes := []SourceNode{
		{ID: "a", NodeType: "page"},
		{ID: "b", NodeType: "concept"},
	}
	edges := []SourceEdge{
		{Source: "a", Target: "b", EdgeType: "link"},
		{Source: "a", Target: "ghost", EdgeType: "link"},
		{Source: "ghost", Target: "b", EdgeType: "mention"},
	}

	snap := testBuilder().Build(nodes, edges, "g")

	if len(snap.Edges) != 1 {
		t.Fatalf("Expected 1 edge, got %d", len(snap.Edges))
	}
	if snap.Edges[0].Source != "a" || snap.Edges[0].Target != "b" {
		t.Errorf("Surviving edge = %s->%s, want a->b", snap.Edges[0].Source, snap.Edges[0].Target)
	}
}

// TestBuildDropsUnknownKinds tests that nodes outside the closed kind set are dropped
func TestBuildDropsUnknownKinds(t *testing.T) {
	nodes := []SourceNode{
		{ID: "a", NodeType: "page"},
		{ID: "x", NodeType: "spreadsheet"},
	}

	snap := testBuilder().Build(nodes, nil, "g")

	if len(snap.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(snap.Nodes))
	}
	if snap.Nodes[0].ID != "a" {
		t.Errorf("Expected node a to survive, got %q", snap.Nodes[0].ID)
	}
}

// TestBuildDeterministicOrdering tests that repeated builds produce identical ordering
func TestBuildDeterministicOrdering(t *testing.T) {
	nodes := []SourceNode{
		{ID: "zeta", NodeType: "concept"},
		{ID: "alpha", NodeType: "page"},
		{ID: "mid", NodeType: "person"},
	}
	edges := []SourceEdge{
		{Source: "zeta", Target: "alpha", EdgeType: "mention"},
		{Source: "alpha", Target: "mid", EdgeType: "link"},
	}

	first := testBuilder().Build(nodes, edges, "g")
	second := testBuilder().Build(nodes, edges, "g")

	for i := range first.Nodes {
		if first.Nodes[i].ID != second.Nodes[i].ID {
			t.Errorf("Node order differs at %d: %q vs %q", i, first.Nodes[i].ID, second.Nodes[i].ID)
		}
	}
	if first.Nodes[0].ID != "alpha" {
		t.Errorf("Expected nodes sorted by ID, first is %q", first.Nodes[0].ID)
	}
	for i := range first.Edges {
		if first.Edges[i] != second.Edges[i] {
			t.Errorf("Edge order differs at %d", i)
		}
	}
}

// TestBuildKindCounts tests per-kind badge counts
func TestBuildKindCounts(t *testing.T) {
	nodes := []SourceNode{
		{ID: "p1", NodeType: "page"},
		{ID: "p2", NodeType: "page"},
		{ID: "c1", NodeType: "concept"},
	}

	snap := testBuilder().Build(nodes, nil, "g")

	if len(snap.Meta.Kinds) != 2 {
		t.Fatalf("Expected 2 kind entries, got %d", len(snap.Meta.Kinds))
	}
	if snap.Meta.Kinds[0].Kind != KindPage || snap.Meta.Kinds[0].Count != 2 {
		t.Errorf("Kinds[0] = %+v, want page count 2", snap.Meta.Kinds[0])
	}
	if snap.Meta.Kinds[1].Kind != KindConcept || snap.Meta.Kinds[1].Count != 1 {
		t.Errorf("Kinds[1] = %+v, want concept count 1", snap.Meta.Kinds[1])
	}
}

// TestBuildParsesProperties tests page_slug and updated_at extraction
func TestBuildParsesProperties(t *testing.T) {
	stamp := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	nodes := []SourceNode{
		{
			ID:       "getting-started",
			Label:    "Getting Started",
			NodeType: "WikiPage",
			Properties: map[string]interface{}{
				"page_slug":  "getting-started",
				"updated_at": stamp.Format(time.RFC3339),
			},
		},
	}

	snap := testBuilder().Build(nodes, nil, "g")

	if len(snap.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(snap.Nodes))
	}
	n := snap.Nodes[0]
	if n.Kind != KindPage {
		t.Errorf("Kind = %q, want page", n.Kind)
	}
	if n.PageRef != "getting-started" {
		t.Errorf("PageRef = %q, want getting-started", n.PageRef)
	}
	if n.Updated == nil || !n.Updated.Equal(stamp) {
		t.Errorf("Updated = %v, want %v", n.Updated, stamp)
	}
}

// TestDegrees tests connection count computation including isolated nodes
func TestDegrees(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []Edge{
		{Source: "a", Target: "b", Kind: EdgeLink},
		{Source: "a", Target: "ghost", Kind: EdgeLink},
	}

	deg := Degrees(nodes, edges)

	if deg["a"] != 1 || deg["b"] != 1 {
		t.Errorf("Degrees a=%d b=%d, want 1 1", deg["a"], deg["b"])
	}
	if deg["c"] != 0 {
		t.Errorf("Isolated node degree = %d, want 0", deg["c"])
	}
	if _, ok := deg["ghost"]; ok {
		t.Error("Edge to missing node must not create a degree entry")
	}
}
