package graph

import (
	"time"

	"github.com/kanbu/wikigraph/errors"
)

// NodeKind is the closed set of node categories in a wiki knowledge graph.
// Unrecognized categories fail ParseNodeKind rather than silently passing
// through, so downstream switches can be exhaustive.
type NodeKind string

const (
	KindPage    NodeKind = "page"    // wiki page
	KindConcept NodeKind = "concept" // extracted concept/entity
	KindPerson  NodeKind = "person"  // person mentioned in or authoring content
	KindTask    NodeKind = "task"    // task/issue reference (e.g. KANBU-123)
)

// AllNodeKinds returns every valid node kind in display order.
func AllNodeKinds() []NodeKind {
	return []NodeKind{KindPage, KindConcept, KindPerson, KindTask}
}

// Valid reports whether k is a member of the closed kind set.
func (k NodeKind) Valid() bool {
	switch k {
	case KindPage, KindConcept, KindPerson, KindTask:
		return true
	}
	return false
}

// ParseNodeKind maps a wire-format type string onto the closed kind set.
// The upstream extraction service labels entities with its own type names
// (WikiPage, KanbuUser, ...), so common aliases are accepted.
func ParseNodeKind(s string) (NodeKind, error) {
	switch s {
	case "page", "wiki_page", "WikiPage":
		return KindPage, nil
	case "concept", "Concept":
		return KindConcept, nil
	case "person", "user", "KanbuUser", "Person":
		return KindPerson, nil
	case "task", "KanbuTask", "Task":
		return KindTask, nil
	}
	return "", errors.Newf("unknown node kind %q", s)
}

// EdgeKind is the closed set of edge relation categories.
type EdgeKind string

const (
	EdgeLink    EdgeKind = "link"    // explicit wiki link between pages
	EdgeMention EdgeKind = "mention" // entity mention extracted from content
)

// Valid reports whether k is a member of the closed edge kind set.
func (k EdgeKind) Valid() bool {
	return k == EdgeLink || k == EdgeMention
}

// ParseEdgeKind maps a wire-format relation string onto the closed edge set.
func ParseEdgeKind(s string) (EdgeKind, error) {
	switch s {
	case "link", "links_to", "relates_to":
		return EdgeLink, nil
	case "mention", "mentions", "mentioned_in":
		return EdgeMention, nil
	}
	return "", errors.Newf("unknown edge kind %q", s)
}

// Node represents an entity in the graph. The base node value is immutable
// once a snapshot is built; derived attributes (connection count, cluster id,
// depth from focus) live in side tables keyed by node ID.
type Node struct {
	ID      string     `json:"id"`
	Label   string     `json:"label"`
	Kind    NodeKind   `json:"kind"`
	PageRef string     `json:"page_ref,omitempty"` // slug of the wiki page this node was extracted from
	Updated *time.Time `json:"updated,omitempty"`  // last content update, nil when unknown
}

// Edge represents a directed relationship between two nodes. Direction matters
// for display only; traversal treats every edge as undirected.
type Edge struct {
	Source string     `json:"source"` // Node ID
	Target string     `json:"target"` // Node ID
	Kind   EdgeKind   `json:"kind"`
	At     *time.Time `json:"at,omitempty"`
}

// Stats provides graph statistics
type Stats struct {
	TotalNodes int `json:"total_nodes"`
	TotalEdges int `json:"total_edges"`
}

// KindInfo describes one node kind present in a snapshot, for display badges.
type KindInfo struct {
	Kind  NodeKind `json:"kind"`
	Count int      `json:"count"`
}

// Meta contains metadata about a snapshot
type Meta struct {
	GeneratedAt time.Time         `json:"generated_at"`
	GroupID     string            `json:"group_id,omitempty"` // scope the snapshot was fetched for
	Stats       Stats             `json:"stats"`
	Kinds       []KindInfo        `json:"kinds,omitempty"`
	Config      map[string]string `json:"config,omitempty"` // informational notes for UI display
}

// Snapshot is one immutable fetch of the full node/edge graph for a scope.
// It is fetched once per view session; all filter, traversal and clustering
// operations derive new views and never mutate the snapshot in place.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Meta  Meta   `json:"meta"`
}

// SourceNode is the wire format of a node as returned by the knowledge-graph
// service (GET /graph/{group_id}).
type SourceNode struct {
	ID         string                 `json:"id"`
	Label      string                 `json:"label"`
	NodeType   string                 `json:"node_type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// SourceEdge is the wire format of an edge as returned by the service.
type SourceEdge struct {
	Source   string     `json:"source"`
	Target   string     `json:"target"`
	EdgeType string     `json:"edge_type"`
	Fact     string     `json:"fact,omitempty"`
	ValidAt  *time.Time `json:"valid_at,omitempty"`
}
