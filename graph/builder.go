package graph

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Builder converts wire-format graph data from the knowledge-graph service
// into an immutable Snapshot. Node IDs are deduplicated (last write wins),
// edges referencing missing nodes are dropped silently, and output ordering
// is deterministic so repeated builds of the same data are identical.
type Builder struct {
	logger *zap.SugaredLogger
}

// NewBuilder creates a snapshot builder.
func NewBuilder(logger *zap.SugaredLogger) *Builder {
	return &Builder{logger: logger.Named("graph.builder")}
}

// Build assembles a Snapshot from raw service records for the given scope.
// Nodes with an unrecognized category are dropped with a warning; the closed
// kind set is the contract every downstream component matches exhaustively.
func (b *Builder) Build(rawNodes []SourceNode, rawEdges []SourceEdge, groupID string) *Snapshot {
	snap := &Snapshot{
		Nodes: []Node{},
		Edges: []Edge{},
		Meta: Meta{
			GeneratedAt: time.Now(),
			GroupID:     groupID,
		},
	}

	// Track unique nodes by ID; duplicates overwrite rather than duplicate
	nodeMap := make(map[string]Node, len(rawNodes))
	for _, raw := range rawNodes {
		if raw.ID == "" {
			continue
		}

		kind, err := ParseNodeKind(raw.NodeType)
		if err != nil {
			b.logger.Warnw("Dropping node with unknown kind",
				"node_id", raw.ID,
				"node_type", raw.NodeType,
			)
			continue
		}

		node := Node{
			ID:    raw.ID,
			Label: raw.Label,
			Kind:  kind,
		}
		if node.Label == "" {
			node.Label = raw.ID
		}
		if ref, ok := raw.Properties["page_slug"].(string); ok {
			node.PageRef = ref
		}
		if stamp, ok := raw.Properties["updated_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339, stamp); err == nil {
				node.Updated = &t
			}
		}

		nodeMap[raw.ID] = node
	}

	// An edge survives only when both endpoints resolve to nodes in this
	// snapshot; the service may return partially stale references.
	edges := make([]Edge, 0, len(rawEdges))
	dropped := 0
	for _, raw := range rawEdges {
		kind, err := ParseEdgeKind(raw.EdgeType)
		if err != nil {
			b.logger.Warnw("Dropping edge with unknown kind",
				"source", raw.Source,
				"target", raw.Target,
				"edge_type", raw.EdgeType,
			)
			continue
		}

		if _, ok := nodeMap[raw.Source]; !ok {
			dropped++
			continue
		}
		if _, ok := nodeMap[raw.Target]; !ok {
			dropped++
			continue
		}

		edges = append(edges, Edge{
			Source: raw.Source,
			Target: raw.Target,
			Kind:   kind,
			At:     raw.ValidAt,
		})
	}
	if dropped > 0 {
		b.logger.Debugw("Dropped edges referencing missing nodes", "count", dropped)
	}

	// Convert map to slice with deterministic ordering
	// Sort by ID for consistent output across runs
	nodeIDs := make([]string, 0, len(nodeMap))
	for id := range nodeMap {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	for _, id := range nodeIDs {
		snap.Nodes = append(snap.Nodes, nodeMap[id])
	}

	// Sort edges by composite key for deterministic output
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		if edges[i].Target != edges[j].Target {
			return edges[i].Target < edges[j].Target
		}
		return edges[i].Kind < edges[j].Kind
	})
	snap.Edges = edges

	snap.Meta.Stats.TotalNodes = len(snap.Nodes)
	snap.Meta.Stats.TotalEdges = len(snap.Edges)
	snap.Meta.Kinds = collectKindInfo(snap.Nodes)

	return snap
}

// collectKindInfo counts nodes per kind in display order, skipping absent kinds.
func collectKindInfo(nodes []Node) []KindInfo {
	counts := make(map[NodeKind]int)
	for _, n := range nodes {
		counts[n.Kind]++
	}

	infos := make([]KindInfo, 0, len(counts))
	for _, kind := range AllNodeKinds() {
		if c, ok := counts[kind]; ok {
			infos = append(infos, KindInfo{Kind: kind, Count: c})
		}
	}
	return infos
}

// Degrees computes the connection count per node over the supplied edge list.
// Every node in nodes gets an entry, zero for isolated nodes. Edges whose
// endpoints are not in nodes do not contribute.
func Degrees(nodes []Node, edges []Edge) map[string]int {
	present := make(map[string]bool, len(nodes))
	degrees := make(map[string]int, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
		degrees[n.ID] = 0
	}
	for _, e := range edges {
		if present[e.Source] && present[e.Target] {
			degrees[e.Source]++
			degrees[e.Target]++
		}
	}
	return degrees
}
