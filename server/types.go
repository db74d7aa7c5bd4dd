package server

import (
	"time"

	"github.com/kanbu/wikigraph/graph"
	"github.com/kanbu/wikigraph/graph/cluster"
	"github.com/kanbu/wikigraph/graph/filter"
	"github.com/kanbu/wikigraph/graph/layout"
	"github.com/kanbu/wikigraph/graph/view"
)

const (
	// MaxClients is the maximum number of concurrent WebSocket clients
	MaxClients = 100
	// MaxClientMessageQueueSize is the size of per-client message queues
	MaxClientMessageQueueSize = 256
	// ShutdownTimeout is how long to wait for graceful shutdown
	ShutdownTimeout = 10 * time.Second
)

// WebSocket timeout constants following Gorilla best practices
// See: https://github.com/gorilla/websocket/blob/master/examples/chat/client.go
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

// ClientMessage represents an incoming WebSocket message from the UI
type ClientMessage struct {
	Type      string  `json:"type"`      // "filter", "layout", "hover", "hover_leave", "designate", "clear", "set_verbosity", "ping"
	Query     string  `json:"query"`     // For filter messages: filter expression (kind=... since=... cap=...)
	NodeID    string  `json:"node_id"`   // For hover/designate messages
	Layout    string  `json:"layout"`    // For layout messages: "force", "hierarchical", "radial", "timeaxis"
	Width     float64 `json:"width"`     // For layout messages: viewport width
	Height    float64 `json:"height"`    // For layout messages: viewport height
	Verbosity int     `json:"verbosity"` // For set_verbosity messages
}

// ViewMessage is one fully recomputed view for one client: the filtered
// subgraph plus every derived attribute the renderer needs.
type ViewMessage struct {
	Type string `json:"type"` // "view"

	Nodes   []graph.Node   `json:"nodes"`
	Edges   []graph.Edge   `json:"edges"`
	Degrees map[string]int `json:"degrees"`
	Depths  map[string]int `json:"depths,omitempty"`

	KindCounts     map[graph.NodeKind]int `json:"kind_counts"`
	TotalBeforeCap int                    `json:"total_before_cap"`
	Truncated      bool                   `json:"truncated"`

	Clusters map[string]int `json:"clusters"`
	Layout   layout.Layout  `json:"layout"`

	Interaction view.State `json:"interaction"`

	Meta graph.Meta `json:"meta"`
}

// ErrorMessage reports a recoverable per-client failure (bad filter
// expression, unknown layout mode) without tearing down the session.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// VersionMessage is sent once on connect
type VersionMessage struct {
	Type      string `json:"type"` // "version"
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// buildView assembles a ViewMessage from a snapshot and per-client state.
// Pure over its inputs; both the WebSocket recompute path and the REST
// handlers go through it.
func buildView(snap *graph.Snapshot, cfg filter.Config, sel *layout.Selector, mode layout.Mode, vp layout.Viewport, state view.State) ViewMessage {
	res := filter.Apply(snap, cfg)
	var meta graph.Meta
	if snap != nil {
		meta = snap.Meta
	}
	return ViewMessage{
		Type:           "view",
		Nodes:          res.Nodes,
		Edges:          res.Edges,
		Degrees:        res.Degrees,
		Depths:         res.Depths,
		KindCounts:     res.KindCounts,
		TotalBeforeCap: res.TotalBeforeCap,
		Truncated:      res.Truncated,
		Clusters:       cluster.Assign(res.Nodes, res.Edges),
		Layout:         sel.Select(mode, res.Nodes, vp),
		Interaction:    state,
		Meta:           meta,
	}
}
