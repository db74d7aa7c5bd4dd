package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kanbu/wikigraph/config"
	"github.com/kanbu/wikigraph/graph/cluster"
	"github.com/kanbu/wikigraph/graph/filter"
	"github.com/kanbu/wikigraph/graph/layout"
	"github.com/kanbu/wikigraph/graph/traverse"
	"github.com/kanbu/wikigraph/graph/view"
	"github.com/kanbu/wikigraph/logger"
	"github.com/kanbu/wikigraph/version"
)

// HandleWebSocket upgrades the connection and starts a view session
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("WebSocket upgrade failed",
			logger.FieldError, err.Error(),
		)
		return
	}

	client := newClient(s, conn, uuid.NewString())

	// Send version info BEFORE starting writePump (avoid concurrent writes)
	versionInfo := version.Get()
	versionMsg := VersionMessage{
		Type:      "version",
		Version:   versionInfo.Version,
		Commit:    versionInfo.Short(),
		BuildTime: versionInfo.BuildTime,
	}
	if err := conn.WriteJSON(versionMsg); err != nil {
		s.logger.Debugw("Failed to send version info",
			logger.FieldClientID, client.id,
			logger.FieldError, err,
		)
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// HandleHealth reports server and snapshot status
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()

	s.mu.RLock()
	clientCount := len(s.clients)
	s.mu.RUnlock()

	snap := s.Snapshot()
	nodeCount, edgeCount := 0, 0
	if snap != nil {
		nodeCount = len(snap.Nodes)
		edgeCount = len(snap.Edges)
	}

	health := map[string]interface{}{
		"status":     "ok",
		"version":    versionInfo.Version,
		"commit":     versionInfo.CommitHash,
		"build_time": versionInfo.BuildTime,
		"clients":    clientCount,
		"verbosity":  int(s.verbosity.Load()),
		"nodes":      nodeCount,
		"edges":      edgeCount,
	}

	writeJSON(w, http.StatusOK, health)
}

// parseViewQuery assembles filter config, layout mode and viewport from
// request query parameters shared by the REST handlers
func (s *Server) parseViewQuery(r *http.Request) (filter.Config, layout.Mode, layout.Viewport, error) {
	engine := s.config().Engine
	base := filter.DefaultConfig()
	base.MaxNodes = engine.MaxNodes
	base.Depth = engine.DepthLimit

	cfg, err := filter.ParseQueryWith(base, r.URL.Query().Get("q"))
	if err != nil {
		return cfg, layout.ModeForce, layout.Viewport{}, err
	}

	mode, err := layout.ParseMode(r.URL.Query().Get("layout"))
	if err != nil {
		return cfg, mode, layout.Viewport{}, err
	}

	vp := layout.Viewport{Width: 1280, Height: 720}
	return cfg, mode, vp, nil
}

// HandleGraph serves one filtered, clustered, laid-out view as JSON.
// Query parameters: q (filter expression), layout (mode name).
func (s *Server) HandleGraph(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	cfg, mode, vp, err := s.parseViewQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	v := buildView(s.Snapshot(), cfg, s.layoutSelector(), mode, vp, view.State{Phase: view.PhaseIdle})

	s.logger.Debugw("Graph view served",
		logger.FieldQuery, r.URL.Query().Get("q"),
		logger.FieldNodeCount, len(v.Nodes),
		logger.FieldEdgeCount, len(v.Edges),
	)

	writeJSON(w, http.StatusOK, v)
}

// HandlePath computes the shortest path between two nodes over the filtered
// subgraph. "No path" is an informational outcome, not an error.
func (s *Server) HandlePath(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "start and end parameters are required")
		return
	}

	cfg, _, _, err := s.parseViewQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := filter.Apply(s.Snapshot(), cfg)
	path := traverse.ShortestPath(res.Nodes, res.Edges, start, end)

	writeJSON(w, http.StatusOK, path)
}

// HandleClusters serves connected-component assignments for the filtered subgraph
func (s *Server) HandleClusters(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	cfg, _, _, err := s.parseViewQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := filter.Apply(s.Snapshot(), cfg)
	assign := cluster.Assign(res.Nodes, res.Edges)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"clusters": assign,
		"groups":   cluster.Members(res.Nodes, assign),
	})
}

// settingsRequest carries engine settings changed from the UI. Nil fields are
// left untouched.
type settingsRequest struct {
	MaxNodes   *int `json:"max_nodes,omitempty"`
	DepthLimit *int `json:"depth_limit,omitempty"`
	Physics    *struct {
		ChargeStrength float64 `json:"charge_strength"`
		LinkDistance   float64 `json:"link_distance"`
		LinkStrength   float64 `json:"link_strength"`
	} `json:"physics,omitempty"`
}

// HandleSettings persists engine settings changed from the UI and applies
// them live. Values are written to the UI-override config file so they
// survive restarts; connected clients get recomputed views immediately.
func (s *Server) HandleSettings(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload: "+err.Error())
		return
	}

	newCfg := *s.config()

	if req.MaxNodes != nil {
		if *req.MaxNodes < 0 {
			writeError(w, http.StatusBadRequest, "max_nodes must be zero or positive")
			return
		}
		if err := config.UpdateEngineMaxNodes(*req.MaxNodes); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to persist max_nodes: "+err.Error())
			return
		}
		newCfg.Engine.MaxNodes = *req.MaxNodes
	}
	if req.DepthLimit != nil {
		if *req.DepthLimit < 0 {
			writeError(w, http.StatusBadRequest, "depth_limit must be zero or positive")
			return
		}
		if err := config.UpdateEngineDepthLimit(*req.DepthLimit); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to persist depth_limit: "+err.Error())
			return
		}
		newCfg.Engine.DepthLimit = *req.DepthLimit
	}
	if req.Physics != nil {
		p := req.Physics
		if p.LinkDistance <= 0 || p.LinkStrength < 0 || p.LinkStrength > 1 {
			writeError(w, http.StatusBadRequest, "invalid physics tuning")
			return
		}
		if err := config.UpdatePhysics(p.ChargeStrength, p.LinkDistance, p.LinkStrength); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to persist physics: "+err.Error())
			return
		}
		newCfg.Engine.Physics = config.Physics{
			ChargeStrength: p.ChargeStrength,
			LinkDistance:   p.LinkDistance,
			LinkStrength:   p.LinkStrength,
		}
	}

	s.applyConfig(&newCfg)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"engine": map[string]interface{}{
			"max_nodes":   newCfg.Engine.MaxNodes,
			"depth_limit": newCfg.Engine.DepthLimit,
			"physics": map[string]interface{}{
				"charge_strength": newCfg.Engine.Physics.ChargeStrength,
				"link_distance":   newCfg.Engine.Physics.LinkDistance,
				"link_strength":   newCfg.Engine.Physics.LinkStrength,
			},
		},
	})
}

// HandleConfig serves the effective engine configuration
func (s *Server) HandleConfig(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	cfg := s.config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"server": map[string]interface{}{
			"port":            cfg.Server.Port,
			"allowed_origins": cfg.Server.AllowedOrigins,
		},
		"fetch": map[string]interface{}{
			"base_url":        cfg.Fetch.BaseURL,
			"timeout_seconds": cfg.Fetch.TimeoutSeconds,
		},
		"engine": map[string]interface{}{
			"max_nodes":   cfg.Engine.MaxNodes,
			"depth_limit": cfg.Engine.DepthLimit,
			"physics": map[string]interface{}{
				"charge_strength": cfg.Engine.Physics.ChargeStrength,
				"link_distance":   cfg.Engine.Physics.LinkDistance,
				"link_strength":   cfg.Engine.Physics.LinkStrength,
			},
		},
	})
}
