package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/kanbu/wikigraph/graph/filter"
	"github.com/kanbu/wikigraph/graph/layout"
	"github.com/kanbu/wikigraph/graph/view"
	"github.com/kanbu/wikigraph/logger"
)

// recomputeRate bounds per-client view recomputation. Slider-style UI
// controls emit filter messages on every tick; anything beyond this rate is
// coalesced by dropping intermediate states.
const (
	recomputeRate  = rate.Limit(20) // recomputes per second
	recomputeBurst = 40
)

// Client represents one WebSocket session with its own view state
type Client struct {
	server *Server
	conn   *websocket.Conn
	send   chan interface{}
	id     string

	// Per-session view state, confined to the session per the engine's
	// single-writer model. The mutex covers REST-free access only; all
	// mutation happens on the readPump goroutine.
	mu       sync.Mutex
	filter   filter.Config
	mode     layout.Mode
	viewport layout.Viewport
	machine  *view.Machine

	limiter   *rate.Limiter
	closeOnce sync.Once
}

// newClient creates a session with engine defaults from config
func newClient(s *Server, conn *websocket.Conn, id string) *Client {
	engine := s.config().Engine
	cfg := filter.DefaultConfig()
	cfg.MaxNodes = engine.MaxNodes
	cfg.Depth = engine.DepthLimit

	return &Client{
		server:   s,
		conn:     conn,
		send:     make(chan interface{}, MaxClientMessageQueueSize),
		id:       id,
		filter:   cfg,
		mode:     layout.ModeForce,
		viewport: layout.Viewport{Width: 1280, Height: 720},
		machine:  view.NewMachine(),
		limiter:  rate.NewLimiter(recomputeRate, recomputeBurst),
	}
}

// close closes the send channel exactly once
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// queueView queues a message for the write pump, dropping when the client
// cannot keep up
func (c *Client) queueView(msg interface{}) {
	select {
	case c.send <- msg:
	default:
		c.server.logger.Warnw("Client send channel full, dropping view update",
			logger.FieldClientID, c.id,
		)
	}
}

// recompute assembles the client's current view from the shared snapshot
func (c *Client) recompute() ViewMessage {
	snap := c.server.Snapshot()

	c.mu.Lock()
	cfg := c.filter
	mode := c.mode
	vp := c.viewport
	state := c.machine.State()
	c.mu.Unlock()

	return buildView(snap, cfg, c.server.layoutSelector(), mode, vp, state)
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	// Configure connection limits and timeouts per Gorilla best practices
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.server.logger.Debugw("Read pump started", logger.FieldClientID, c.id)

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.server.logger.Warnw("JSON unmarshal error",
				logger.FieldError, err.Error(),
				logger.FieldClientID, c.id,
			)
			continue
		}

		c.routeMessage(&msg)
	}
}

// handleReadError logs unexpected WebSocket read errors.
// Expected closure codes (going away, abnormal, no status) are silently ignored.
func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
	) {
		c.server.logger.Warnw("WebSocket read error",
			logger.FieldError, err.Error(),
			logger.FieldClientID, c.id,
		)
	}
}

// routeMessage dispatches incoming WebSocket messages to appropriate handlers.
// This separation from readPump reduces complexity and improves testability.
func (c *Client) routeMessage(msg *ClientMessage) {
	switch msg.Type {
	case "filter":
		c.handleFilter(msg.Query)
	case "layout":
		c.handleLayout(msg.Layout, msg.Width, msg.Height)
	case "hover":
		c.handleHover(msg.NodeID)
	case "hover_leave":
		c.handleHoverLeave()
	case "designate":
		c.handleDesignate(msg.NodeID)
	case "clear":
		c.handleClear()
	case "set_verbosity":
		c.handleSetVerbosity(msg.Verbosity)
	case "ping":
		// Just update deadline, handled by pong handler
	default:
		c.server.logger.Debugw("Unknown message type",
			"type", msg.Type,
			logger.FieldClientID, c.id,
		)
	}
}

// handleFilter parses a filter expression, replaces the session's filter
// config and sends the recomputed view
func (c *Client) handleFilter(query string) {
	if !c.limiter.Allow() {
		c.server.logger.Debugw("Filter message rate limited, dropping",
			logger.FieldClientID, c.id,
		)
		return
	}

	// Engine defaults apply where the expression is silent
	engine := c.server.config().Engine
	base := filter.DefaultConfig()
	base.MaxNodes = engine.MaxNodes
	base.Depth = engine.DepthLimit

	cfg, err := filter.ParseQueryWith(base, query)
	if err != nil {
		c.server.logger.Warnw("Invalid filter expression",
			logger.FieldQuery, query,
			logger.FieldError, err.Error(),
			logger.FieldClientID, c.id,
		)
		c.queueView(ErrorMessage{Type: "error", Message: err.Error()})
		return
	}

	c.mu.Lock()
	c.filter = cfg
	c.mu.Unlock()

	v := c.recompute()
	c.server.logger.Infow("Filter applied",
		logger.FieldClientID, c.id,
		logger.FieldQuery, query,
		logger.FieldNodeCount, len(v.Nodes),
		logger.FieldEdgeCount, len(v.Edges),
	)
	c.queueView(v)
}

// handleLayout switches the session's layout mode and viewport
func (c *Client) handleLayout(mode string, width, height float64) {
	if !c.limiter.Allow() {
		return
	}

	m, err := layout.ParseMode(mode)
	if err != nil {
		c.queueView(ErrorMessage{Type: "error", Message: err.Error()})
		return
	}

	c.mu.Lock()
	c.mode = m
	if width > 0 && height > 0 {
		c.viewport = layout.Viewport{Width: width, Height: height}
	}
	c.mu.Unlock()

	c.server.logger.Debugw("Layout mode changed",
		logger.FieldClientID, c.id,
		logger.FieldLayout, string(m),
	)
	c.queueView(c.recompute())
}

// handleHover updates the hover target
func (c *Client) handleHover(nodeID string) {
	c.mu.Lock()
	c.machine.PointerEnter(nodeID)
	state := c.machine.State()
	c.mu.Unlock()

	// Hover changes only the interaction state, not the subgraph; send the
	// state alone rather than a full recompute
	c.queueView(map[string]interface{}{
		"type":        "interaction",
		"interaction": state,
	})
}

// handleHoverLeave clears the hover target
func (c *Client) handleHoverLeave() {
	c.mu.Lock()
	c.machine.PointerLeave()
	state := c.machine.State()
	c.mu.Unlock()

	c.queueView(map[string]interface{}{
		"type":        "interaction",
		"interaction": state,
	})
}

// handleDesignate drives the two-click path selection flow. Path computation
// runs against the currently filtered subgraph, so hidden nodes can never
// appear in a highlighted path.
func (c *Client) handleDesignate(nodeID string) {
	snap := c.server.Snapshot()

	c.mu.Lock()
	res := filter.Apply(snap, c.filter)
	c.machine.DesignatePath(nodeID, res.Nodes, res.Edges)
	state := c.machine.State()
	c.mu.Unlock()

	if state.Phase == view.PhasePathFound {
		c.server.logger.Infow("Path computed",
			logger.FieldClientID, c.id,
			"start", state.Start,
			"end", state.End,
			"found", state.Path.Found,
			"hops", state.Path.Length(),
		)
	}

	c.queueView(map[string]interface{}{
		"type":        "interaction",
		"interaction": state,
	})
}

// handleClear resets interaction state and restores the default filter
func (c *Client) handleClear() {
	engine := c.server.config().Engine

	c.mu.Lock()
	c.machine.Clear()
	cfg := filter.DefaultConfig()
	cfg.MaxNodes = engine.MaxNodes
	cfg.Depth = engine.DepthLimit
	c.filter = cfg
	c.mu.Unlock()

	c.server.logger.Debugw("View cleared", logger.FieldClientID, c.id)
	c.queueView(c.recompute())
}

// handleSetVerbosity adjusts server log verbosity from the UI
func (c *Client) handleSetVerbosity(verbosity int) {
	if verbosity < logger.VerbosityUser || verbosity > logger.VerbosityAll {
		c.server.logger.Warnw("Invalid verbosity level",
			"verbosity", verbosity,
			logger.FieldClientID, c.id,
		)
		return
	}

	c.server.verbosity.Store(int32(verbosity))
	c.server.logger.Infow("Verbosity changed",
		"verbosity", verbosity,
		"level", logger.LevelName(verbosity),
	)
}

// writePump writes queued view updates to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	c.server.logger.Debugw("Write pump started", logger.FieldClientID, c.id)

	for {
		select {
		case <-c.server.ctx.Done():
			c.server.logger.Debugw("Write pump stopping due to server shutdown", logger.FieldClientID, c.id)
			return
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.server.logger.Warnw("View write error",
					logger.FieldError, err.Error(),
					logger.FieldClientID, c.id,
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
