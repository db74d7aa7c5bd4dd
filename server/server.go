// Package server hosts the visualization surface: a WebSocket session per
// connected canvas plus a small REST API over the same engine. Each client
// keeps its own filter config, layout mode and interaction machine; the
// snapshot itself is shared, immutable, and swapped wholesale on refresh.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kanbu/wikigraph/config"
	"github.com/kanbu/wikigraph/errors"
	"github.com/kanbu/wikigraph/graph"
	"github.com/kanbu/wikigraph/graph/layout"
	"github.com/kanbu/wikigraph/logger"
)

// Server provides live-updating graph visualization over WebSocket
type Server struct {
	cfg      *config.Config
	selector *layout.Selector

	snapshot   *graph.Snapshot // current immutable snapshot, swapped on refresh
	snapshotMu sync.RWMutex

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	refresh    chan *graph.Snapshot
	mu         sync.RWMutex

	verbosity atomic.Int32

	snapshotWatcher *snapshotWatcher      // nil unless serving from a watched file
	configWatcher   *config.ConfigWatcher // nil unless config watching enabled

	httpServer *http.Server
	logger     *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server over an initial snapshot. The snapshot may be nil;
// clients then see an empty view until the first refresh.
func New(cfg *config.Config, snap *graph.Snapshot, verbosity int, log *zap.SugaredLogger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg: cfg,
		selector: layout.NewSelector(layout.Config{
			Force: layout.ForceParams{
				ChargeStrength: cfg.Engine.Physics.ChargeStrength,
				LinkDistance:   cfg.Engine.Physics.LinkDistance,
				LinkStrength:   cfg.Engine.Physics.LinkStrength,
			},
		}),
		snapshot:   snap,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		refresh:    make(chan *graph.Snapshot, 1),
		logger:     log,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.verbosity.Store(int32(verbosity))
	return s
}

// Snapshot returns the current snapshot (possibly nil)
func (s *Server) Snapshot() *graph.Snapshot {
	s.snapshotMu.RLock()
	defer s.snapshotMu.RUnlock()
	return s.snapshot
}

// config returns the effective config. applyConfig swaps the pointer under
// s.mu, so every reader must come through here rather than touch s.cfg.
func (s *Server) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// layoutSelector returns the current selector, which applyConfig rebuilds
// alongside the config.
func (s *Server) layoutSelector() *layout.Selector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selector
}

// Refresh swaps in a new snapshot and queues a rebroadcast to all clients
func (s *Server) Refresh(snap *graph.Snapshot) {
	s.snapshotMu.Lock()
	s.snapshot = snap
	s.snapshotMu.Unlock()

	select {
	case s.refresh <- snap:
	case <-s.ctx.Done():
	default:
		// A refresh is already queued; it will pick up the latest snapshot
	}
}

// Run starts the server hub event loop
func (s *Server) Run() {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugw("Server hub stopping due to context cancellation")
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		case snap := <-s.refresh:
			s.handleRefresh(snap)
		}
	}
}

// handleClientRegister handles a new client connection
func (s *Server) handleClientRegister(client *Client) {
	s.mu.Lock()

	if len(s.clients) >= MaxClients {
		s.mu.Unlock()
		s.logger.Warnw("Max clients reached, rejecting connection",
			logger.FieldClientID, client.id,
			"max_clients", MaxClients,
		)
		client.close()
		return
	}

	s.clients[client] = true
	totalClients := len(s.clients)
	s.mu.Unlock()

	s.logger.Infow("Client connected",
		logger.FieldClientID, client.id,
		"total_clients", totalClients,
	)

	// Send the initial view so a reconnecting canvas is never blank
	client.queueView(client.recompute())
}

// handleClientUnregister handles a client disconnection
func (s *Server) handleClientUnregister(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		totalClients := len(s.clients)
		s.mu.Unlock()

		client.close()

		s.logger.Infow("Client disconnected",
			logger.FieldClientID, client.id,
			"total_clients", totalClients,
		)
	} else {
		s.mu.Unlock()
	}
}

// handleRefresh recomputes and sends every client's view against the new snapshot
func (s *Server) handleRefresh(snap *graph.Snapshot) {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	nodeCount := 0
	if snap != nil {
		nodeCount = len(snap.Nodes)
	}
	s.logger.Infow("Snapshot refreshed, recomputing client views",
		logger.FieldNodeCount, nodeCount,
		"clients", len(clients),
	)

	for _, client := range clients {
		client.queueView(client.recompute())
	}
}

// Start binds the HTTP server and blocks until shutdown or listen failure
func (s *Server) Start(port int) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run()
	}()

	if s.snapshotWatcher != nil {
		s.snapshotWatcher.Start()
	}
	if s.configWatcher != nil {
		s.configWatcher.Start()
	}

	mux := s.routes()

	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infow("Server ready",
		"url", fmt.Sprintf("http://localhost:%d", port),
		logger.FieldPort, port,
	)

	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// Stop gracefully shuts down the server and cleans up resources
func (s *Server) Stop() error {
	s.logger.Infow("Initiating server shutdown")

	if s.snapshotWatcher != nil {
		if err := s.snapshotWatcher.Stop(); err != nil {
			s.logger.Warnw("Failed to stop snapshot watcher", logger.FieldError, err)
		}
	}
	if s.configWatcher != nil {
		if err := s.configWatcher.Stop(); err != nil {
			s.logger.Warnw("Failed to stop config watcher", logger.FieldError, err)
		}
	}

	// Close all client connections BEFORE cancelling context so the read
	// pumps unblock cleanly
	s.mu.Lock()
	clientsToClose := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clientsToClose = append(clientsToClose, client)
		delete(s.clients, client)
	}
	s.mu.Unlock()

	if len(clientsToClose) > 0 {
		s.logger.Infow("Closing client connections", logger.FieldCount, len(clientsToClose))
		for _, client := range clientsToClose {
			client.conn.Close()
		}
	}

	s.cancel()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Warnw("HTTP server shutdown error", logger.FieldError, err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Infow("All goroutines stopped cleanly")
	case <-time.After(ShutdownTimeout):
		s.logger.Warnw("Goroutine shutdown timed out, forcing exit",
			"timeout", ShutdownTimeout,
		)
	}

	s.logger.Infow("Server shutdown complete")
	return nil
}
