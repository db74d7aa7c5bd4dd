package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kanbu/wikigraph/config"
	"github.com/kanbu/wikigraph/graph"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.Server{
			Port:           config.DefaultServerPort,
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Fetch: config.Fetch{BaseURL: "http://localhost:8000", TimeoutSeconds: 30},
		Engine: config.Engine{
			MaxNodes:   500,
			DepthLimit: 6,
			Physics:    config.Physics{ChargeStrength: -180, LinkDistance: 60, LinkStrength: 0.7},
		},
	}
}

func testSnapshot() *graph.Snapshot {
	updated := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "a", Label: "Alpha", Kind: graph.KindPage, Updated: &updated},
			{ID: "b", Label: "Beta", Kind: graph.KindConcept},
			{ID: "c", Label: "Gamma", Kind: graph.KindPerson},
			{ID: "d", Label: "Delta", Kind: graph.KindPage},
		},
		Edges: []graph.Edge{
			{Source: "a", Target: "b", Kind: graph.EdgeLink},
			{Source: "b", Target: "c", Kind: graph.EdgeMention},
		},
		Meta: graph.Meta{GroupID: "wiki", Stats: graph.Stats{TotalNodes: 4, TotalEdges: 2}},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := New(testConfig(), testSnapshot(), 0, zap.NewNop().Sugar())
	t.Cleanup(func() { srv.cancel() })
	return srv
}

func TestNew(t *testing.T) {
	srv := newTestServer(t)

	if srv.clients == nil {
		t.Error("clients map not initialized")
	}
	if srv.selector == nil {
		t.Error("layout selector not initialized")
	}
	if srv.Snapshot() == nil {
		t.Error("snapshot not set")
	}
	if int(srv.verbosity.Load()) != 0 {
		t.Errorf("verbosity = %d, want 0", int(srv.verbosity.Load()))
	}
}

func TestHubRegistration(t *testing.T) {
	srv := newTestServer(t)
	go srv.Run()

	client := newClient(srv, nil, "test_client_1")
	srv.register <- client

	// Wait for hub to process registration
	deadline := time.After(time.Second)
	for {
		srv.mu.RLock()
		registered := srv.clients[client]
		srv.mu.RUnlock()
		if registered {
			break
		}
		select {
		case <-deadline:
			t.Fatal("client was not registered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// Registration queues the initial view
	select {
	case msg := <-client.send:
		v, ok := msg.(ViewMessage)
		if !ok {
			t.Fatalf("expected initial ViewMessage, got %T", msg)
		}
		if len(v.Nodes) != 4 {
			t.Errorf("initial view nodes = %d, want 4", len(v.Nodes))
		}
	case <-time.After(time.Second):
		t.Fatal("no initial view queued")
	}

	srv.unregister <- client

	deadline = time.After(time.Second)
	for {
		srv.mu.RLock()
		registered := srv.clients[client]
		srv.mu.RUnlock()
		if !registered {
			break
		}
		select {
		case <-deadline:
			t.Fatal("client was not unregistered")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRefreshRecomputesClientViews(t *testing.T) {
	srv := newTestServer(t)
	go srv.Run()

	client := newClient(srv, nil, "test_client_refresh")
	srv.register <- client

	// Drain the initial view
	select {
	case <-client.send:
	case <-time.After(time.Second):
		t.Fatal("no initial view")
	}

	srv.Refresh(&graph.Snapshot{
		Nodes: []graph.Node{{ID: "only", Label: "Only", Kind: graph.KindPage}},
	})

	select {
	case msg := <-client.send:
		v, ok := msg.(ViewMessage)
		if !ok {
			t.Fatalf("expected ViewMessage, got %T", msg)
		}
		if len(v.Nodes) != 1 || v.Nodes[0].ID != "only" {
			t.Errorf("refreshed view did not reflect new snapshot: %+v", v.Nodes)
		}
	case <-time.After(time.Second):
		t.Fatal("no refreshed view received")
	}
}

func TestHandleWebSocket(t *testing.T) {
	srv := newTestServer(t)
	go srv.Run()

	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWebSocket))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	defer conn.Close()

	// First message is the version handshake
	var versionMsg VersionMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&versionMsg); err != nil {
		t.Fatalf("failed to read version message: %v", err)
	}
	if versionMsg.Type != "version" {
		t.Errorf("first message type = %q, want version", versionMsg.Type)
	}

	// Second is the initial view
	var viewMsg ViewMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&viewMsg); err != nil {
		t.Fatalf("failed to read initial view: %v", err)
	}
	if viewMsg.Type != "view" {
		t.Errorf("second message type = %q, want view", viewMsg.Type)
	}
	if len(viewMsg.Nodes) != 4 {
		t.Errorf("initial view nodes = %d, want 4", len(viewMsg.Nodes))
	}

	// A filter message narrows the view
	err = conn.WriteJSON(ClientMessage{Type: "filter", Query: "kind=page"})
	if err != nil {
		t.Fatalf("failed to send filter message: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&viewMsg); err != nil {
		t.Fatalf("failed to read filtered view: %v", err)
	}
	if len(viewMsg.Nodes) != 2 {
		t.Errorf("filtered view nodes = %d, want 2 pages", len(viewMsg.Nodes))
	}
	for _, n := range viewMsg.Nodes {
		if n.Kind != graph.KindPage {
			t.Errorf("filtered view contains non-page node %q", n.ID)
		}
	}
}

func TestBuildViewNilSnapshot(t *testing.T) {
	srv := newTestServer(t)
	srv.snapshot = nil

	client := newClient(srv, nil, "nil_snap")
	v := client.recompute()

	if len(v.Nodes) != 0 || len(v.Edges) != 0 {
		t.Errorf("nil snapshot should produce empty view, got %d nodes %d edges",
			len(v.Nodes), len(v.Edges))
	}
	if v.Layout.Mode != "force" {
		t.Errorf("default layout mode = %q, want force", v.Layout.Mode)
	}
}

// TestConfigReloadConcurrentAccess exercises live config swaps racing HTTP
// origin checks and client view recomputation. Meaningful under -race: the
// swapped cfg/selector must only be reachable through the locked accessors.
func TestConfigReloadConcurrentAccess(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(srv, nil, "session-1")

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			cfg := *testConfig()
			cfg.Engine.MaxNodes = 100 + i
			cfg.Engine.Physics.ChargeStrength = float64(-100 - i)
			srv.applyConfig(&cfg)
		}
	}()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")

	for i := 0; i < 200; i++ {
		if !srv.checkOrigin(req) {
			t.Fatal("allowed origin rejected during config reload")
		}
		v := client.recompute()
		if v.Type != "view" {
			t.Fatalf("recompute type = %q, want view", v.Type)
		}
		if v.Layout.Mode != "force" {
			t.Fatalf("layout mode = %q, want force", v.Layout.Mode)
		}
	}

	close(stop)
	<-done

	if srv.config().Engine.MaxNodes < 100 {
		t.Errorf("effective max_nodes = %d, want a reloaded value", srv.config().Engine.MaxNodes)
	}
}
