package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kanbu/wikigraph/errors"
	"github.com/kanbu/wikigraph/graph"
)

const sampleGraphJSON = `{
	"nodes": [
		{"id": "getting-started", "label": "Getting Started", "node_type": "WikiPage"},
		{"id": "onboarding", "label": "Onboarding", "node_type": "concept"},
		{"id": "robin", "label": "Robin", "node_type": "person"}
	],
	"edges": [
		{"source": "getting-started", "target": "onboarding", "edge_type": "mention"},
		{"source": "getting-started", "target": "missing", "edge_type": "link"}
	]
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, 0, zap.NewNop().Sugar())
	require.NoError(t, err)
	return client
}

func TestGraphFetch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graph/wiki-ws-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleGraphJSON))
	}))

	snap, err := client.Graph(context.Background(), "wiki-ws-1")
	require.NoError(t, err)

	assert.Len(t, snap.Nodes, 3)
	// The dangling edge to "missing" is dropped during the build
	assert.Len(t, snap.Edges, 1)
	assert.Equal(t, "wiki-ws-1", snap.Meta.GroupID)
	assert.Equal(t, graph.KindPage, snap.Nodes[0].Kind)
}

func TestGraphFetchNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.Graph(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestGraphFetchEmptyGroupID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent for an empty group id")
	}))

	_, err := client.Graph(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestGraphFetchServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.Graph(context.Background(), "g")
	assert.Error(t, err)
}

func TestNewClientRejectsBadScheme(t *testing.T) {
	_, err := NewClient("ftp://example.com", 0, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats", r.URL.Path)
		_, _ = w.Write([]byte(`{"total_nodes": 12, "total_edges": 30, "nodes_by_type": {"page": 4}}`))
	}))

	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalNodes)
	assert.Equal(t, 4, stats.NodesByType["page"])
}

func TestHealthTransportFailure(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1", 0, zap.NewNop().Sugar())
	require.NoError(t, err)

	_, err = client.Health(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsServiceUnavailableError(err))
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleGraphJSON), 0o644))

	snap, err := FromFile(path, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 3)
	assert.Len(t, snap.Edges, 1)
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop().Sugar())
	assert.Error(t, err)
}
