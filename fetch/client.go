// Package fetch retrieves graph snapshots from the knowledge-graph service.
// A snapshot is fetched once per view session and frozen; every engine
// operation derives views from it without further network traffic.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kanbu/wikigraph/errors"
	"github.com/kanbu/wikigraph/graph"
)

// DefaultTimeout bounds one snapshot fetch end to end.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps response decoding; a graph payload past this is a
// misbehaving service, not a bigger wiki.
const maxBodyBytes = 64 << 20

// graphPayload mirrors the service's GET /graph/{group_id} response body.
type graphPayload struct {
	Nodes []graph.SourceNode `json:"nodes"`
	Edges []graph.SourceEdge `json:"edges"`
}

// ServiceStats mirrors the service's GET /stats response body.
type ServiceStats struct {
	TotalNodes    int            `json:"total_nodes"`
	TotalEdges    int            `json:"total_edges"`
	TotalEpisodes int            `json:"total_episodes"`
	NodesByType   map[string]int `json:"nodes_by_type"`
	EdgesByType   map[string]int `json:"edges_by_type"`
}

// ServiceHealth mirrors the service's GET /health response body.
type ServiceHealth struct {
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"database_connected"`
	Version           string `json:"version"`
}

// Client fetches snapshots over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	builder *graph.Builder
	logger  *zap.SugaredLogger
}

// NewClient creates a fetch client for the service at baseURL. Only http and
// https schemes are accepted.
func NewClient(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid service URL %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Newf("unsupported scheme %q in service URL", u.Scheme)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: u.String(),
		http:    &http.Client{Timeout: timeout},
		builder: graph.NewBuilder(logger),
		logger:  logger.Named("fetch"),
	}, nil
}

// Graph fetches the full node/edge graph for a scope and builds an immutable
// snapshot from it.
func (c *Client) Graph(ctx context.Context, groupID string) (*graph.Snapshot, error) {
	if groupID == "" {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "group id is required")
	}

	var payload graphPayload
	endpoint := fmt.Sprintf("%s/graph/%s", c.baseURL, url.PathEscape(groupID))
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, errors.Wrapf(err, "fetching graph for group %q", groupID)
	}

	c.logger.Infow("Fetched graph snapshot",
		"group_id", groupID,
		"node_count", len(payload.Nodes),
		"edge_count", len(payload.Edges),
	)

	return c.builder.Build(payload.Nodes, payload.Edges, groupID), nil
}

// Stats fetches graph statistics from the service.
func (c *Client) Stats(ctx context.Context) (*ServiceStats, error) {
	var stats ServiceStats
	if err := c.getJSON(ctx, c.baseURL+"/stats", &stats); err != nil {
		return nil, errors.Wrap(err, "fetching service stats")
	}
	return &stats, nil
}

// Health probes service health. A reachable service reporting unhealthy is
// returned as a value, not an error; transport failures are errors.
func (c *Client) Health(ctx context.Context) (*ServiceHealth, error) {
	var health ServiceHealth
	if err := c.getJSON(ctx, c.baseURL+"/health", &health); err != nil {
		return nil, errors.Wrap(errors.ErrServiceUnavailable, err.Error())
	}
	return &health, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("service returned %s", resp.Status)
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

// FromFile builds a snapshot from an exported JSON graph file with the same
// shape as the service response. Used by the CLI and by serve --snapshot.
func FromFile(path string, logger *zap.SugaredLogger) (*graph.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading snapshot file %s", path)
	}

	var payload graphPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrapf(err, "parsing snapshot file %s", path)
	}

	return graph.NewBuilder(logger).Build(payload.Nodes, payload.Edges, path), nil
}
