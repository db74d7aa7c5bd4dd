package commands

import (
	"context"
	"time"

	"github.com/kanbu/wikigraph/config"
	"github.com/kanbu/wikigraph/errors"
	"github.com/kanbu/wikigraph/fetch"
	"github.com/kanbu/wikigraph/graph"
	"github.com/kanbu/wikigraph/logger"
)

// loadSnapshot resolves a snapshot for the offline commands: an exported
// file when snapshotPath is set, otherwise a live fetch for groupID
func loadSnapshot(ctx context.Context, snapshotPath, groupID string) (*graph.Snapshot, error) {
	if snapshotPath != "" {
		snap, err := fetch.FromFile(snapshotPath, logger.Logger.Named("fetch"))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load snapshot from %s", snapshotPath)
		}
		return snap, nil
	}

	if groupID == "" {
		return nil, errors.New("either --snapshot or --group is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	client, err := fetch.NewClient(cfg.Fetch.BaseURL,
		time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second,
		logger.Logger.Named("fetch"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fetch client")
	}

	snap, err := client.Graph(ctx, groupID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch graph for group %s", groupID)
	}
	return snap, nil
}
