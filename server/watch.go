package server

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kanbu/wikigraph/config"
	"github.com/kanbu/wikigraph/errors"
	"github.com/kanbu/wikigraph/fetch"
	"github.com/kanbu/wikigraph/graph/layout"
	"github.com/kanbu/wikigraph/logger"
)

// snapshotWatcher reloads an exported snapshot file when it changes on disk
// and rebroadcasts the new graph to every client. Used by serve --snapshot.
type snapshotWatcher struct {
	server *Server
	path   string

	watcher        *fsnotify.Watcher
	mu             sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
}

// WatchSnapshotFile attaches a file watcher that reloads the snapshot on change
func (s *Server) WatchSnapshotFile(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "failed to watch snapshot file %s", path)
	}

	s.snapshotWatcher = &snapshotWatcher{
		server:         s,
		path:           path,
		watcher:        watcher,
		debouncePeriod: 500 * time.Millisecond,
	}
	return nil
}

// Start begins watching for snapshot file changes
func (sw *snapshotWatcher) Start() {
	sw.server.wg.Add(1)
	go func() {
		defer sw.server.wg.Done()
		sw.watchLoop()
	}()
}

// Stop stops watching
func (sw *snapshotWatcher) Stop() error {
	return sw.watcher.Close()
}

func (sw *snapshotWatcher) watchLoop() {
	for {
		select {
		case <-sw.server.ctx.Done():
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				sw.server.logger.Infow("Snapshot file changed",
					"file", event.Name,
					"op", event.Op.String(),
				)
				sw.scheduleReload()
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.server.logger.Warnw("Snapshot watcher error", logger.FieldError, err)
		}
	}
}

// scheduleReload debounces rapid file changes before reloading
func (sw *snapshotWatcher) scheduleReload() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.debounceTimer != nil {
		sw.debounceTimer.Stop()
	}

	sw.debounceTimer = time.AfterFunc(sw.debouncePeriod, func() {
		snap, err := fetch.FromFile(sw.path, sw.server.logger)
		if err != nil {
			sw.server.logger.Errorw("Snapshot reload failed",
				logger.FieldPath, sw.path,
				logger.FieldError, err,
			)
			return
		}
		sw.server.Refresh(snap)
	})
}

// EnableConfigWatch attaches a config watcher so edits to the config file
// retune the engine without a restart
func (s *Server) EnableConfigWatch(configPath string) error {
	cw, err := config.NewConfigWatcher(configPath)
	if err != nil {
		return err
	}

	cw.OnReload(func(newCfg *config.Config) error {
		s.applyConfig(newCfg)
		return nil
	})

	config.SetGlobalWatcher(cw)
	s.configWatcher = cw
	return nil
}

// applyConfig swaps the effective config and retunes the layout selector.
// Connected clients pick the new engine defaults up on their next filter
// message; the queued refresh recomputes current views immediately.
func (s *Server) applyConfig(newCfg *config.Config) {
	s.mu.Lock()
	s.cfg = newCfg
	s.selector = layout.NewSelector(layout.Config{
		Force: layout.ForceParams{
			ChargeStrength: newCfg.Engine.Physics.ChargeStrength,
			LinkDistance:   newCfg.Engine.Physics.LinkDistance,
			LinkStrength:   newCfg.Engine.Physics.LinkStrength,
		},
	})
	s.mu.Unlock()

	s.logger.Infow("Engine config reapplied",
		logger.FieldCap, newCfg.Engine.MaxNodes,
		logger.FieldDepth, newCfg.Engine.DepthLimit,
	)

	s.Refresh(s.Snapshot())
}
