package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kanbu/wikigraph/config"
	"github.com/kanbu/wikigraph/errors"
	"github.com/kanbu/wikigraph/fetch"
	"github.com/kanbu/wikigraph/graph"
	"github.com/kanbu/wikigraph/logger"
	"github.com/kanbu/wikigraph/server"
	"github.com/kanbu/wikigraph/version"
)

// ServeCmd starts the visualization WebSocket server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the wikigraph visualization server",
	Long: `Launch the WebSocket visualization server. Each connected canvas gets its
own filter config, layout mode and interaction state; the graph snapshot is
fetched once at startup (or loaded from a file) and shared by all sessions.`,
	RunE: runServe,
}

var (
	servePort        int
	serveGroupID     string
	serveSnapshot    string
	serveWatchConfig string
)

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Server port (overrides config)")
	ServeCmd.Flags().StringVar(&serveGroupID, "group", "", "Wiki group id to fetch the graph for")
	ServeCmd.Flags().StringVar(&serveSnapshot, "snapshot", "", "Serve from an exported snapshot file and watch it for changes")
	ServeCmd.Flags().StringVar(&serveWatchConfig, "watch-config", "", "Watch a config file and retune the engine on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Default to progress output for the server
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = logger.VerbosityInfo
		if err := logger.InitializeWithVerbosity(logger.JSONOutput, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	snap, err := loadServeSnapshot(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	printServeBanner(verbosity, snap)

	srv := server.New(cfg, snap, verbosity, logger.Logger.Named("server"))

	if serveSnapshot != "" {
		if err := srv.WatchSnapshotFile(serveSnapshot); err != nil {
			return errors.Wrap(err, "failed to watch snapshot file")
		}
		pterm.Info.Printf("Watching snapshot file: %s\n", serveSnapshot)
	}
	if serveWatchConfig != "" {
		if err := srv.EnableConfigWatch(serveWatchConfig); err != nil {
			return errors.Wrap(err, "failed to watch config file")
		}
		pterm.Info.Printf("Watching config file: %s\n", serveWatchConfig)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(port)
	}()

	// Wait for shutdown signal (Ctrl+C)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server failed to start")
	case <-sigChan:
		// First Ctrl+C - graceful shutdown
		pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- srv.Stop()
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			// Second Ctrl+C - force immediate exit
			pterm.Warning.Println("\nForce shutdown - exiting immediately")
			os.Exit(1)
			return nil // unreachable
		}
	}
}

// loadServeSnapshot resolves the initial snapshot: an exported file when
// --snapshot is given, otherwise a live fetch from the configured service
func loadServeSnapshot(ctx context.Context, cfg *config.Config) (*graph.Snapshot, error) {
	if serveSnapshot != "" {
		snap, err := fetch.FromFile(serveSnapshot, logger.Logger.Named("fetch"))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load snapshot from %s", serveSnapshot)
		}
		return snap, nil
	}

	if serveGroupID == "" {
		pterm.Warning.Println("No --group or --snapshot given; serving an empty graph")
		return nil, nil
	}

	client, err := fetch.NewClient(cfg.Fetch.BaseURL,
		time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second,
		logger.Logger.Named("fetch"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fetch client")
	}

	snap, err := client.Graph(ctx, serveGroupID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch graph for group %s", serveGroupID)
	}
	return snap, nil
}

// printServeBanner prints startup info before the structured logs take over
func printServeBanner(verbosity int, snap *graph.Snapshot) {
	versionInfo := version.Get()

	pterm.DefaultHeader.WithFullWidth().Printf("wikigraph visualization server")
	pterm.Println()
	pterm.Info.Printf("Version:   %s (commit %s)\n", versionInfo.Version, versionInfo.Short())
	pterm.Info.Printf("Verbosity: %s\n", logger.LevelName(verbosity))
	if snap != nil {
		pterm.Info.Printf("Snapshot:  %d nodes, %d edges\n", len(snap.Nodes), len(snap.Edges))
	}
	pterm.Println()
}
