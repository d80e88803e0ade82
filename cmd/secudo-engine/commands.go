package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/config"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/engine"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/events"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/metrics"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/persistence"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/persistence/memstore"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/persistence/pgstore"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/server"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/snapshot"
)

var (
	configPath string
	cfg        config.Config

	// savepoint command flags
	backendURL  string
	projectID   string
	savepointID string

	rootCmd = &cobra.Command{
		Use:   "secudo-engine",
		Short: "OT security model-graph engine and reference backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				cfg = config.Default()
				return nil
			}
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the reference persistence server",
		RunE:  runServe,
	}

	savepointCmd = &cobra.Command{
		Use:   "savepoint",
		Short: "Archive savepoints to and from S3",
	}

	savepointExportCmd = &cobra.Command{
		Use:   "export",
		Short: "Upload a savepoint to the configured S3 bucket",
		RunE:  runSavepointExport,
	}

	savepointImportCmd = &cobra.Command{
		Use:   "import",
		Short: "Download an archived savepoint and recreate it on the backend",
		RunE:  runSavepointImport,
	}

	savepointRestoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Restore the model to a named savepoint",
		RunE:  runSavepointRestore,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	savepointCmd.PersistentFlags().StringVar(&backendURL, "backend", "http://localhost:8080", "persistence backend base URL")
	savepointCmd.PersistentFlags().StringVar(&projectID, "project", "", "project id")
	savepointCmd.PersistentFlags().StringVar(&savepointID, "savepoint", "", "savepoint id")

	savepointCmd.AddCommand(savepointExportCmd, savepointImportCmd, savepointRestoreCmd)
	rootCmd.AddCommand(serveCmd, savepointCmd)
}

func newLogger() logging.Logger {
	return logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.Logging.Level))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	registry := metrics.NewRegistry()

	var provider server.StoreProvider
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := pgstore.NewPool(cmd.Context(), cfg.Store.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		provider = func(id string) persistence.Client { return pool.Project(id) }
	default:
		stores := memstore.NewRegistry()
		provider = func(id string) persistence.Client { return stores.Project(id) }
	}

	var bus *events.Bus
	if cfg.Events.PubAddr != "" {
		bus = events.NewBus(cfg.Events.BufferSize)
		defer bus.Shutdown()
		broadcaster, err := events.NewBroadcaster(cmd.Context(), bus, cfg.Events.PubAddr, logger)
		if err != nil {
			return err
		}
		defer broadcaster.Close()
		color.Cyan("broadcasting model events on %s", cfg.Events.PubAddr)
	}

	srv := server.New(provider, logger, registry, bus)
	gs := server.NewGracefulServer(server.GracefulOptions{
		Addr:            cfg.Server.ListenAddr,
		Handler:         srv.Handler(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger,
	})
	if configPath != "" {
		gs.SetReloadFunc(func() error {
			reloaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = reloaded
			return nil
		})
	}

	color.Green("listening on %s (backend: %s)", cfg.Server.ListenAddr, cfg.Store.Backend)
	return gs.Start()
}

func requireSavepointFlags() error {
	if projectID == "" {
		return fmt.Errorf("--project is required")
	}
	if savepointID == "" {
		return fmt.Errorf("--savepoint is required")
	}
	if cfg.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket must be set in the config file")
	}
	return nil
}

func newArchiver(ctx context.Context) (*snapshot.Archiver, error) {
	client := persistence.NewHTTPClient(backendURL, projectID)
	return snapshot.NewArchiverFromEnv(ctx, cfg.Archive.Bucket, cfg.Archive.Prefix, client, projectID, newLogger())
}

func runSavepointExport(cmd *cobra.Command, args []string) error {
	if err := requireSavepointFlags(); err != nil {
		return err
	}
	archiver, err := newArchiver(cmd.Context())
	if err != nil {
		return err
	}
	key, err := archiver.Export(cmd.Context(), savepointID)
	if err != nil {
		return err
	}
	color.Green("exported savepoint %s to s3://%s/%s", savepointID, cfg.Archive.Bucket, key)
	return nil
}

func runSavepointRestore(cmd *cobra.Command, args []string) error {
	if projectID == "" {
		return fmt.Errorf("--project is required")
	}
	if savepointID == "" {
		return fmt.Errorf("--savepoint is required")
	}
	logger := newLogger()
	ctx := cmd.Context()

	store := engine.NewModelStore(engine.Options{
		Client:    persistence.NewHTTPClient(backendURL, projectID),
		ProjectID: projectID,
		Logger:    logger,
	})
	if err := store.Init(ctx); err != nil {
		return err
	}

	var cache *snapshot.LayoutCache
	if cfg.Layout.CacheDir != "" {
		var err error
		cache, err = snapshot.NewLayoutCache(cfg.Layout.CacheDir, logger)
		if err != nil {
			return err
		}
	}

	svc := snapshot.NewService(store, nil, cache, logger)
	res, err := svc.Restore(ctx, savepointID)
	if err != nil {
		return err
	}
	color.Green("restored savepoint %s: %d nodes, %d edges, %d data objects",
		savepointID, res.NodeCount, res.EdgeCount, res.DataObjectCount)
	if res.Warning != "" {
		color.Yellow("warning: %s", res.Warning)
	}
	return nil
}

func runSavepointImport(cmd *cobra.Command, args []string) error {
	if err := requireSavepointFlags(); err != nil {
		return err
	}
	archiver, err := newArchiver(cmd.Context())
	if err != nil {
		return err
	}
	summary, err := archiver.Import(cmd.Context(), savepointID)
	if err != nil {
		return err
	}
	color.Green("imported savepoint %q as %s", summary.Title, summary.ID)
	return nil
}
