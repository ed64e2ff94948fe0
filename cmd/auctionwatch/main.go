package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hns-tools/auctionwatch/internal/auction"
	"github.com/hns-tools/auctionwatch/internal/chain"
	"github.com/hns-tools/auctionwatch/internal/classifier"
	"github.com/hns-tools/auctionwatch/internal/common"
	"github.com/hns-tools/auctionwatch/internal/config"
	"github.com/hns-tools/auctionwatch/internal/events"
	"github.com/hns-tools/auctionwatch/internal/logger"
	"github.com/hns-tools/auctionwatch/internal/metrics"
	"github.com/hns-tools/auctionwatch/internal/store"
	"github.com/hns-tools/auctionwatch/pkg/api"
	pkgconfig "github.com/hns-tools/auctionwatch/pkg/config"
)

const version = "1.0.0"

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "auctionwatch",
	Short: "auctionwatch - Handshake auction bid and reveal watcher",
	Long: `auctionwatch follows confirmed Handshake blocks, maintains a persistent
per-name index of auction bid and reveal outpoints, detects forfeited
(burned) bids, and republishes everything as a real-time event stream.`,
	Version: version,
	RunE:    runWatcher,
}

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every indexed bid and reveal record",
	Long: `Delete every bid and reveal record from the index store so the watcher
can resync from scratch. The tip pointer is left untouched; remove the
store directory to also reset the tip.`,
	RunE: runWipe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.AddCommand(wipeCmd)
}

// componentLogger builds a per-component logger, tolerating an absent
// logging section.
func componentLogger(cfg *pkgconfig.Config, component string) *logger.Logger {
	if cfg.Logging == nil {
		return logger.NewComponentLoggerFromConfig(component, nil)
	}
	return logger.NewComponentLoggerFromConfig(component, cfg.Logging)
}

func runWatcher(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	log := componentLogger(cfg, common.ComponentClassifier)
	log.Infof("auctionwatch v%s starting", version)

	// Metrics server
	var metricsServer *metrics.Server
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics, componentLogger(cfg, common.ComponentAPI))
		if err := metricsServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			if err := metricsServer.Stop(ctx); err != nil {
				log.Warnf("Failed to stop metrics server: %v", err)
			}
		}()
		log.Infof("Metrics server started on %s%s", cfg.Metrics.ListenAddress, cfg.Metrics.Path)
	}

	// Index store
	db, err := store.Open(cfg.Store.Path, componentLogger(cfg, common.ComponentStore))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Errorf("failed to close store: %v", err)
		}
	}()

	index := auction.New(db, componentLogger(cfg, common.ComponentIndex))
	if err := index.EnsureSchema(); err != nil {
		return fmt.Errorf("incompatible index store: %w", err)
	}

	if tip, err := index.Tip(); err == nil {
		log.Infof("resuming from tip: %s", tip)
	} else {
		log.Info("no tip recorded, indexing from the next connected block")
	}

	// Event fan-out
	hub := events.NewHub(
		cfg.Events.Secret,
		cfg.Events.SubscriberBuffer,
		componentLogger(cfg, common.ComponentEvents),
	)

	// Chain gateway
	node := chain.NewClient(cfg.Node, componentLogger(cfg, common.ComponentNode))

	// Block classifier (subscribes itself to the gateway)
	classifier.New(cfg.Watcher, node, index, hub, log)

	for _, component := range []string{
		common.ComponentStore,
		common.ComponentIndex,
		common.ComponentClassifier,
		common.ComponentEvents,
	} {
		metrics.ComponentHealthSet(component, true)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return node.Run(groupCtx)
	})

	if cfg.API != nil && cfg.API.Enabled {
		apiServer := api.NewServer(cfg.API, index, hub, componentLogger(cfg, common.ComponentAPI))
		group.Go(func() error {
			return apiServer.Start(groupCtx)
		})
	}

	log.Info("auctionwatch started")

	if err := group.Wait(); err != nil {
		return fmt.Errorf("watcher failed: %w", err)
	}

	log.Info("auctionwatch stopped successfully")
	return nil
}

func runWipe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := componentLogger(cfg, common.ComponentIndex)

	db, err := store.Open(cfg.Store.Path, componentLogger(cfg, common.ComponentStore))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	index := auction.New(db, log)
	if err := index.EnsureSchema(); err != nil {
		return fmt.Errorf("incompatible index store: %w", err)
	}

	deleted, err := index.Wipe()
	if err != nil {
		return fmt.Errorf("wipe failed: %w", err)
	}

	fmt.Printf("deleted %d records\n", deleted)
	return nil
}
