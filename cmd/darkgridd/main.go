// Command darkgridd runs the dark-grid simulation core: tick engine,
// action queue, currency ledger, market, and hash-chained replay log,
// served over HTTP and WebSocket.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/darkgrid-game/darkgrid-core/internal/api"
	"github.com/darkgrid-game/darkgrid-core/internal/config"
	"github.com/darkgrid-game/darkgrid-core/internal/events"
	"github.com/darkgrid-game/darkgrid-core/internal/logging"
	"github.com/darkgrid-game/darkgrid-core/internal/rules"
	"github.com/darkgrid-game/darkgrid-core/internal/ruleset"
	"github.com/darkgrid-game/darkgrid-core/internal/store"
	"github.com/darkgrid-game/darkgrid-core/internal/tick"
)

func main() {
	cfg := config.LoadFromEnv("")

	logger, err := logging.NewWithFile(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	logger.Sugar().Infow("config_loaded",
		"store_path", cfg.StorePath,
		"dev_mode", cfg.DevMode,
		"ruleset_version", cfg.RulesetVersion,
	)

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		logger.Sugar().Fatalw("store_open_failed", "err", err)
	}
	defer st.Close()

	registry := ruleset.New()
	if err := rules.RegisterSeason1(registry); err != nil {
		logger.Sugar().Fatalw("ruleset_register_failed", "err", err)
	}

	bcast := events.NewMemoryBroadcaster()

	manager := &tick.Manager{
		Registry:           registry,
		Bcast:              bcast,
		Seed:               cfg.WorldSeed,
		Ruleset:            cfg.RulesetVersion,
		PerTickActionLimit: cfg.PerTickActionLimit,
	}

	server := api.NewServer(st, manager, bcast, logger, cfg.DevMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.APIAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Sugar().Info("shutdown_signal_received")
	case err := <-errCh:
		if err != nil {
			logger.Sugar().Errorw("api_server_failed", "err", err)
		}
	}
}
