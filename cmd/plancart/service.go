package main

import (
	"time"

	"github.com/artpar/plancart/adapters/clock"
	"github.com/artpar/plancart/adapters/idgen"
	"github.com/artpar/plancart/adapters/memory"
	"github.com/artpar/plancart/adapters/remote"
	"github.com/artpar/plancart/app"
	"github.com/artpar/plancart/bootstrap"
	"github.com/artpar/plancart/config"
	"github.com/rs/zerolog"
)

// cliService builds a plans service for one-shot commands. The returned
// func releases the session store.
func cliService(cfg *config.Config, logger zerolog.Logger) (*app.PlansService, func(), error) {
	client := newBackendClient(cfg)

	initiator, subscriptions, err := bootstrap.NewPayments(cfg.Payments, client)
	if err != nil {
		return nil, nil, err
	}

	sessions := memory.NewSessionStore(memory.SessionStoreConfig[*app.Visitor]{
		NumShards:       1,
		TTL:             time.Hour,
		CleanupInterval: time.Hour,
	})

	svc := app.NewPlansService(app.PlansDeps{
		Catalog:       remote.NewCatalogProvider(client),
		Payments:      initiator,
		Subscriptions: subscriptions,
		Transactions:  remote.NewTransactionSource(client),
		Sessions:      sessions,
		IDGen:         idgen.UUID{},
		Clock:         clock.Real{},
		Logger:        logger,
	}, app.PlansConfig{
		DefaultCountry:  cfg.Catalog.DefaultCountry,
		DefaultDuration: cfg.Catalog.DefaultDuration,
		IncludeTrials:   cfg.Catalog.IncludeTrials,
		PortalReturnURL: cfg.Portal.ReturnURL,
	})

	return svc, func() { sessions.Close() }, nil
}

// setup loads config, a quiet logger and the plans service.
func setup() (*config.Config, *app.PlansService, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := zerolog.Nop()
	if cfg.Logging.Level == "debug" {
		logger = bootstrap.NewLogger(cfg.Logging, nil)
	}
	svc, closeFn, err := cliService(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, svc, closeFn, nil
}
