// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from a YAML file (hot reloadable) with PLANCART_*
// environment overrides.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/artpar/plancart/adapters/clock"
	apihttp "github.com/artpar/plancart/adapters/http"
	"github.com/artpar/plancart/adapters/idgen"
	"github.com/artpar/plancart/adapters/memory"
	"github.com/artpar/plancart/adapters/metrics"
	"github.com/artpar/plancart/adapters/payment"
	"github.com/artpar/plancart/adapters/remote"
	"github.com/artpar/plancart/adapters/tls"
	"github.com/artpar/plancart/app"
	"github.com/artpar/plancart/config"
	"github.com/artpar/plancart/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// ErrDraining is reported by the readiness check once shutdown has begun.
var ErrDraining = errors.New("server is shutting down")

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	HTTPServer *http.Server
	Metrics    *metrics.Collector
	Plans      *app.PlansService

	sessions  *trackedSessions
	acme      *tls.ACMEProvider
	challenge *http.Server
	draining  atomic.Bool
}

// Options customizes application wiring.
type Options struct {
	// Version is reported by /version.
	Version string

	// Registry receives metrics. Nil uses the default Prometheus registry.
	Registry *prometheus.Registry
}

// New creates the application from a config holder. The holder's listeners
// are registered so reloadable settings apply without a restart.
func New(holder *config.Holder, logger zerolog.Logger, opts Options) (*App, error) {
	cfg := holder.Get()
	logger.Info().Str("backend", cfg.Backend.URL).Str("payments", cfg.Payments.Provider).Msg("initializing plancart")

	a := &App{Logger: logger, Config: holder}

	if cfg.Metrics.Enabled {
		if opts.Registry != nil {
			a.Metrics = metrics.NewWithRegistry(opts.Registry)
		} else {
			a.Metrics = metrics.New()
		}
		logger.Info().Msg("prometheus metrics enabled")
	}

	client := remote.NewClient(remote.ClientConfig{
		BaseURL: cfg.Backend.URL,
		APIKey:  cfg.Backend.APIKey,
		Timeout: cfg.Backend.Timeout,
		Headers: cfg.Backend.Headers,
	})

	initiator, subscriptions, err := NewPayments(cfg.Payments, client)
	if err != nil {
		return nil, fmt.Errorf("init payments: %w", err)
	}

	var locator ports.CountryLocator
	if cfg.Geo.Enabled {
		locator = remote.NewCountryLocator(cfg.Geo.URL, cfg.Geo.Timeout)
	}

	a.sessions = newTrackedSessions(memory.SessionStoreConfig[*app.Visitor]{
		NumShards:       cfg.Sessions.Shards,
		TTL:             cfg.Sessions.TTL,
		CleanupInterval: cfg.Sessions.CleanupInterval,
	}, a.Metrics)

	a.Plans = app.NewPlansService(app.PlansDeps{
		Catalog:       remote.NewCatalogProvider(client),
		Payments:      initiator,
		Subscriptions: subscriptions,
		Transactions:  remote.NewTransactionSource(client),
		Locator:       locator,
		Sessions:      a.sessions,
		IDGen:         idgen.UUID{},
		Clock:         clock.Real{},
		Logger:        logger.With().Str("component", "plans").Logger(),
	}, plansConfig(cfg))

	handler := apihttp.NewPlansHandler(a.Plans, logger, a.Metrics, apihttp.CookieConfig{
		Name:   cfg.Sessions.CookieName,
		Secure: cfg.Sessions.CookieSecure || cfg.TLS.Enabled,
	})

	routerCfg := apihttp.RouterConfig{
		Metrics:       a.Metrics,
		EnableOpenAPI: cfg.OpenAPI.Enabled,
		Version:       opts.Version,
		Timeout:       cfg.Server.RequestTimeout,
	}
	if opts.Registry != nil {
		routerCfg.Gatherer = opts.Registry
	}
	router := apihttp.NewRouter(handler, apihttp.NewHealthHandler(a), logger, routerCfg)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.TLS.Enabled {
		a.acme = tls.NewACMEProvider(tls.ACMEConfig{
			Email:    cfg.TLS.Email,
			Domains:  cfg.TLS.Domains,
			CacheDir: cfg.TLS.CacheDir,
			Staging:  cfg.TLS.Staging,
		}, logger)
		a.HTTPServer.TLSConfig = a.acme.TLSConfig()
		a.challenge = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.TLS.HTTPPort),
			Handler:           a.acme.HTTPHandler(nil),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	holder.OnChange(a.applyConfig)
	holder.OnError(func(error) {
		if a.Metrics != nil {
			a.Metrics.ConfigReloadErrors.Inc()
		}
	})

	return a, nil
}

// NewPayments selects the checkout and subscription backends.
func NewPayments(cfg config.PaymentsConfig, client *remote.Client) (ports.SessionInitiator, ports.SubscriptionService, error) {
	switch cfg.Provider {
	case config.ProviderRemote, "":
		return remote.NewSessionInitiator(client), remote.NewSubscriptionService(client), nil
	case config.ProviderStripe, config.ProviderNone:
		p, err := payment.NewProvider(payment.Config{
			Provider: cfg.Provider,
			Stripe: payment.StripeConfig{
				SecretKey:      cfg.Stripe.SecretKey,
				PublishableKey: cfg.Stripe.PublishableKey,
				UIMode:         cfg.Stripe.UIMode,
				ReturnURL:      cfg.Stripe.ReturnURL,
				SuccessURL:     cfg.Stripe.SuccessURL,
				CancelURL:      cfg.Stripe.CancelURL,
				DaysUntilDue:   cfg.Stripe.DaysUntilDue,
			},
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Provider == config.ProviderStripe {
			return payment.NewTrialRouter(p, remote.NewSessionInitiator(client)), p, nil
		}
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("unknown payment provider: %s", cfg.Provider)
	}
}

func plansConfig(cfg *config.Config) app.PlansConfig {
	return app.PlansConfig{
		DefaultCountry:  cfg.Catalog.DefaultCountry,
		DefaultDuration: cfg.Catalog.DefaultDuration,
		IncludeTrials:   cfg.Catalog.IncludeTrials,
		PortalReturnURL: cfg.Portal.ReturnURL,
	}
}

// applyConfig pushes reloadable settings into running components.
func (a *App) applyConfig(cfg *config.Config) {
	a.Plans.UpdateConfig(plansConfig(cfg))
	a.sessions.SetTTL(cfg.Sessions.TTL)
	SetLogLevel(cfg.Logging.Level)
	if a.acme != nil {
		a.acme.UpdateDomains(cfg.TLS.Domains)
	}

	if a.Metrics != nil {
		a.Metrics.ConfigReloads.Inc()
		a.Metrics.ConfigLastReload.SetToCurrentTime()
	}
}

// HealthCheck fails once the application starts draining.
func (a *App) HealthCheck(ctx context.Context) error {
	if a.draining.Load() {
		return ErrDraining
	}
	return ctx.Err()
}

// Run starts the HTTP server and blocks until a signal or server error.
func (a *App) Run() error {
	errCh := make(chan error, 2)

	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Bool("tls", a.acme != nil).Msg("starting http server")
		var err error
		if a.acme != nil {
			err = a.HTTPServer.ListenAndServeTLS("", "")
		} else {
			err = a.HTTPServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if a.challenge != nil {
		go func() {
			a.Logger.Info().Str("addr", a.challenge.Addr).Msg("starting acme challenge server")
			if err := a.challenge.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application. Readiness fails first so load
// balancers stop routing before connections drain.
func (a *App) Shutdown() error {
	a.draining.Store(true)

	timeout := a.Config.Get().Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			errs = append(errs, err)
		}
	}
	if a.challenge != nil {
		if err := a.challenge.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	a.Config.Stop()
	if a.sessions != nil {
		a.sessions.Close()
	}

	a.Logger.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.HTTPServer.Handler
}
