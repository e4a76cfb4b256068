package main

import (
	"fmt"
	"os"

	"github.com/artpar/plancart/bootstrap"
	"github.com/artpar/plancart/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the plancart HTTP server.

The server will:
  - Load configuration from plancart.yaml (or --config)
  - Or load configuration from PLANCART_* environment variables
  - Serve the catalog, cart and checkout API under /api
  - Reload catalog defaults, session TTL and log level on file change or SIGHUP

Environment variables (for container deployments):
  PLANCART_BACKEND_URL         - Payments backend URL (required)
  PLANCART_PAYMENTS_PROVIDER   - remote, stripe or none (default: remote)
  PLANCART_STRIPE_SECRET_KEY   - Stripe secret key (provider stripe)
  PLANCART_SERVER_PORT         - Server port (default: 8080)
  PLANCART_DEFAULT_COUNTRY     - Catalog country when none is given (default: US)
  PLANCART_LOG_LEVEL           - Log level: debug, info, warn, error

Examples:
  plancart serve
  plancart serve --config /etc/plancart/config.yaml
  plancart serve --hot-reload=false

  # Env vars only:
  PLANCART_BACKEND_URL=https://billing.internal plancart serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	if !hasConfigFile && !config.HasEnvConfig() {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "No configuration found.")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Option 1: Create %s with at least backend.url\n", cfgFile)
		fmt.Fprintln(out, "Option 2: Set PLANCART_BACKEND_URL environment variable")
		return nil
	}

	var holder *config.Holder
	var cfg *config.Config
	var err error
	if hasConfigFile {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := bootstrap.NewLogger(cfg.Logging, os.Stdout)

	if hasConfigFile {
		holder, err = config.NewHolder(cfgFile, logger)
		if err != nil {
			return err
		}
	} else {
		holder = config.NewStaticHolder(cfg, logger)
	}

	app, err := bootstrap.New(holder, logger, bootstrap.Options{Version: version})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	if hasConfigFile && hotReload {
		if err := holder.WatchFile(); err != nil {
			logger.Warn().Err(err).Msg("config file watch disabled")
		}
		holder.WatchSignals()
	}

	return app.Run()
}
