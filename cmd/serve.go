package cmd

import (
	"os"
	"path/filepath"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cartograph/cartograph/pkg/logging"
	"github.com/cartograph/cartograph/pkg/observability"
	"github.com/cartograph/cartograph/pkg/orchestrator"
	"github.com/cartograph/cartograph/pkg/provider"
	"github.com/cartograph/cartograph/pkg/service"
	"github.com/cartograph/cartograph/pkg/session"
	"github.com/cartograph/cartograph/pkg/tools"
)

var (
	addrFlag    string
	backendFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the cartograph copilot service",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.GetViper()

			closeLogs, err := logging.Setup(v.GetString("logging.level"), v.GetString("logging.file"))
			if err != nil {
				return err
			}
			defer closeLogs()

			registry, err := tools.Default(tools.Config{
				TerrestrialFactor: v.GetFloat64("analysis.latency.terrestrial_factor"),
				SubmarineFactor:   v.GetFloat64("analysis.latency.submarine_factor"),
				MaxPathAttempts:   v.GetInt("analysis.paths.max_attempts"),
			})
			if err != nil {
				return err
			}

			engine := orchestrator.NewEngine(
				provider.NewAnthropicProvider(provider.WithAnthropicClient()),
				registry,
				orchestrator.WithConfig(orchestrator.Config{
					Model:         v.GetString("model.name"),
					MaxTokens:     v.GetInt64("model.max_tokens"),
					MaxIterations: v.GetInt("model.max_iterations"),
				}),
				orchestrator.WithInstruments(observability.New()),
			)

			store, err := buildStore(v)
			if err != nil {
				return err
			}

			addr := addrFlag
			if addr == "" {
				addr = v.GetString("server.addr")
			}

			ttl := v.GetDuration("session.ttl")

			log.Info("starting cartograph", "addr", addr, "model", v.GetString("model.name"))
			srv := service.NewServer(engine,
				service.WithStore(store),
				service.WithSessionTTL(ttl),
			)
			return srv.Start(addr)
		},
	}
)

func buildStore(v *viper.Viper) (session.Store, error) {
	backend := backendFlag
	if backend == "" {
		backend = v.GetString("session.backend")
	}

	if backend != "sqlite" {
		return session.NewMemoryStore(), nil
	}

	path := v.GetString("session.sqlite_path")
	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, "."+projectName, path)
	}

	log.Info("using sqlite session store", "path", path)
	return session.NewSQLiteStore(path)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&addrFlag, "addr", "a", "", "Address to listen on (overrides config)")
	serveCmd.Flags().StringVar(&backendFlag, "session-backend", "", "Session store backend: memory or sqlite")
}

var longServe = `
Serve the cartograph HTTP API.

Endpoints:
  POST /chat         blocking request/response conversation turns
  POST /chat/stream  the same loop mirrored as server-sent events
  GET  /             liveness probe

Examples:
  # Serve on the configured address with in-memory sessions
  cartograph serve

  # Serve on a specific port with sqlite-backed sessions
  cartograph serve --addr :8080 --session-backend sqlite
`
