package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mootlabs/moot/internal/llm"
	"github.com/mootlabs/moot/internal/serve"
	"github.com/mootlabs/moot/internal/state"
)

func newServeCmd() *cobra.Command {
	var (
		addr      string
		rolesFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST/WebSocket API server",
		Long: `Start the API server. Discussions created through the API run in the
background; round events stream over the /events WebSocket endpoint.

Examples:
  moot serve
  moot serve --addr 0.0.0.0:7411`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := buildRegistry(rolesFile)
			if err != nil {
				return err
			}

			producer := llm.New(llm.Config{
				BaseURL:     cfg.LLM.BaseURL,
				APIKey:      cfg.APIKey(),
				Model:       cfg.LLM.Model,
				MaxTokens:   cfg.LLM.MaxTokens,
				Temperature: cfg.LLM.Temperature,
				Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
			}, slog.Default())

			opts := []serve.Option{
				serve.WithLogger(slog.Default()),
				serve.WithDefaults(cfg.Defaults),
			}
			if cfg.Storage.Path != "" {
				store, err := state.Open(cfg.Storage.Path)
				if err != nil {
					return err
				}
				defer store.Close()
				opts = append(opts, serve.WithStore(store))
			}

			if addr == "" {
				addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			}
			server := serve.NewServer(registry, producer, opts...)
			return server.ListenAndServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&rolesFile, "roles-file", "", "YAML role pack to merge into the registry")
	return cmd
}
