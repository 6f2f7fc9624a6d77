package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mootlabs/moot/internal/consensus"
	"github.com/mootlabs/moot/internal/llm"
	"github.com/mootlabs/moot/internal/orchestrator"
	"github.com/mootlabs/moot/internal/roles"
	"github.com/mootlabs/moot/internal/state"
)

func newRunCmd() *cobra.Command {
	var (
		topic              string
		agents             []string
		protocol           string
		maxRounds          int
		consensusThreshold float64
		qualityThreshold   float64
		roleOverrides      []string
		rolesFile          string
		dryRun             bool
		requireActionable  bool
		requireEvidence    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a deliberation and print the consensus report",
		Long: `Run one discussion end to end: assign roles to the agents, generate one
response per agent per round, score each round through the quality gate, and
stop when the protocol is satisfied or the round budget is spent.

Interrupting with Ctrl-C stops the discussion cleanly between rounds; the
partial result is reported as a manual termination.

Examples:
  moot run --topic "Should we adopt a monorepo?" --agents alice,bob,carol
  moot run --topic "..." --role alice=architect --role bob=risk-assessor
  moot run --topic "..." --dry-run --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := buildRegistry(rolesFile)
			if err != nil {
				return err
			}

			overrides, err := parseRoleOverrides(roleOverrides)
			if err != nil {
				return err
			}

			var producer orchestrator.Producer
			if dryRun {
				producer = dryRunProducer(agents)
			} else {
				producer = llm.New(llm.Config{
					BaseURL:     cfg.LLM.BaseURL,
					APIKey:      cfg.APIKey(),
					Model:       cfg.LLM.Model,
					MaxTokens:   cfg.LLM.MaxTokens,
					Temperature: cfg.LLM.Temperature,
					Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
				}, slog.Default())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			orch := orchestrator.New(registry, producer, orchestrator.WithLogger(slog.Default()))
			result, err := orch.RunDiscussion(ctx, orchestrator.Request{
				Topic:              topic,
				Agents:             agents,
				Protocol:           consensus.ProtocolType(protocol),
				MaxRounds:          maxRounds,
				ConsensusThreshold: consensusThreshold,
				QualityThreshold:   qualityThreshold,
				RequireActionable:  requireActionable,
				RequireEvidence:    requireEvidence,
				RoleOverrides:      overrides,
			})
			if err != nil {
				return err
			}

			if cfg.Storage.Path != "" {
				store, err := state.Open(cfg.Storage.Path)
				if err != nil {
					slog.Warn("opening discussion store failed", "error", err)
				} else {
					defer store.Close()
					if err := store.SaveResult(result); err != nil {
						slog.Warn("saving discussion failed", "error", err)
					}
				}
			}

			if flagJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return renderResult(cmd.OutOrStdout(), result)
		},
	}

	defaults := consensus.DefaultConfig()
	cmd.Flags().StringVar(&topic, "topic", "", "discussion topic (required)")
	cmd.Flags().StringSliceVar(&agents, "agents", nil, "comma-separated agent identifiers (required)")
	cmd.Flags().StringVar(&protocol, "protocol", string(defaults.Protocol), "consensus protocol: convergent or divergent")
	cmd.Flags().IntVar(&maxRounds, "max-rounds", defaults.MaxRounds, "round budget (1-10)")
	cmd.Flags().Float64Var(&consensusThreshold, "consensus-threshold", defaults.ConsensusThreshold, "consensus score needed to stop (0-1)")
	cmd.Flags().Float64Var(&qualityThreshold, "quality-threshold", defaults.QualityThreshold, "overall quality needed to stop (0-1)")
	cmd.Flags().StringArrayVar(&roleOverrides, "role", nil, "explicit agent=role assignment (repeatable)")
	cmd.Flags().StringVar(&rolesFile, "roles-file", "", "YAML role pack to merge into the registry")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "use canned responses instead of the model backend")
	cmd.Flags().BoolVar(&requireActionable, "require-actionable", false, "recommend follow-up when actionable content is low")
	cmd.Flags().BoolVar(&requireEvidence, "require-evidence", false, "recommend follow-up when evidence grounding is low")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("agents")

	return cmd
}

// buildRegistry creates the default registry and merges the role pack named
// on the command line or in the config file.
func buildRegistry(rolesFile string) (*roles.Registry, error) {
	registry, err := roles.NewDefaultRegistry(slog.Default())
	if err != nil {
		return nil, err
	}
	packPath := rolesFile
	if packPath == "" {
		packPath = cfg.Roles.PackPath
	}
	if packPath != "" {
		if _, err := roles.LoadRolePack(registry, packPath, slog.Default()); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func parseRoleOverrides(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		agent, role, ok := strings.Cut(pair, "=")
		if !ok || agent == "" || role == "" {
			return nil, fmt.Errorf("invalid --role %q, expected agent=role", pair)
		}
		overrides[agent] = role
	}
	return overrides, nil
}

// dryRunProducer scripts three rounds of plausible responses per agent so
// the full loop can be exercised without a model backend.
func dryRunProducer(agents []string) orchestrator.Producer {
	scripts := make(map[string][]string, len(agents))
	for i, agent := range agents {
		scripts[agent] = []string{
			fmt.Sprintf("Step 1: define the problem precisely. Step 2: implement a small prototype to measure the 2 main unknowns. Step 3: document the findings. (perspective %d)", i+1),
			fmt.Sprintf("Based on the previous round, I recommend we implement the prototype first, then test it against the benchmark and document the results. Specifically, 3 risks need mitigation. (perspective %d)", i+1),
			fmt.Sprintf("In summary: we should implement, measure, and document. According to the prototype data, the approach is sound. Therefore I recommend we proceed. (perspective %d)", i+1),
		}
	}
	return orchestrator.NewScriptedProducer(scripts)
}
