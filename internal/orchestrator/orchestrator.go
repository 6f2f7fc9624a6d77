// Package orchestrator is the composition root for a discussion: it assigns
// roles to agents, renders per-agent prompts, fans generation out across the
// agents concurrently, scores each response against its role's requirements,
// and drives the consensus engine round by round.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mootlabs/moot/internal/consensus"
	"github.com/mootlabs/moot/internal/roles"
	"github.com/mootlabs/moot/internal/textutil"
)

// Producer is the external collaborator that actually generates one agent's
// response text. Implementations are typically model API clients; tests use
// scripted producers.
type Producer interface {
	Produce(ctx context.Context, agentID, prompt string) (content string, model string, err error)
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc func(ctx context.Context, agentID, prompt string) (string, string, error)

// Produce calls f.
func (f ProducerFunc) Produce(ctx context.Context, agentID, prompt string) (string, string, error) {
	return f(ctx, agentID, prompt)
}

// Request describes one discussion to run.
type Request struct {
	// SessionID optionally pins the session identifier; the engine
	// generates one when empty.
	SessionID string `json:"session_id,omitempty"`

	Topic              string                 `json:"topic"`
	Agents             []string               `json:"agents"`
	Protocol           consensus.ProtocolType `json:"protocol"`
	MaxRounds          int                    `json:"max_rounds"`
	ConsensusThreshold float64                `json:"consensus_threshold"`
	QualityThreshold   float64                `json:"quality_threshold"`
	MinResponseLength  int                    `json:"min_response_length,omitempty"`
	RequireActionable  bool                   `json:"require_actionable_content,omitempty"`
	RequireEvidence    bool                   `json:"require_evidence_based,omitempty"`
	RoleOverrides      map[string]string      `json:"role_overrides,omitempty"`
	Capabilities       []roles.Capability     `json:"capabilities,omitempty"`
}

// Validate checks the discussion preconditions before any round runs. The
// error names the offending field.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("topic: must not be empty")
	}
	if len(r.Agents) == 0 {
		return fmt.Errorf("agents: at least one agent is required")
	}
	if r.MaxRounds < 1 || r.MaxRounds > 10 {
		return fmt.Errorf("max_rounds: must be between 1 and 10, got %d", r.MaxRounds)
	}
	if r.ConsensusThreshold < 0 || r.ConsensusThreshold > 1 {
		return fmt.Errorf("consensus_threshold: must be in [0,1], got %v", r.ConsensusThreshold)
	}
	if r.QualityThreshold < 0 || r.QualityThreshold > 1 {
		return fmt.Errorf("quality_threshold: must be in [0,1], got %v", r.QualityThreshold)
	}
	return nil
}

// Orchestrator wires the role registry and the response producer into the
// consensus engine. One orchestrator can run many discussions; per-session
// state lives in the discussion runner it builds.
type Orchestrator struct {
	registry *roles.Registry
	producer Producer
	logger   *slog.Logger
	events   chan<- consensus.RoundEvent
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithEvents forwards round events from every discussion to ch.
func WithEvents(ch chan<- consensus.RoundEvent) Option {
	return func(o *Orchestrator) { o.events = ch }
}

// New creates an Orchestrator around an explicit registry and producer.
func New(registry *roles.Registry, producer Producer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		producer: producer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunDiscussion validates the request, assigns roles, and runs the round
// loop to completion. Precondition violations fail fast before round 1; once
// started, the discussion itself never crashes - callers get a Result whose
// termination reason explains the outcome.
func (o *Orchestrator) RunDiscussion(ctx context.Context, req Request) (*consensus.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid discussion request: %w", err)
	}

	var assignments []roles.Assignment
	if len(req.RoleOverrides) > 0 {
		assignments = roles.CustomAssignment(o.registry, req.Agents, req.RoleOverrides, o.logger)
	} else {
		assignments = roles.BalancedAssignment(o.registry, req.Agents, req.Capabilities, o.logger)
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("role_overrides: no agent received a valid role")
	}

	cfg := consensus.Config{
		Protocol:                 req.Protocol,
		MaxRounds:                req.MaxRounds,
		ConsensusThreshold:       req.ConsensusThreshold,
		QualityThreshold:         req.QualityThreshold,
		MinResponseLength:        req.MinResponseLength,
		RequireActionableContent: req.RequireActionable,
		RequireEvidenceBased:     req.RequireEvidence,
	}
	if cfg.MinResponseLength == 0 {
		cfg.MinResponseLength = consensus.DefaultConfig().MinResponseLength
	}

	runner := &discussionRunner{
		orchestrator: o,
		topic:        strings.TrimSpace(req.Topic),
		assignments:  assignments,
	}

	opts := []consensus.EngineOption{consensus.WithLogger(o.logger)}
	if o.events != nil {
		opts = append(opts, consensus.WithEvents(o.events))
	}
	if req.SessionID != "" {
		opts = append(opts, consensus.WithSessionID(req.SessionID))
	}
	engine, err := consensus.NewEngine(runner.topic, cfg, runner, opts...)
	if err != nil {
		return nil, err
	}

	o.logger.Info("discussion configured",
		"session", engine.SessionID(),
		"agents", len(assignments),
		"protocol", cfg.Protocol)
	return engine.Run(ctx)
}

// discussionRunner is the per-session generator handed to the engine. It
// remembers the previous round so later prompts can reference it.
type discussionRunner struct {
	orchestrator *Orchestrator
	topic        string
	assignments  []roles.Assignment

	mu        sync.Mutex
	prevRound []consensus.AgentResponse
}

// GenerateRound produces one response per assigned agent. Generation is
// independent and IO-bound, so agents run concurrently and join before
// scoring. A failing agent is logged and omitted from the batch; it never
// aborts the round.
func (d *discussionRunner) GenerateRound(ctx context.Context, roundNumber int, topic string) ([]consensus.AgentResponse, error) {
	previous := d.formatPreviousResponses()

	results := make([]*consensus.AgentResponse, len(d.assignments))
	var wg sync.WaitGroup
	for i, assignment := range d.assignments {
		role, ok := d.orchestrator.registry.Get(assignment.RoleID)
		if !ok {
			// Assignment already validated; a vanished role is a bug, but
			// the round survives without that agent.
			d.orchestrator.logger.Warn("assigned role missing from registry",
				"agent", assignment.AgentID, "role", assignment.RoleID)
			continue
		}

		wg.Add(1)
		go func(i int, agentID string, role roles.Role) {
			defer wg.Done()

			prompt := role.RenderPrompt(topic, previous)
			content, model, err := d.orchestrator.producer.Produce(ctx, agentID, prompt)
			if err != nil {
				d.orchestrator.logger.Warn("agent generation failed, omitting from round",
					"agent", agentID,
					"role", role.ID,
					"round", roundNumber,
					"error", err)
				return
			}

			results[i] = &consensus.AgentResponse{
				AgentID:      agentID,
				Model:        model,
				RoleID:       role.ID,
				Content:      content,
				Timestamp:    time.Now(),
				WordCount:    textutil.WordCount(content),
				QualityScore: roles.WeightedScore(role, content, d.orchestrator.logger),
			}
		}(i, assignment.AgentID, role)
	}
	wg.Wait()

	responses := make([]consensus.AgentResponse, 0, len(results))
	for _, r := range results {
		if r != nil {
			responses = append(responses, *r)
		}
	}

	d.mu.Lock()
	d.prevRound = responses
	d.mu.Unlock()

	return responses, nil
}

// formatPreviousResponses renders the prior round for prompt substitution.
func (d *discussionRunner) formatPreviousResponses() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.prevRound) == 0 {
		return "(none - this is the first round)"
	}
	var b strings.Builder
	for _, resp := range d.prevRound {
		fmt.Fprintf(&b, "[%s as %s]\n%s\n\n", resp.AgentID, resp.RoleID, resp.Content)
	}
	return strings.TrimSpace(b.String())
}
