package consensus

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// Generator produces one round's batch of responses. It is an external
// collaborator: errors it returns propagate out of Run unchanged, and it may
// return fewer responses than there are agents.
type Generator interface {
	GenerateRound(ctx context.Context, roundNumber int, topic string) ([]AgentResponse, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, roundNumber int, topic string) ([]AgentResponse, error)

// GenerateRound calls f.
func (f GeneratorFunc) GenerateRound(ctx context.Context, roundNumber int, topic string) ([]AgentResponse, error) {
	return f(ctx, roundNumber, topic)
}

// Engine owns one discussion's round loop. An engine is session-scoped: it
// processes exactly one discussion and shares no state across sessions. The
// round list is owned exclusively by the engine and is append-only.
type Engine struct {
	sessionID string
	topic     string
	cfg       Config
	strategy  Strategy
	gate      *QualityGate
	generator Generator
	logger    *slog.Logger
	events    chan<- RoundEvent

	rounds []DiscussionRound
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithEvents attaches an observer channel. Events are sent non-blocking
// between rounds; a full channel drops the event rather than stalling the
// loop.
func WithEvents(ch chan<- RoundEvent) EngineOption {
	return func(e *Engine) { e.events = ch }
}

// WithSessionID overrides the generated session identifier.
func WithSessionID(id string) EngineOption {
	return func(e *Engine) { e.sessionID = id }
}

// WithStrategy overrides the strategy resolved from the config's protocol
// tag. This is the extension point for protocols that are not registered in
// the built-in table.
func WithStrategy(s Strategy) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.strategy = s
		}
	}
}

// NewEngine validates the configuration and builds an engine for one
// discussion. Configuration problems are fatal here, before any round runs.
func NewEngine(topic string, cfg Config, generator Generator, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid consensus config: %w", err)
	}
	if generator == nil {
		return nil, fmt.Errorf("generator must not be nil")
	}
	strategy, err := NewStrategy(cfg.Protocol)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		sessionID: newSessionID(),
		topic:     topic,
		cfg:       cfg,
		strategy:  strategy,
		generator: generator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.gate = NewQualityGate(cfg.MinResponseLength, e.logger)
	return e, nil
}

// SessionID returns the discussion's session identifier.
func (e *Engine) SessionID() string { return e.sessionID }

// Rounds returns the rounds recorded so far. Safe to read between rounds;
// the engine never mutates recorded rounds.
func (e *Engine) Rounds() []DiscussionRound { return e.rounds }

// Run executes the round loop until the protocol stops it, the round budget
// is exhausted, or ctx is cancelled between rounds. Generator failures
// propagate; everything else terminates with a classified reason.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	e.logger.Info("discussion started",
		"session", e.sessionID,
		"protocol", e.cfg.Protocol,
		"max_rounds", e.cfg.MaxRounds)

	var (
		lastMetrics   QualityMetrics
		lastConsensus float64
		reason        TerminationReason
		cancelled     bool
		classified    bool
	)

	for roundNum := 1; roundNum <= e.cfg.MaxRounds; roundNum++ {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		responses, err := e.generator.GenerateRound(ctx, roundNum, e.topic)
		if err != nil {
			return nil, fmt.Errorf("round %d: generating responses: %w", roundNum, err)
		}

		metrics := e.gate.Evaluate(responses)
		consensusScore := e.strategy.Consensus(responses, metrics)

		round := DiscussionRound{
			RoundNumber:    roundNum,
			Responses:      responses,
			Metrics:        metrics,
			ConsensusScore: consensusScore,
			Timestamp:      time.Now(),
		}
		e.rounds = append(e.rounds, round)
		lastMetrics, lastConsensus = metrics, consensusScore

		e.logger.Info("round evaluated",
			"session", e.sessionID,
			"round", roundNum,
			"responses", len(responses),
			"overall", metrics.OverallScore(),
			"consensus", consensusScore)
		e.emit(round)

		if !e.strategy.ShouldContinue(roundNum, metrics, consensusScore, e.cfg) {
			reason = ClassifyTermination(roundNum, e.cfg, metrics, consensusScore)
			classified = true
			break
		}
	}

	switch {
	case cancelled:
		reason = ReasonManualTermination
	case !classified:
		// Defensive: a strategy that never said stop still cannot exceed
		// the round budget.
		reason = ReasonMaxRoundsExceeded
	}

	result := &Result{
		SessionID:         e.sessionID,
		Topic:             e.topic,
		Config:            e.cfg,
		Rounds:            e.rounds,
		TerminationReason: reason,
		FinalConsensus:    lastConsensus,
		FinalMetrics:      lastMetrics,
		ExecutionTime:     time.Since(start),
		Success:           reason == ReasonConsensusReached || reason == ReasonQualityThresholdMet,
	}
	result.Recommendations = Recommendations(result.TerminationReason, result.FinalMetrics, e.cfg)

	e.logger.Info("discussion terminated",
		"session", e.sessionID,
		"rounds", len(e.rounds),
		"reason", reason,
		"success", result.Success,
		"elapsed", result.ExecutionTime)
	return result, nil
}

// ClassifyTermination maps a stopped round to its termination reason using
// the fixed precedence: round budget first, then the quality threshold, then
// consensus (flagging agreement without substance as false consensus), and
// finally the manual catch-all for protocol-specific early stops.
func ClassifyTermination(roundNum int, cfg Config, metrics QualityMetrics, consensusScore float64) TerminationReason {
	switch {
	case roundNum >= cfg.MaxRounds:
		return ReasonMaxRoundsExceeded
	case metrics.PassesThreshold(cfg.QualityThreshold):
		return ReasonQualityThresholdMet
	case consensusScore >= cfg.ConsensusThreshold:
		if metrics.OverallScore() < cfg.QualityThreshold {
			return ReasonFalseConsensus
		}
		return ReasonConsensusReached
	default:
		// Protocol-specific early stop, cause not otherwise classified.
		return ReasonManualTermination
	}
}

func (e *Engine) emit(round DiscussionRound) {
	if e.events == nil {
		return
	}
	event := RoundEvent{
		SessionID:      e.sessionID,
		RoundNumber:    round.RoundNumber,
		Responses:      len(round.Responses),
		Metrics:        round.Metrics,
		OverallScore:   round.Metrics.OverallScore(),
		ConsensusScore: round.ConsensusScore,
		Timestamp:      round.Timestamp,
	}
	select {
	case e.events <- event:
	default:
		e.logger.Debug("round event dropped, observer not keeping up",
			"session", e.sessionID, "round", round.RoundNumber)
	}
}

func newSessionID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// Fall back to a time-derived ID; uniqueness is best-effort here.
		return fmt.Sprintf("disc-%d", time.Now().UnixNano())
	}
	return "disc-" + hex.EncodeToString(buf)
}
