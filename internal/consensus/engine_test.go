package consensus

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// scriptedGenerator replays a fixed script of rounds, repeating the last
// round once the script runs out.
func scriptedGenerator(script [][]AgentResponse) Generator {
	return GeneratorFunc(func(_ context.Context, roundNum int, _ string) ([]AgentResponse, error) {
		idx := roundNum - 1
		if idx >= len(script) {
			idx = len(script) - 1
		}
		return script[idx], nil
	})
}

func TestEngineStructuredAgreementSucceeds(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Protocol:           ProtocolConvergent,
		MaxRounds:          2,
		ConsensusThreshold: 0.5,
		QualityThreshold:   0.4,
		MinResponseLength:  50,
	}
	round := []AgentResponse{
		{AgentID: "alice", Content: "Step 1: implement the caching layer. Step 2: deploy the service behind a feature flag. Step 3: measure latency and document results."},
		{AgentID: "bob", Content: "Step 1: implement the caching layer. Step 2: deploy the service behind a feature flag. Step 3: measure latency and publish results."},
	}

	engine, err := NewEngine("how to roll out caching", cfg, scriptedGenerator([][]AgentResponse{round}))
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if !result.Success {
		t.Errorf("Success = false, want true (reason %s)", result.TerminationReason)
	}
	if result.TerminationReason != ReasonQualityThresholdMet {
		t.Errorf("reason = %s, want %s", result.TerminationReason, ReasonQualityThresholdMet)
	}
	if len(result.Rounds) != 1 {
		t.Errorf("rounds = %d, want 1 (structured agreement should stop immediately)", len(result.Rounds))
	}
	if result.FinalConsensus < cfg.ConsensusThreshold {
		t.Errorf("final consensus = %v, want >= %v", result.FinalConsensus, cfg.ConsensusThreshold)
	}
}

func TestEngineGenericResponsesExhaustRounds(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Protocol:           ProtocolConvergent,
		MaxRounds:          3,
		ConsensusThreshold: 0.9,
		QualityThreshold:   0.7,
		MinResponseLength:  50,
	}
	round := []AgentResponse{
		{AgentID: "alice", Content: "It depends on various factors and there are pros and cons."},
		{AgentID: "bob", Content: "Honestly it depends, and there are pros and cons to everything."},
	}

	engine, err := NewEngine("should we rewrite the backend", cfg, scriptedGenerator([][]AgentResponse{round}))
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Success {
		t.Error("Success = true, want false for low-quality non-convergence")
	}
	if result.TerminationReason != ReasonMaxRoundsExceeded {
		t.Errorf("reason = %s, want %s", result.TerminationReason, ReasonMaxRoundsExceeded)
	}
	if len(result.Rounds) != cfg.MaxRounds {
		t.Errorf("rounds = %d, want %d", len(result.Rounds), cfg.MaxRounds)
	}
	if len(result.Recommendations) == 0 {
		t.Error("expected recommendations for an exhausted discussion")
	}
}

// stopStrategy reports a fixed consensus score and stops after the first
// round, regardless of metrics.
type stopStrategy struct {
	consensus float64
}

func (stopStrategy) Type() ProtocolType { return "stub" }
func (s stopStrategy) Consensus(_ []AgentResponse, _ QualityMetrics) float64 {
	return s.consensus
}
func (stopStrategy) ShouldContinue(int, QualityMetrics, float64, Config) bool { return false }

func TestEngineFlagsFalseConsensus(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Protocol:           ProtocolConvergent,
		MaxRounds:          3,
		ConsensusThreshold: 0.5,
		QualityThreshold:   0.99,
		MinResponseLength:  50,
	}
	round := []AgentResponse{
		{AgentID: "alice", Content: "yes absolutely agreed"},
		{AgentID: "bob", Content: "yes absolutely agreed"},
	}

	engine, err := NewEngine("quick poll", cfg,
		scriptedGenerator([][]AgentResponse{round}),
		WithStrategy(stopStrategy{consensus: 0.9}))
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.TerminationReason != ReasonFalseConsensus {
		t.Errorf("reason = %s, want %s", result.TerminationReason, ReasonFalseConsensus)
	}
	if result.Success {
		t.Error("false consensus must never count as success")
	}
	if len(result.Recommendations) == 0 || !strings.Contains(result.Recommendations[0], "agree") {
		t.Errorf("expected a false-consensus recommendation, got %v", result.Recommendations)
	}
}

func TestEngineEarlyStopWithoutCauseIsManual(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Protocol:           ProtocolConvergent,
		MaxRounds:          3,
		ConsensusThreshold: 0.9,
		QualityThreshold:   0.99,
		MinResponseLength:  50,
	}
	engine, err := NewEngine("stalled topic", cfg,
		scriptedGenerator([][]AgentResponse{{{AgentID: "alice", Content: "hm"}}}),
		WithStrategy(stopStrategy{consensus: 0.1}))
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.TerminationReason != ReasonManualTermination {
		t.Errorf("reason = %s, want %s", result.TerminationReason, ReasonManualTermination)
	}
	if result.Success {
		t.Error("manual termination must never count as success")
	}
}

func TestEngineCancelledBeforeFirstRound(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine, err := NewEngine("never starts", DefaultConfig(),
		scriptedGenerator([][]AgentResponse{{{AgentID: "alice", Content: "unused"}}}))
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if result.TerminationReason != ReasonManualTermination {
		t.Errorf("reason = %s, want %s", result.TerminationReason, ReasonManualTermination)
	}
	if len(result.Rounds) != 0 {
		t.Errorf("rounds = %d, want 0 when cancelled up front", len(result.Rounds))
	}
	if result.Success {
		t.Error("cancelled discussion must not report success")
	}
	if (result.FinalMetrics != QualityMetrics{}) {
		t.Errorf("final metrics = %+v, want zero value with no completed rounds", result.FinalMetrics)
	}
}

func TestEngineCancelledBetweenRounds(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	generator := GeneratorFunc(func(_ context.Context, roundNum int, _ string) ([]AgentResponse, error) {
		if roundNum == 1 {
			cancel()
		}
		return []AgentResponse{{AgentID: "alice", Content: "still thinking"}}, nil
	})

	cfg := DefaultConfig()
	cfg.QualityThreshold = 0.99
	cfg.ConsensusThreshold = 0.99

	engine, err := NewEngine("interrupted topic", cfg, generator)
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if result.TerminationReason != ReasonManualTermination {
		t.Errorf("reason = %s, want %s", result.TerminationReason, ReasonManualTermination)
	}
	if len(result.Rounds) != 1 {
		t.Errorf("rounds = %d, want 1 (round before cancellation is kept)", len(result.Rounds))
	}
}

func TestEngineGeneratorErrorPropagates(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("agent pool unavailable")
	engine, err := NewEngine("doomed topic", DefaultConfig(),
		GeneratorFunc(func(context.Context, int, string) ([]AgentResponse, error) {
			return nil, sentinel
		}))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := engine.Run(context.Background()); !errors.Is(err, sentinel) {
		t.Errorf("Run error = %v, want wrapped sentinel", err)
	}
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	gen := scriptedGenerator([][]AgentResponse{nil})
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown protocol", func(c *Config) { c.Protocol = "chaotic" }, "protocol"},
		{"zero rounds", func(c *Config) { c.MaxRounds = 0 }, "max_rounds"},
		{"too many rounds", func(c *Config) { c.MaxRounds = 11 }, "max_rounds"},
		{"consensus threshold above one", func(c *Config) { c.ConsensusThreshold = 1.2 }, "consensus_threshold"},
		{"negative quality threshold", func(c *Config) { c.QualityThreshold = -0.1 }, "quality_threshold"},
		{"negative min length", func(c *Config) { c.MinResponseLength = -1 }, "min_response_length"},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		_, err := NewEngine("topic", cfg, gen)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.field) {
			t.Errorf("%s: error %q does not name field %q", tt.name, err, tt.field)
		}
	}
}

func TestEngineEmitsRoundEvents(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Protocol:           ProtocolConvergent,
		MaxRounds:          2,
		ConsensusThreshold: 0.99,
		QualityThreshold:   0.99,
		MinResponseLength:  50,
	}
	events := make(chan RoundEvent, 4)
	engine, err := NewEngine("observed topic", cfg,
		scriptedGenerator([][]AgentResponse{{{AgentID: "alice", Content: "round content"}}}),
		WithEvents(events),
		WithSessionID("disc-test"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	close(events)

	var got []RoundEvent
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	for i, ev := range got {
		if ev.SessionID != "disc-test" {
			t.Errorf("event %d session = %q, want disc-test", i, ev.SessionID)
		}
		if ev.RoundNumber != i+1 {
			t.Errorf("event %d round = %d, want %d", i, ev.RoundNumber, i+1)
		}
	}
}

func TestClassifyTermination(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Protocol:           ProtocolConvergent,
		MaxRounds:          3,
		ConsensusThreshold: 0.7,
		QualityThreshold:   0.6,
	}
	strong := QualityMetrics{
		ResponseConsistency: 1, TopicCoherence: 1, DecisionClarity: 1,
		SemanticConvergence: 1, ActionableContent: 1, EvidenceBased: 1,
	}
	weak := QualityMetrics{ResponseConsistency: 1} // overall 0.20

	tests := []struct {
		name      string
		round     int
		metrics   QualityMetrics
		consensus float64
		want      TerminationReason
	}{
		{"budget exhausted wins over everything", 3, strong, 1.0, ReasonMaxRoundsExceeded},
		{"quality met", 1, strong, 0.0, ReasonQualityThresholdMet},
		{"agreement with substance", 1, strong, 0.9, ReasonQualityThresholdMet},
		{"agreement without substance", 1, weak, 0.9, ReasonFalseConsensus},
		{"nothing met", 1, weak, 0.1, ReasonManualTermination},
	}
	for _, tt := range tests {
		if got := ClassifyTermination(tt.round, cfg, tt.metrics, tt.consensus); got != tt.want {
			t.Errorf("%s: ClassifyTermination = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestEngineSessionIDGenerated(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine("topic", DefaultConfig(),
		scriptedGenerator([][]AgentResponse{nil}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(engine.SessionID(), "disc-") {
		t.Errorf("session id %q missing disc- prefix", engine.SessionID())
	}
}

func TestEngineRecordsExecutionTime(t *testing.T) {
	t.Parallel()

	generator := GeneratorFunc(func(context.Context, int, string) ([]AgentResponse, error) {
		time.Sleep(time.Millisecond)
		return []AgentResponse{{AgentID: "alice", Content: "quick reply"}}, nil
	})
	cfg := DefaultConfig()
	cfg.MaxRounds = 1

	engine, err := NewEngine("timed topic", cfg, generator)
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.ExecutionTime <= 0 {
		t.Errorf("execution time = %v, want > 0", result.ExecutionTime)
	}
}
