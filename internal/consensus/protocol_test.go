package consensus

import (
	"math"
	"testing"
)

func TestNewStrategyKnownTags(t *testing.T) {
	t.Parallel()

	for _, pt := range ProtocolTypes() {
		s, err := NewStrategy(pt)
		if err != nil {
			t.Fatalf("NewStrategy(%q): %v", pt, err)
		}
		if s.Type() != pt {
			t.Errorf("strategy for %q reports type %q", pt, s.Type())
		}
	}
}

func TestNewStrategyUnknownTag(t *testing.T) {
	t.Parallel()

	if _, err := NewStrategy("adversarial"); err == nil {
		t.Fatal("expected error for unknown protocol tag")
	}
}

func TestRoundBudgetAlwaysStops(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxRounds = 3
	cfg.QualityThreshold = 0.99
	cfg.ConsensusThreshold = 0.99

	metricsGrid := []QualityMetrics{
		{},
		{ResponseConsistency: 1, TopicCoherence: 1, DecisionClarity: 1, SemanticConvergence: 1, ActionableContent: 1, EvidenceBased: 1},
		{ResponseConsistency: 0.9, TopicCoherence: 0.1},
	}
	for _, pt := range ProtocolTypes() {
		s, err := NewStrategy(pt)
		if err != nil {
			t.Fatal(err)
		}
		for _, m := range metricsGrid {
			for _, cs := range []float64{0, 0.5, 1} {
				if s.ShouldContinue(cfg.MaxRounds, m, cs, cfg) {
					t.Errorf("%s: ShouldContinue true at round == max_rounds (metrics %+v, consensus %v)", pt, m, cs)
				}
			}
		}
	}
}

func TestConvergentConsensusScore(t *testing.T) {
	t.Parallel()

	s, _ := NewStrategy(ProtocolConvergent)
	m := QualityMetrics{ResponseConsistency: 0.8, DecisionClarity: 0.4}
	if got := s.Consensus(nil, m); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("convergent consensus = %v, want 0.6", got)
	}
}

func TestConvergentShouldContinue(t *testing.T) {
	t.Parallel()

	s, _ := NewStrategy(ProtocolConvergent)
	cfg := Config{Protocol: ProtocolConvergent, MaxRounds: 5, ConsensusThreshold: 0.7, QualityThreshold: 0.6}

	strong := QualityMetrics{
		ResponseConsistency: 1, TopicCoherence: 1, DecisionClarity: 1,
		SemanticConvergence: 1, ActionableContent: 1, EvidenceBased: 1,
	}
	weak := QualityMetrics{}

	tests := []struct {
		name      string
		round     int
		metrics   QualityMetrics
		consensus float64
		want      bool
	}{
		{"both thresholds met", 1, strong, 0.9, false},
		{"quality below bar", 1, weak, 0.9, true},
		{"consensus below bar", 1, strong, 0.5, true},
		{"both below bar", 1, weak, 0.1, true},
	}
	for _, tt := range tests {
		if got := s.ShouldContinue(tt.round, tt.metrics, tt.consensus, cfg); got != tt.want {
			t.Errorf("%s: ShouldContinue = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDivergentConsensusScore(t *testing.T) {
	t.Parallel()

	s, _ := NewStrategy(ProtocolDivergent)
	m := QualityMetrics{ResponseConsistency: 0.2, TopicCoherence: 0.6}
	if got := s.Consensus(nil, m); math.Abs(got-0.7) > 1e-9 {
		t.Errorf("divergent consensus = %v, want 0.7", got)
	}
}

func TestDivergentShouldContinue(t *testing.T) {
	t.Parallel()

	s, _ := NewStrategy(ProtocolDivergent)
	cfg := Config{Protocol: ProtocolDivergent, MaxRounds: 5, ConsensusThreshold: 0.7, QualityThreshold: 0.6}

	strong := QualityMetrics{
		ResponseConsistency: 0.5, TopicCoherence: 1, DecisionClarity: 1,
		SemanticConvergence: 1, ActionableContent: 1, EvidenceBased: 1,
	}
	tooSimilar := strong
	tooSimilar.ResponseConsistency = 0.95

	tests := []struct {
		name    string
		metrics QualityMetrics
		want    bool
	}{
		{"diverse and high quality stops", strong, false},
		{"too similar keeps pushing", tooSimilar, true},
		{"low quality keeps pushing", QualityMetrics{ResponseConsistency: 0.2}, true},
	}
	for _, tt := range tests {
		if got := s.ShouldContinue(1, tt.metrics, 0, cfg); got != tt.want {
			t.Errorf("%s: ShouldContinue = %v, want %v", tt.name, got, tt.want)
		}
	}
}
