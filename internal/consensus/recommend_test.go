package consensus

import (
	"strings"
	"testing"
)

func TestRecommendationsForCleanSuccess(t *testing.T) {
	t.Parallel()

	strong := QualityMetrics{
		ResponseConsistency: 0.9, TopicCoherence: 0.9, DecisionClarity: 0.9,
		SemanticConvergence: 0.9, ActionableContent: 0.9, EvidenceBased: 0.9,
	}
	if recs := Recommendations(ReasonQualityThresholdMet, strong, DefaultConfig()); len(recs) != 0 {
		t.Errorf("expected no recommendations for a strong result, got %v", recs)
	}
}

func TestRecommendationsPerReason(t *testing.T) {
	t.Parallel()

	strong := QualityMetrics{
		ResponseConsistency: 0.9, TopicCoherence: 0.9, DecisionClarity: 0.9,
		SemanticConvergence: 0.9, ActionableContent: 0.9, EvidenceBased: 0.9,
	}
	tests := []struct {
		reason TerminationReason
		want   string
	}{
		{ReasonFalseConsensus, "agree"},
		{ReasonMaxRoundsExceeded, "budget"},
		{ReasonManualTermination, "stopped early"},
	}
	for _, tt := range tests {
		recs := Recommendations(tt.reason, strong, DefaultConfig())
		if len(recs) != 1 || !strings.Contains(recs[0], tt.want) {
			t.Errorf("%s: recs = %v, want one containing %q", tt.reason, recs, tt.want)
		}
	}
}

func TestRecommendationsMetricFloors(t *testing.T) {
	t.Parallel()

	weak := QualityMetrics{} // everything below its floor
	cfg := DefaultConfig()
	recs := Recommendations(ReasonConsensusReached, weak, cfg)
	if len(recs) != 3 {
		t.Fatalf("recs = %v, want consistency/coherence/clarity suggestions only", recs)
	}

	cfg.RequireActionableContent = true
	cfg.RequireEvidenceBased = true
	recs = Recommendations(ReasonConsensusReached, weak, cfg)
	if len(recs) != 5 {
		t.Fatalf("recs = %v, want actionable and evidence suggestions added when required", recs)
	}
}
