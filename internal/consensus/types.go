// Package consensus implements the round-driving deliberation core: the
// quality gate that scores each round on six dimensions, the protocol
// strategies that turn those scores into a continue/stop decision, and the
// engine that owns the round loop and classifies why a discussion ended.
package consensus

import (
	"time"
)

// ProtocolType selects the consensus strategy for a discussion.
type ProtocolType string

const (
	// ProtocolConvergent drives agents toward agreement: consensus is the
	// mean of consistency and clarity.
	ProtocolConvergent ProtocolType = "convergent"

	// ProtocolDivergent rewards diverse but coherent output: consensus is
	// the mean of (1 - consistency) and coherence.
	ProtocolDivergent ProtocolType = "divergent"
)

// TerminationReason classifies why a discussion stopped. Exactly one reason
// is assigned per result.
type TerminationReason string

const (
	ReasonConsensusReached    TerminationReason = "consensus_reached"
	ReasonMaxRoundsExceeded   TerminationReason = "max_rounds_exceeded"
	ReasonQualityThresholdMet TerminationReason = "quality_threshold_met"
	ReasonFalseConsensus      TerminationReason = "false_consensus_detected"
	ReasonManualTermination   TerminationReason = "manual_termination"
)

// AgentResponse is one agent's contribution to one round. It is created once
// and never mutated after scoring.
type AgentResponse struct {
	AgentID      string    `json:"agent_id"`
	Model        string    `json:"model"`
	RoleID       string    `json:"role_id"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	WordCount    int       `json:"word_count"`
	QualityScore float64   `json:"quality_score,omitempty"`
}

// QualityMetrics holds the six independent quality scores for one round,
// each clamped to [0,1] before storage.
type QualityMetrics struct {
	ResponseConsistency float64 `json:"response_consistency"`
	TopicCoherence      float64 `json:"topic_coherence"`
	DecisionClarity     float64 `json:"decision_clarity"`
	SemanticConvergence float64 `json:"semantic_convergence"`
	ActionableContent   float64 `json:"actionable_content_score"`
	EvidenceBased       float64 `json:"evidence_based_score"`
}

// Fixed aggregation weights for OverallScore. They sum to 1.0 exactly.
const (
	weightConsistency = 0.20
	weightCoherence   = 0.20
	weightClarity     = 0.25
	weightConvergence = 0.15
	weightActionable  = 0.15
	weightEvidence    = 0.05
)

// OverallScore aggregates the six metrics with the fixed weight table.
func (m QualityMetrics) OverallScore() float64 {
	return m.ResponseConsistency*weightConsistency +
		m.TopicCoherence*weightCoherence +
		m.DecisionClarity*weightClarity +
		m.SemanticConvergence*weightConvergence +
		m.ActionableContent*weightActionable +
		m.EvidenceBased*weightEvidence
}

// PassesThreshold reports whether the aggregate score meets t.
func (m QualityMetrics) PassesThreshold(t float64) bool {
	return m.OverallScore() >= t
}

// DiscussionRound records one scored batch of responses. Rounds are
// append-only once created; round numbers are contiguous starting at 1.
type DiscussionRound struct {
	RoundNumber    int             `json:"round_number"`
	Responses      []AgentResponse `json:"responses"`
	Metrics        QualityMetrics  `json:"metrics"`
	ConsensusScore float64         `json:"consensus_score"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Result is the final outcome of a discussion, assembled once at loop exit.
type Result struct {
	SessionID         string            `json:"session_id"`
	Topic             string            `json:"topic"`
	Config            Config            `json:"config"`
	Rounds            []DiscussionRound `json:"rounds"`
	TerminationReason TerminationReason `json:"termination_reason"`
	FinalConsensus    float64           `json:"final_consensus_score"`
	FinalMetrics      QualityMetrics    `json:"final_metrics"`
	ExecutionTime     time.Duration     `json:"execution_time"`
	Success           bool              `json:"success"`
	Recommendations   []string          `json:"recommendations,omitempty"`
}

// RoundEvent is emitted to observers after each round is evaluated.
type RoundEvent struct {
	SessionID      string         `json:"session_id"`
	RoundNumber    int            `json:"round_number"`
	Responses      int            `json:"responses"`
	Metrics        QualityMetrics `json:"metrics"`
	OverallScore   float64        `json:"overall_score"`
	ConsensusScore float64        `json:"consensus_score"`
	Timestamp      time.Time      `json:"timestamp"`
}
