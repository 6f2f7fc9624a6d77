package consensus

import "fmt"

// tooSimilarThreshold is the consistency level above which the divergent
// protocol considers the batch degenerately uniform and keeps pushing for
// fresh perspectives.
const tooSimilarThreshold = 0.8

// Strategy is the protocol contract: a protocol-specific consensus score
// over a round's batch, and the decision whether another round is warranted.
// The engine computes QualityMetrics once per round and hands them to both
// methods, so strategies never re-score the batch.
type Strategy interface {
	Type() ProtocolType
	Consensus(responses []AgentResponse, metrics QualityMetrics) float64
	ShouldContinue(roundNum int, metrics QualityMetrics, consensusScore float64, cfg Config) bool
}

// strategyTable maps protocol tags to constructors. Adding a protocol means
// adding a table entry.
var strategyTable = map[ProtocolType]func() Strategy{
	ProtocolConvergent: func() Strategy { return convergentStrategy{} },
	ProtocolDivergent:  func() Strategy { return divergentStrategy{} },
}

// NewStrategy resolves a protocol tag against the strategy table. An
// unrecognized tag is a fatal configuration error.
func NewStrategy(t ProtocolType) (Strategy, error) {
	ctor, ok := strategyTable[t]
	if !ok {
		return nil, fmt.Errorf("unknown protocol type %q", t)
	}
	return ctor(), nil
}

// ProtocolTypes returns the known protocol tags.
func ProtocolTypes() []ProtocolType {
	return []ProtocolType{ProtocolConvergent, ProtocolDivergent}
}

// convergentStrategy drives the agents toward agreement.
type convergentStrategy struct{}

func (convergentStrategy) Type() ProtocolType { return ProtocolConvergent }

func (convergentStrategy) Consensus(_ []AgentResponse, m QualityMetrics) float64 {
	return (m.ResponseConsistency + m.DecisionClarity) / 2
}

// ShouldContinue keeps going while rounds remain and either quality or
// consensus is still below its threshold.
func (convergentStrategy) ShouldContinue(roundNum int, m QualityMetrics, consensusScore float64, cfg Config) bool {
	if roundNum >= cfg.MaxRounds {
		return false
	}
	return !m.PassesThreshold(cfg.QualityThreshold) || consensusScore < cfg.ConsensusThreshold
}

// divergentStrategy rewards diverse but coherent output.
type divergentStrategy struct{}

func (divergentStrategy) Type() ProtocolType { return ProtocolDivergent }

func (divergentStrategy) Consensus(_ []AgentResponse, m QualityMetrics) float64 {
	return ((1 - m.ResponseConsistency) + m.TopicCoherence) / 2
}

// ShouldContinue keeps going while rounds remain and the batch is either too
// uniform to be useful or below the quality bar.
func (divergentStrategy) ShouldContinue(roundNum int, m QualityMetrics, _ float64, cfg Config) bool {
	if roundNum >= cfg.MaxRounds {
		return false
	}
	return m.ResponseConsistency > tooSimilarThreshold || !m.PassesThreshold(cfg.QualityThreshold)
}
