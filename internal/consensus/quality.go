package consensus

import (
	"log/slog"

	"github.com/mootlabs/moot/internal/textutil"
)

// Scoring constants. The divisors and the boost factor are policy values
// tuned against natural-language output, not derived quantities.
const (
	consistencyBoost    = 3.0 // raw vocabulary overlap runs low; boost before capping
	clarityThreshold    = 5.0 // clarity phrases per response for full credit
	actionableThreshold = 3.0 // action verbs per response for full credit
	evidenceThreshold   = 2.0 // evidence phrases per response for full credit
)

// Vocabulary for the batch-level quality metrics.
var (
	clarityIndicators = []string{
		"step", "first", "second", "third", "finally", "next", "then",
		"recommend", "should", "must", "conclusion", "in summary",
		"therefore", "specifically",
	}

	implementationVerbs = []string{
		"implement", "deploy", "build", "create", "configure", "migrate",
		"refactor", "test", "measure", "add", "integrate", "define",
		"write", "automate", "monitor", "document", "validate", "optimize",
	}

	evidenceMarkers = []string{
		"according to", "research shows", "studies show", "data indicates",
		"for example", "based on", "source", "benchmark", "measured",
		"evidence", "documented",
	}
)

// QualityGate scores one round's batch of responses on six independent
// dimensions. It is applied uniformly regardless of protocol.
type QualityGate struct {
	minResponseLength int
	logger            *slog.Logger
}

// NewQualityGate creates a gate using minResponseLength as the lowest
// coherence bucket boundary.
func NewQualityGate(minResponseLength int, logger *slog.Logger) *QualityGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &QualityGate{minResponseLength: minResponseLength, logger: logger}
}

// Evaluate computes the round's QualityMetrics. With zero or one response,
// consistency and convergence are 1.0 by definition: there is nothing to
// disagree with.
func (g *QualityGate) Evaluate(responses []AgentResponse) QualityMetrics {
	m := QualityMetrics{
		ResponseConsistency: textutil.Clamp01(g.consistency(responses)),
		TopicCoherence:      textutil.Clamp01(g.coherence(responses)),
		DecisionClarity:     textutil.Clamp01(g.clarity(responses)),
		SemanticConvergence: textutil.Clamp01(g.convergence(responses)),
		ActionableContent:   textutil.Clamp01(g.actionable(responses)),
		EvidenceBased:       textutil.Clamp01(g.evidence(responses)),
	}

	g.logger.Debug("quality gate evaluated",
		"responses", len(responses),
		"consistency", m.ResponseConsistency,
		"coherence", m.TopicCoherence,
		"clarity", m.DecisionClarity,
		"convergence", m.SemanticConvergence,
		"actionable", m.ActionableContent,
		"evidence", m.EvidenceBased,
		"overall", m.OverallScore())
	return m
}

// consistency is shared vocabulary over total vocabulary across all
// responses, boosted and capped.
func (g *QualityGate) consistency(responses []AgentResponse) float64 {
	if len(responses) < 2 {
		return 1.0
	}

	common := textutil.Tokenize(responses[0].Content)
	union := make(map[string]struct{}, len(common))
	for tok := range common {
		union[tok] = struct{}{}
	}

	for _, resp := range responses[1:] {
		tokens := textutil.Tokenize(resp.Content)
		for tok := range tokens {
			union[tok] = struct{}{}
		}
		for tok := range common {
			if _, ok := tokens[tok]; !ok {
				delete(common, tok)
			}
		}
	}

	if len(union) == 0 {
		return 1.0
	}
	raw := float64(len(common)) / float64(len(union))
	return raw * consistencyBoost
}

// coherence buckets the average response length. The breakpoints are policy.
func (g *QualityGate) coherence(responses []AgentResponse) float64 {
	avg := averageWordCount(responses)
	switch {
	case avg < float64(g.minResponseLength):
		return 0.3
	case avg < 100:
		return 0.5
	case avg < 200:
		return 0.7
	default:
		return 0.9
	}
}

// clarity averages instructional/ordering/recommendation markers per
// response against the clarity threshold.
func (g *QualityGate) clarity(responses []AgentResponse) float64 {
	return averagePhraseScore(responses, clarityIndicators, clarityThreshold)
}

// convergence is one minus the normalized variance of response lengths.
// Equal-length responses converge fully.
func (g *QualityGate) convergence(responses []AgentResponse) float64 {
	if len(responses) < 2 {
		return 1.0
	}

	var sum float64
	counts := make([]float64, len(responses))
	for i, resp := range responses {
		counts[i] = float64(wordCountOf(resp))
		sum += counts[i]
	}
	mean := sum / float64(len(counts))
	if mean == 0 {
		return 1.0
	}

	var variance float64
	for _, c := range counts {
		d := c - mean
		variance += d * d
	}
	variance /= float64(len(counts))

	normalized := variance / (mean * mean)
	if normalized > 1 {
		normalized = 1
	}
	return 1 - normalized
}

// actionable averages implementation-verb usage per response.
func (g *QualityGate) actionable(responses []AgentResponse) float64 {
	return averagePhraseScore(responses, implementationVerbs, actionableThreshold)
}

// evidence averages evidence-marker usage per response.
func (g *QualityGate) evidence(responses []AgentResponse) float64 {
	return averagePhraseScore(responses, evidenceMarkers, evidenceThreshold)
}

func averagePhraseScore(responses []AgentResponse, phrases []string, threshold float64) float64 {
	if len(responses) == 0 {
		return 0.0
	}
	var total float64
	for _, resp := range responses {
		total += float64(textutil.CountPhrases(resp.Content, phrases))
	}
	avg := total / float64(len(responses))
	return textutil.Clamp01(avg / threshold)
}

func averageWordCount(responses []AgentResponse) float64 {
	if len(responses) == 0 {
		return 0.0
	}
	total := 0
	for _, resp := range responses {
		total += wordCountOf(resp)
	}
	return float64(total) / float64(len(responses))
}

// wordCountOf trusts a precomputed word count but recounts when the field
// was never filled in.
func wordCountOf(resp AgentResponse) int {
	if resp.WordCount > 0 {
		return resp.WordCount
	}
	return textutil.WordCount(resp.Content)
}
