package consensus

// Per-metric floors below which a recommendation is raised. Policy values.
const (
	recConsistencyFloor = 0.5
	recClarityFloor     = 0.5
	recCoherenceFloor   = 0.5
	recActionableFloor  = 0.6
	recEvidenceFloor    = 0.5
)

// Recommendations derives post-hoc textual suggestions from the final
// round's metrics and the termination reason. Recommendations are advisory;
// none of them is fatal.
func Recommendations(reason TerminationReason, m QualityMetrics, cfg Config) []string {
	var recs []string

	switch reason {
	case ReasonFalseConsensus:
		recs = append(recs, "Agents agree but the content is weak - tighten role requirements or raise the quality bar before trusting this consensus")
	case ReasonMaxRoundsExceeded:
		recs = append(recs, "Round budget exhausted without convergence - narrow the topic or increase max_rounds")
	case ReasonManualTermination:
		recs = append(recs, "Discussion stopped early by the protocol - review the final round before acting on it")
	}

	if m.ResponseConsistency < recConsistencyFloor {
		recs = append(recs, "Responses share little vocabulary - consider a convergent protocol or a more focused topic")
	}
	if m.TopicCoherence < recCoherenceFloor {
		recs = append(recs, "Responses are too short to be substantive - raise min_response_length expectations in the prompts")
	}
	if m.DecisionClarity < recClarityFloor {
		recs = append(recs, "Responses lack clear recommendations - ask agents for explicit, ordered next steps")
	}
	if m.ActionableContent < recActionableFloor && cfg.RequireActionableContent {
		recs = append(recs, "Actionable content is below the required level - assign an implementer role or demand concrete steps")
	}
	if m.EvidenceBased < recEvidenceFloor && cfg.RequireEvidenceBased {
		recs = append(recs, "Evidence grounding is below the required level - assign a researcher role or demand citations")
	}

	return recs
}
