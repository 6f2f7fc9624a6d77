package roles

import "log/slog"

// FallbackRoleID is assigned to agents left over after balanced assignment
// exhausts the candidate roles.
const FallbackRoleID = "generalist"

// DefaultCapabilityOrder is the capability sequence used by balanced
// assignment when the caller does not specify one.
func DefaultCapabilityOrder() []Capability {
	return []Capability{
		CapabilityAnalysis,
		CapabilitySolutionDesign,
		CapabilityRiskAssessment,
		CapabilityEvidenceResearch,
		CapabilityImplementation,
		CapabilityQualityValidation,
	}
}

// NewDefaultRegistry builds a registry preloaded with the built-in roles,
// including the generalist fallback.
func NewDefaultRegistry(logger *slog.Logger) (*Registry, error) {
	reg := NewRegistry(logger)
	for _, role := range BuiltinRoles() {
		if err := reg.Register(role); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// BuiltinRoles returns the stock role definitions shipped with moot.
func BuiltinRoles() []Role {
	return []Role{
		{
			ID:          "analyst",
			Name:        "Analyst",
			Description: "Breaks the topic into its essential parts and surfaces the key questions.",
			Primary:     CapabilityAnalysis,
			Secondary:   []Capability{CapabilityEvidenceResearch},
			Requirements: []Requirement{
				{Name: "structured reasoning", Description: "argues in ordered, explicit steps", Validator: ValidatorStructuredReason, Weight: 2.0},
				{Name: "avoids filler", Description: "no generic non-answers", Validator: ValidatorGenericAvoidance, Weight: 1.5},
				{Name: "quantifies claims", Description: "puts numbers on claims where possible", Validator: ValidatorQuantitativeDetail, Weight: 1.0},
			},
			PromptTemplate: "You are the analyst. Decompose the topic into its core components and identify the decisive questions.\n\nTopic: {topic}\n\nPrevious responses:\n{previous_responses}",
		},
		{
			ID:          "architect",
			Name:        "Solution Architect",
			Description: "Proposes a concrete, end-to-end solution design.",
			Primary:     CapabilitySolutionDesign,
			Secondary:   []Capability{CapabilityImplementation},
			Requirements: []Requirement{
				{Name: "actionable design", Description: "design expressed as concrete actions", Validator: ValidatorActionVerbDensity, Weight: 2.0},
				{Name: "structured reasoning", Description: "design follows from stated premises", Validator: ValidatorStructuredReason, Weight: 1.0},
				{Name: "avoids filler", Description: "no hedging without substance", Validator: ValidatorGenericAvoidance, Weight: 1.0},
			},
			PromptTemplate: "You are the solution architect. Propose a concrete design with explicit steps and trade-offs.\n\nTopic: {topic}\n\nPrevious responses:\n{previous_responses}",
		},
		{
			ID:          "risk-assessor",
			Name:        "Risk Assessor",
			Description: "Identifies failure modes and mitigations for the proposals on the table.",
			Primary:     CapabilityRiskAssessment,
			Secondary:   []Capability{CapabilityAnalysis},
			Requirements: []Requirement{
				{Name: "risk coverage", Description: "names risks and pairs them with mitigations", Validator: ValidatorRiskCoverage, Weight: 2.5},
				{Name: "structured reasoning", Description: "risk analysis is systematic", Validator: ValidatorStructuredReason, Weight: 1.0},
			},
			PromptTemplate: "You are the risk assessor. List the failure modes of the current proposals and a mitigation for each.\n\nTopic: {topic}\n\nPrevious responses:\n{previous_responses}",
		},
		{
			ID:          "researcher",
			Name:        "Evidence Researcher",
			Description: "Grounds the discussion in evidence, prior art, and data.",
			Primary:     CapabilityEvidenceResearch,
			Secondary:   []Capability{CapabilityAnalysis},
			Requirements: []Requirement{
				{Name: "cites evidence", Description: "claims carry citations or data", Validator: ValidatorEvidenceCitations, Weight: 2.5},
				{Name: "quantifies claims", Description: "prefers measured values over adjectives", Validator: ValidatorQuantitativeDetail, Weight: 1.5},
			},
			PromptTemplate: "You are the researcher. Bring evidence, prior art, and data that support or refute the proposals.\n\nTopic: {topic}\n\nPrevious responses:\n{previous_responses}",
		},
		{
			ID:          "implementer",
			Name:        "Implementer",
			Description: "Turns the leading proposal into an executable plan.",
			Primary:     CapabilityImplementation,
			Secondary:   []Capability{CapabilitySolutionDesign},
			Requirements: []Requirement{
				{Name: "actionable plan", Description: "output is a sequence of executable steps", Validator: ValidatorActionVerbDensity, Weight: 2.5},
				{Name: "quantifies effort", Description: "steps carry sizes or estimates", Validator: ValidatorQuantitativeDetail, Weight: 1.0},
			},
			PromptTemplate: "You are the implementer. Turn the strongest proposal into a numbered, executable plan.\n\nTopic: {topic}\n\nPrevious responses:\n{previous_responses}",
		},
		{
			ID:          "reviewer",
			Name:        "Quality Reviewer",
			Description: "Stress-tests the other responses for rigor and completeness.",
			Primary:     CapabilityQualityValidation,
			Secondary:   []Capability{CapabilityRiskAssessment},
			Requirements: []Requirement{
				{Name: "structured critique", Description: "critique is organized and explicit", Validator: ValidatorStructuredReason, Weight: 2.0},
				{Name: "avoids filler", Description: "critique is substantive", Validator: ValidatorGenericAvoidance, Weight: 1.5},
				{Name: "risk awareness", Description: "flags unhandled failure modes", Validator: ValidatorRiskCoverage, Weight: 1.0},
			},
			PromptTemplate: "You are the quality reviewer. Critique the previous responses: what is missing, weak, or unsupported?\n\nTopic: {topic}\n\nPrevious responses:\n{previous_responses}",
		},
		{
			ID:          FallbackRoleID,
			Name:        "Generalist",
			Description: "Contributes a balanced response when no specialist role is free.",
			Primary:     CapabilityAnalysis,
			Secondary:   []Capability{CapabilitySolutionDesign, CapabilityImplementation},
			Requirements: []Requirement{
				{Name: "avoids filler", Description: "substantive even without a specialty", Validator: ValidatorGenericAvoidance, Weight: 1.5},
				{Name: "actionable content", Description: "offers something executable", Validator: ValidatorActionVerbDensity, Weight: 1.0},
			},
			PromptTemplate: "You are a generalist contributor. Give your strongest overall take on the topic.\n\nTopic: {topic}\n\nPrevious responses:\n{previous_responses}",
		},
	}
}
