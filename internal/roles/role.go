// Package roles defines the discussion personas assignable to agents: role
// definitions with weighted quality requirements, the registry that holds
// them, and the assignment strategies that map agents onto roles.
package roles

import "strings"

// Capability tags what a role is good at. Roles declare one primary
// capability and zero or more secondary ones.
type Capability string

const (
	CapabilityAnalysis          Capability = "analysis"
	CapabilitySolutionDesign    Capability = "solution_design"
	CapabilityRiskAssessment    Capability = "risk_assessment"
	CapabilityEvidenceResearch  Capability = "evidence_research"
	CapabilityImplementation    Capability = "implementation"
	CapabilityQualityValidation Capability = "quality_validation"
)

// AllCapabilities lists every known capability tag in canonical order.
func AllCapabilities() []Capability {
	return []Capability{
		CapabilityAnalysis,
		CapabilitySolutionDesign,
		CapabilityRiskAssessment,
		CapabilityEvidenceResearch,
		CapabilityImplementation,
		CapabilityQualityValidation,
	}
}

// Valid reports whether c is one of the known capability tags.
func (c Capability) Valid() bool {
	for _, known := range AllCapabilities() {
		if c == known {
			return true
		}
	}
	return false
}

// Requirement is one weighted quality expectation attached to a role.
// Validator names a scoring function in the closed validator table; it is
// resolved and checked when the owning role is registered.
type Requirement struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Validator   string  `json:"validator" yaml:"validator"`
	Weight      float64 `json:"weight" yaml:"weight"`
}

// Role is a semantic persona assignable to an agent. Roles are immutable
// once registered; re-registering the same ID replaces the whole role.
type Role struct {
	ID             string        `json:"id" yaml:"id"`
	Name           string        `json:"name" yaml:"name"`
	Description    string        `json:"description" yaml:"description"`
	Primary        Capability    `json:"primary_capability" yaml:"primary_capability"`
	Secondary      []Capability  `json:"secondary_capabilities,omitempty" yaml:"secondary_capabilities,omitempty"`
	Requirements   []Requirement `json:"requirements" yaml:"requirements"`
	PromptTemplate string        `json:"prompt_template" yaml:"prompt_template"`
	PreferredAgent string        `json:"preferred_agent,omitempty" yaml:"preferred_agent,omitempty"`
}

// HasCapability reports whether the role declares c as primary or secondary.
func (r Role) HasCapability(c Capability) bool {
	if r.Primary == c {
		return true
	}
	for _, s := range r.Secondary {
		if s == c {
			return true
		}
	}
	return false
}

// RenderPrompt substitutes the {topic} and {previous_responses} placeholders
// in the role's prompt template.
func (r Role) RenderPrompt(topic, previousResponses string) string {
	prompt := strings.ReplaceAll(r.PromptTemplate, "{topic}", topic)
	return strings.ReplaceAll(prompt, "{previous_responses}", previousResponses)
}
