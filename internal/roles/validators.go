package roles

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mootlabs/moot/internal/textutil"
)

// ValidatorFunc scores a response text against one requirement, returning a
// value in [0,1]. Validators are pure functions of the text: same input,
// same score.
type ValidatorFunc func(content string) float64

// Validator identifiers accepted in Requirement.Validator. The table is
// closed: unknown identifiers are rejected at role registration, not
// discovered at scoring time.
const (
	ValidatorEvidenceCitations  = "evidence_citations"
	ValidatorGenericAvoidance   = "generic_avoidance"
	ValidatorActionVerbDensity  = "action_verb_density"
	ValidatorRiskCoverage       = "risk_coverage"
	ValidatorStructuredReason   = "structured_reasoning"
	ValidatorQuantitativeDetail = "quantitative_detail"
)

var validatorTable = map[string]ValidatorFunc{
	ValidatorEvidenceCitations:  scoreEvidenceCitations,
	ValidatorGenericAvoidance:   scoreGenericAvoidance,
	ValidatorActionVerbDensity:  scoreActionVerbDensity,
	ValidatorRiskCoverage:       scoreRiskCoverage,
	ValidatorStructuredReason:   scoreStructuredReasoning,
	ValidatorQuantitativeDetail: scoreQuantitativeDetail,
}

// Fixed vocabularies for the lexical validators. These are policy, tuned by
// hand, not derived.
var (
	evidencePhrases = []string{
		"according to", "research shows", "studies show", "data indicates",
		"for example", "for instance", "e g", "based on", "source",
		"benchmark", "measured", "observed", "et al", "documented",
	}

	genericFillerPhrases = []string{
		"it depends", "there are pros and cons", "various factors",
		"many possibilities", "generally speaking", "hard to say",
		"time will tell", "it varies", "more research is needed",
	}

	actionVerbs = []string{
		"implement", "deploy", "build", "create", "configure", "migrate",
		"refactor", "test", "measure", "add", "remove", "integrate",
		"define", "write", "automate", "monitor", "document", "validate",
		"optimize", "ship",
	}

	riskPhrases = []string{
		"risk", "risks", "mitigation", "mitigate", "threat", "vulnerability",
		"failure mode", "contingency", "fallback", "worst case",
		"trade off", "downside", "likelihood", "impact",
	}

	structurePhrases = []string{
		"first", "second", "third", "finally", "because", "therefore",
		"however", "given that", "it follows", "in conclusion", "premise",
		"step",
	}
)

// ResolveValidator returns the scoring function registered under id.
func ResolveValidator(id string) (ValidatorFunc, error) {
	fn, ok := validatorTable[id]
	if !ok {
		return nil, fmt.Errorf("unknown requirement validator %q", id)
	}
	return fn, nil
}

// ValidatorIDs returns the identifiers of the validator table, sorted.
func ValidatorIDs() []string {
	ids := make([]string, 0, len(validatorTable))
	for id := range validatorTable {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ScoreRequirement applies one requirement's validator to content. A missing
// validator or a validator that panics on malformed input scores 0.0 and is
// logged; it never aborts the batch.
func ScoreRequirement(content string, req Requirement, logger *slog.Logger) (score float64) {
	if logger == nil {
		logger = slog.Default()
	}
	fn, ok := validatorTable[req.Validator]
	if !ok {
		logger.Warn("requirement validator not found, scoring zero",
			"requirement", req.Name,
			"validator", req.Validator)
		return 0.0
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("requirement validator failed, scoring zero",
				"requirement", req.Name,
				"validator", req.Validator,
				"panic", fmt.Sprint(r))
			score = 0.0
		}
	}()

	return textutil.Clamp01(fn(content))
}

// WeightedScore computes the weighted requirement score for a response:
// sum(score_i * weight_i) / sum(weight_i). A role with zero total weight
// scores 0.0.
func WeightedScore(role Role, content string, logger *slog.Logger) float64 {
	var weightedSum, totalWeight float64
	for _, req := range role.Requirements {
		if req.Weight <= 0 {
			continue
		}
		weightedSum += ScoreRequirement(content, req, logger) * req.Weight
		totalWeight += req.Weight
	}
	if totalWeight == 0 {
		return 0.0
	}
	return weightedSum / totalWeight
}

// scoreEvidenceCitations rewards citation markers and evidence phrasing.
// Two or more markers is treated as fully evidenced.
func scoreEvidenceCitations(content string) float64 {
	count := textutil.CountPhrases(content, evidencePhrases)
	return textutil.Clamp01(float64(count) / 2.0)
}

// scoreGenericAvoidance penalizes filler phrases that signal a content-free
// answer. Responses with no concrete detail at all are capped even when they
// avoid the filler vocabulary.
func scoreGenericAvoidance(content string) float64 {
	fillers := textutil.CountPhrases(content, genericFillerPhrases)
	score := 1.0 - 0.25*float64(fillers)

	hasDetail := textutil.ContainsDigit(content) ||
		textutil.CountPhrases(content, actionVerbs) > 0
	if !hasDetail && score > 0.6 {
		score = 0.6
	}
	return textutil.Clamp01(score)
}

// scoreActionVerbDensity rewards implementation-oriented language.
func scoreActionVerbDensity(content string) float64 {
	count := textutil.CountPhrases(content, actionVerbs)
	return textutil.Clamp01(float64(count) / 3.0)
}

// scoreRiskCoverage rewards explicit discussion of risks and mitigations.
func scoreRiskCoverage(content string) float64 {
	count := textutil.CountPhrases(content, riskPhrases)
	return textutil.Clamp01(float64(count) / 3.0)
}

// scoreStructuredReasoning rewards ordering and argumentation markers.
func scoreStructuredReasoning(content string) float64 {
	count := textutil.CountPhrases(content, structurePhrases)
	return textutil.Clamp01(float64(count) / 4.0)
}

// scoreQuantitativeDetail rewards numeric specificity. Any digits earn half
// credit; three or more distinct numeric tokens earn full credit.
func scoreQuantitativeDetail(content string) float64 {
	if !textutil.ContainsDigit(content) {
		return 0.0
	}
	numeric := 0
	for tok := range textutil.Tokenize(content) {
		if textutil.ContainsDigit(tok) {
			numeric++
		}
	}
	if numeric >= 3 {
		return 1.0
	}
	return 0.5
}
