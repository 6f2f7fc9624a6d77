package consensus

import "fmt"

// Config controls one discussion. It is validated before the first round
// runs; invalid values reject the discussion outright.
type Config struct {
	Protocol                 ProtocolType `json:"protocol" toml:"protocol" yaml:"protocol"`
	MaxRounds                int          `json:"max_rounds" toml:"max_rounds" yaml:"max_rounds"`
	ConsensusThreshold       float64      `json:"consensus_threshold" toml:"consensus_threshold" yaml:"consensus_threshold"`
	QualityThreshold         float64      `json:"quality_threshold" toml:"quality_threshold" yaml:"quality_threshold"`
	MinResponseLength        int          `json:"min_response_length" toml:"min_response_length" yaml:"min_response_length"`
	RequireActionableContent bool         `json:"require_actionable_content" toml:"require_actionable_content" yaml:"require_actionable_content"`
	RequireEvidenceBased     bool         `json:"require_evidence_based" toml:"require_evidence_based" yaml:"require_evidence_based"`
}

// DefaultConfig returns the stock discussion configuration.
func DefaultConfig() Config {
	return Config{
		Protocol:           ProtocolConvergent,
		MaxRounds:          3,
		ConsensusThreshold: 0.7,
		QualityThreshold:   0.6,
		MinResponseLength:  50,
	}
}

// Validate checks every field and names the offending one in the error.
func (c Config) Validate() error {
	if _, err := NewStrategy(c.Protocol); err != nil {
		return fmt.Errorf("protocol: %w", err)
	}
	if c.MaxRounds < 1 || c.MaxRounds > 10 {
		return fmt.Errorf("max_rounds: must be between 1 and 10, got %d", c.MaxRounds)
	}
	if c.ConsensusThreshold < 0 || c.ConsensusThreshold > 1 {
		return fmt.Errorf("consensus_threshold: must be in [0,1], got %v", c.ConsensusThreshold)
	}
	if c.QualityThreshold < 0 || c.QualityThreshold > 1 {
		return fmt.Errorf("quality_threshold: must be in [0,1], got %v", c.QualityThreshold)
	}
	if c.MinResponseLength < 0 {
		return fmt.Errorf("min_response_length: must not be negative, got %d", c.MinResponseLength)
	}
	return nil
}
