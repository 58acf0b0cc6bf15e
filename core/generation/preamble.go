package generation

import (
	"fmt"

	"llm-orchestrator/core/models"
)

// promptSeparator sits between the tier preamble and the user prompt
const promptSeparator = "\n\n"

// defaultPreambles frame the response per tier when a domain has no
// override configured.
var defaultPreambles = map[models.Tier]string{
	models.TierBasic:        "You are a friendly expert in %s. Explain concepts in simple terms suitable for beginners, avoiding jargon.",
	models.TierProfessional: "You are a seasoned %s practitioner. Give practical, hands-on guidance with concrete techniques and trade-offs.",
	models.TierEnterprise:   "You are a strategic %s advisor to executives. Focus on risk, governance, and organization-level impact.",
}

// Preambles resolves the per-domain, per-tier system instruction placed in
// front of every generation prompt.
type Preambles struct {
	overrides map[string]map[models.Tier]string // domainID -> tier -> preamble
}

// NewPreambles creates a preamble set with optional per-domain overrides
func NewPreambles(overrides map[string]map[models.Tier]string) *Preambles {
	return &Preambles{overrides: overrides}
}

// For returns the preamble for a domain and tier
func (p *Preambles) For(domainID string, tier models.Tier) string {
	if domainOverrides, ok := p.overrides[domainID]; ok {
		if preamble, ok := domainOverrides[tier]; ok {
			return preamble
		}
	}
	return fmt.Sprintf(defaultPreambles[tier], domainID)
}

// Build constructs the final prompt handed to the model
func (p *Preambles) Build(domainID string, tier models.Tier, prompt string) string {
	return p.For(domainID, tier) + promptSeparator + prompt
}
