package models

import "time"

// Tier represents the subscription tier a training example targets
type Tier string

const (
	TierBasic        Tier = "basic"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

// AllTiers lists every supported tier, in ascending order
var AllTiers = []Tier{TierBasic, TierProfessional, TierEnterprise}

// Valid reports whether the tier is one of the supported values
func (t Tier) Valid() bool {
	return t == TierBasic || t == TierProfessional || t == TierEnterprise
}

// RecommendedTier returns the tier advised for a difficulty level
// (1-3 basic, 4-7 professional, 8-10 enterprise). Advisory only:
// mismatches are flagged at ingestion, never rejected.
func RecommendedTier(difficultyLevel int) Tier {
	switch {
	case difficultyLevel <= 3:
		return TierBasic
	case difficultyLevel <= 7:
		return TierProfessional
	default:
		return TierEnterprise
	}
}

// SourceType represents where a training example came from
type SourceType string

const (
	SourceManual    SourceType = "manual"
	SourceDataGov   SourceType = "data_gov"
	SourceScraped   SourceType = "scraped"
	SourceGenerated SourceType = "generated"
)

// ExampleMetadata holds bookkeeping attached to a training example
type ExampleMetadata struct {
	Source     SourceType
	CreatedAt  time.Time
	TokenCount int
	Validated  bool
}

// TrainingExample represents one input/output pair used for fine-tuning
type TrainingExample struct {
	ID              string
	DomainID        string
	Input           string
	Output          string
	Context         string // Free-text framing, optional
	DifficultyLevel int    // 1-10
	Tier            Tier
	Tags            []string
	QualityScore    float64 // 0-10, computed by the scorer, never user-supplied
	Metadata        ExampleMetadata
}
