package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"

	"llm-orchestrator/core/models"
	"llm-orchestrator/core/repository"
)

// Target tier distribution for an assembled dataset
const (
	targetBasicRatio        = 0.40
	targetProfessionalRatio = 0.40
	targetEnterpriseRatio   = 0.20
)

// validationEvery controls the stratified 80/20 split: within each tier
// bucket, every 5th example goes to the validation set.
const validationEvery = 5

// InsufficientCoverageError reports why a dataset could not be assembled.
// Recoverable by adding more examples.
type InsufficientCoverageError struct {
	DomainID     string
	MissingTiers []models.Tier
	Total        int
	MinRequired  int
}

// Error implements the error interface
func (e *InsufficientCoverageError) Error() string {
	if len(e.MissingTiers) > 0 {
		return fmt.Sprintf("insufficient coverage for domain %q: no examples for tiers %v", e.DomainID, e.MissingTiers)
	}
	return fmt.Sprintf("insufficient coverage for domain %q: %d validated examples, minimum is %d", e.DomainID, e.Total, e.MinRequired)
}

// Config configures dataset assembly
type Config struct {
	MinExamples        int           // Minimum validated examples per domain
	TierRatioTolerance float64       // Allowed deviation from the 40/40/20 target before warning
	RequiredTiers      []models.Tier // Tiers that must have at least one example
}

// DefaultConfig returns the default assembly configuration: 100 examples
// minimum, 15% ratio tolerance, all three tiers required.
func DefaultConfig() Config {
	return Config{
		MinExamples:        100,
		TierRatioTolerance: 0.15,
		RequiredTiers:      models.AllTiers,
	}
}

// Assembler builds immutable, versioned datasets from validated examples.
// It owns dataset versioning through the dataset store.
type Assembler struct {
	cfg   Config
	store repository.DatasetStore
}

// NewAssembler creates a new assembler
func NewAssembler(cfg Config, store repository.DatasetStore) *Assembler {
	if cfg.MinExamples == 0 {
		cfg.MinExamples = 100
	}
	if cfg.TierRatioTolerance == 0 {
		cfg.TierRatioTolerance = 0.15
	}
	return &Assembler{cfg: cfg, store: store}
}

// Assemble filters to validated examples for the domain, checks tier
// coverage, performs a tier-stratified 80/20 train/validation split, and
// stores the result under a new monotonic version. Returned warnings are
// advisory (tier ratio deviation); they never block assembly.
func (a *Assembler) Assemble(domainID string, examples []*models.TrainingExample) (*models.Dataset, []string, error) {
	buckets := make(map[models.Tier][]*models.TrainingExample)
	total := 0
	for _, example := range examples {
		if example.DomainID != domainID || !example.Metadata.Validated {
			continue
		}
		buckets[example.Tier] = append(buckets[example.Tier], example)
		total++
	}

	var missing []models.Tier
	for _, tier := range a.cfg.RequiredTiers {
		if len(buckets[tier]) == 0 {
			missing = append(missing, tier)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &InsufficientCoverageError{DomainID: domainID, MissingTiers: missing}
	}
	if total < a.cfg.MinExamples {
		return nil, nil, &InsufficientCoverageError{DomainID: domainID, Total: total, MinRequired: a.cfg.MinExamples}
	}

	warnings := a.ratioWarnings(buckets, total)

	version, err := a.store.NextDatasetVersion(domainID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue dataset version: %w", err)
	}

	ds := &models.Dataset{
		DomainID:      domainID,
		Version:       version,
		TotalExamples: total,
		TierCounts:    make(map[models.Tier]int, len(buckets)),
		CreatedAt:     time.Now().UTC(),
	}

	qualitySum := 0.0
	tokenSum := 0
	for _, tier := range models.AllTiers {
		bucket := buckets[tier]
		if len(bucket) == 0 {
			continue
		}
		ds.TierCounts[tier] = len(bucket)

		// Deterministic split: sort by ID, every 5th to validation, so the
		// validation set keeps proportional tier representation.
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].ID < bucket[j].ID })
		for i, example := range bucket {
			if (i+1)%validationEvery == 0 {
				ds.ValidationExamples = append(ds.ValidationExamples, example)
			} else {
				ds.TrainExamples = append(ds.TrainExamples, example)
			}
			qualitySum += example.QualityScore
			tokenSum += example.Metadata.TokenCount
		}
	}

	ds.AverageQuality = qualitySum / float64(total)
	ds.AverageTokens = float64(tokenSum) / float64(total)

	if err := a.store.SaveDataset(ds); err != nil {
		return nil, nil, fmt.Errorf("failed to save dataset: %w", err)
	}

	return ds, warnings, nil
}

// ratioWarnings compares the actual tier distribution against the 40/40/20
// target and reports deviations beyond the configured tolerance.
func (a *Assembler) ratioWarnings(buckets map[models.Tier][]*models.TrainingExample, total int) []string {
	targets := map[models.Tier]float64{
		models.TierBasic:        targetBasicRatio,
		models.TierProfessional: targetProfessionalRatio,
		models.TierEnterprise:   targetEnterpriseRatio,
	}

	var warnings []string
	for _, tier := range models.AllTiers {
		actual := float64(len(buckets[tier])) / float64(total)
		if math.Abs(actual-targets[tier]) > a.cfg.TierRatioTolerance {
			warnings = append(warnings, fmt.Sprintf(
				"tier %q holds %.0f%% of examples, target is %.0f%%",
				tier, actual*100, targets[tier]*100,
			))
		}
	}
	return warnings
}
