package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"llm-orchestrator/core/models"
)

const (
	minInputLength  = 10
	minOutputLength = 20
)

// RawExample is the ingestion-boundary shape of a training example.
// Unknown shapes are rejected at decode time rather than coerced.
type RawExample struct {
	ID              string   `json:"id"`
	Domain          string   `json:"domain"`
	Input           string   `json:"input"`
	Output          string   `json:"output"`
	Context         string   `json:"context,omitempty"`
	DifficultyLevel int      `json:"difficulty_level"`
	Tier            string   `json:"tier"`
	Tags            []string `json:"tags,omitempty"`
	Source          string   `json:"source,omitempty"`
}

// ValidationError describes the first failing field of a rejected example
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s (got %q)", e.Field, e.Message, e.Value)
}

// Report is the per-example outcome of a batch validation.
// One bad example never aborts the batch.
type Report struct {
	ExampleID string   `json:"example_id"`
	Accepted  bool     `json:"accepted"`
	Reason    string   `json:"reason,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Validator validates raw training examples against the example schema
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateBatch validates each example independently against the target
// domain and returns a per-example report plus the accepted examples.
// Duplicate IDs within the batch are rejected after their first occurrence.
func (v *Validator) ValidateBatch(domainID string, raws []RawExample) ([]Report, []*models.TrainingExample) {
	reports := make([]Report, 0, len(raws))
	accepted := make([]*models.TrainingExample, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		report := Report{ExampleID: raw.ID}

		if raw.ID != "" && seen[raw.ID] {
			report.Reason = (&ValidationError{Field: "id", Value: raw.ID, Message: "duplicate id within batch"}).Error()
			reports = append(reports, report)
			continue
		}

		example, verr := v.Validate(domainID, raw)
		if verr != nil {
			report.Reason = verr.Error()
			reports = append(reports, report)
			continue
		}

		seen[raw.ID] = true
		report.Accepted = true
		report.Warnings = advisoryWarnings(example)
		reports = append(reports, report)
		accepted = append(accepted, example)
	}

	return reports, accepted
}

// Validate validates a single raw example. Checks run in a fixed order and
// stop at the first failing field; validation is all-or-nothing per example.
func (v *Validator) Validate(domainID string, raw RawExample) (*models.TrainingExample, *ValidationError) {
	if raw.ID == "" {
		return nil, &ValidationError{Field: "id", Value: "", Message: "required field missing"}
	}
	if raw.Domain == "" {
		return nil, &ValidationError{Field: "domain", Value: "", Message: "required field missing"}
	}
	if raw.Input == "" {
		return nil, &ValidationError{Field: "input", Value: "", Message: "required field missing"}
	}
	if raw.Output == "" {
		return nil, &ValidationError{Field: "output", Value: "", Message: "required field missing"}
	}
	if raw.DifficultyLevel == 0 {
		return nil, &ValidationError{Field: "difficulty_level", Value: "0", Message: "required field missing"}
	}
	if raw.Tier == "" {
		return nil, &ValidationError{Field: "tier", Value: "", Message: "required field missing"}
	}

	// Minimum lengths count characters, not bytes
	if utf8.RuneCountInString(raw.Input) < minInputLength {
		return nil, &ValidationError{
			Field:   "input",
			Value:   raw.Input,
			Message: fmt.Sprintf("must be at least %d characters", minInputLength),
		}
	}
	if utf8.RuneCountInString(raw.Output) < minOutputLength {
		return nil, &ValidationError{
			Field:   "output",
			Value:   raw.Output,
			Message: fmt.Sprintf("must be at least %d characters", minOutputLength),
		}
	}
	if raw.DifficultyLevel < 1 || raw.DifficultyLevel > 10 {
		return nil, &ValidationError{
			Field:   "difficulty_level",
			Value:   fmt.Sprintf("%d", raw.DifficultyLevel),
			Message: "must be an integer between 1 and 10",
		}
	}

	tier := models.Tier(raw.Tier)
	if !tier.Valid() {
		return nil, &ValidationError{
			Field:   "tier",
			Value:   raw.Tier,
			Message: "must be one of basic, professional, enterprise",
		}
	}

	// Domain match is case-sensitive and exact
	if raw.Domain != domainID {
		return nil, &ValidationError{
			Field:   "domain",
			Value:   raw.Domain,
			Message: fmt.Sprintf("does not match target domain %q", domainID),
		}
	}

	source := models.SourceType(raw.Source)
	if source == "" {
		source = models.SourceManual
	}

	return &models.TrainingExample{
		ID:              raw.ID,
		DomainID:        raw.Domain,
		Input:           raw.Input,
		Output:          raw.Output,
		Context:         raw.Context,
		DifficultyLevel: raw.DifficultyLevel,
		Tier:            tier,
		Tags:            raw.Tags,
		Metadata: models.ExampleMetadata{
			Source:     source,
			CreatedAt:  time.Now().UTC(),
			TokenCount: len(strings.Fields(raw.Output)),
		},
	}, nil
}

// advisoryWarnings returns non-fatal flags for an accepted example.
// The difficulty/tier mapping is advisory in the data, so a mismatch is
// reported but the example still goes through.
func advisoryWarnings(example *models.TrainingExample) []string {
	var warnings []string
	if recommended := models.RecommendedTier(example.DifficultyLevel); recommended != example.Tier {
		warnings = append(warnings, fmt.Sprintf(
			"difficulty_level %d suggests tier %q, got %q",
			example.DifficultyLevel, recommended, example.Tier,
		))
	}
	return warnings
}
