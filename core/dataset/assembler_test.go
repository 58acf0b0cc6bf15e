package dataset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-orchestrator/core/models"
	"llm-orchestrator/core/repository"
)

func makeExamples(domainID string, tier models.Tier, count int, validated bool) []*models.TrainingExample {
	out := make([]*models.TrainingExample, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, &models.TrainingExample{
			ID:           fmt.Sprintf("%s-%s-%03d", domainID, tier, i),
			DomainID:     domainID,
			Tier:         tier,
			QualityScore: 7.0,
			Metadata:     models.ExampleMetadata{Validated: validated, TokenCount: 100},
		})
	}
	return out
}

func TestAssembleSplitsAndVersions(t *testing.T) {
	store := repository.NewMemoryStore()
	a := NewAssembler(DefaultConfig(), store)

	// 50 basic, 50 professional, 20 enterprise: matches the 40/40/20 target
	// within tolerance.
	examples := makeExamples("nutrition", models.TierBasic, 50, true)
	examples = append(examples, makeExamples("nutrition", models.TierProfessional, 50, true)...)
	examples = append(examples, makeExamples("nutrition", models.TierEnterprise, 20, true)...)

	ds, warnings, err := a.Assemble("nutrition", examples)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "v1", ds.Version)
	assert.Equal(t, 120, ds.TotalExamples)
	assert.Equal(t, 50, ds.TierCounts[models.TierBasic])
	assert.Equal(t, 50, ds.TierCounts[models.TierProfessional])
	assert.Equal(t, 20, ds.TierCounts[models.TierEnterprise])

	// Every 5th example per tier goes to validation: 10 + 10 + 4
	assert.Len(t, ds.ValidationExamples, 24)
	assert.Len(t, ds.TrainExamples, 96)
	assert.InDelta(t, 7.0, ds.AverageQuality, 1e-9)
	assert.InDelta(t, 100.0, ds.AverageTokens, 1e-9)

	stored, err := store.GetDataset("nutrition", "v1")
	require.NoError(t, err)
	assert.Equal(t, ds, stored)
}

func TestAssembleSkipsUnvalidatedAndForeignExamples(t *testing.T) {
	store := repository.NewMemoryStore()
	a := NewAssembler(Config{MinExamples: 3, RequiredTiers: []models.Tier{models.TierBasic}}, store)

	examples := makeExamples("nutrition", models.TierBasic, 4, true)
	examples = append(examples, makeExamples("nutrition", models.TierBasic, 3, false)...)
	examples = append(examples, makeExamples("finance", models.TierBasic, 3, true)...)

	ds, _, err := a.Assemble("nutrition", examples)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.TotalExamples)
	for _, example := range ds.TrainExamples {
		assert.Equal(t, "nutrition", example.DomainID)
		assert.True(t, example.Metadata.Validated)
	}
}

func TestAssembleRejectsMissingTiers(t *testing.T) {
	store := repository.NewMemoryStore()
	a := NewAssembler(DefaultConfig(), store)

	examples := makeExamples("nutrition", models.TierBasic, 200, true)

	_, _, err := a.Assemble("nutrition", examples)
	var covErr *InsufficientCoverageError
	require.ErrorAs(t, err, &covErr)
	assert.Equal(t, "nutrition", covErr.DomainID)
	assert.ElementsMatch(t, []models.Tier{models.TierProfessional, models.TierEnterprise}, covErr.MissingTiers)

	// Failed assembly must not burn a version
	versions, err := store.ListDatasetVersions("nutrition")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestAssembleRejectsTooFewExamples(t *testing.T) {
	store := repository.NewMemoryStore()
	a := NewAssembler(DefaultConfig(), store)

	examples := makeExamples("nutrition", models.TierBasic, 20, true)
	examples = append(examples, makeExamples("nutrition", models.TierProfessional, 20, true)...)
	examples = append(examples, makeExamples("nutrition", models.TierEnterprise, 10, true)...)

	_, _, err := a.Assemble("nutrition", examples)
	var covErr *InsufficientCoverageError
	require.ErrorAs(t, err, &covErr)
	assert.Equal(t, 50, covErr.Total)
	assert.Equal(t, 100, covErr.MinRequired)
}

func TestAssembleWarnsOnSkewedRatios(t *testing.T) {
	store := repository.NewMemoryStore()
	a := NewAssembler(DefaultConfig(), store)

	// 80% basic is far beyond the 40% target.
	examples := makeExamples("nutrition", models.TierBasic, 160, true)
	examples = append(examples, makeExamples("nutrition", models.TierProfessional, 20, true)...)
	examples = append(examples, makeExamples("nutrition", models.TierEnterprise, 20, true)...)

	ds, warnings, err := a.Assemble("nutrition", examples)
	require.NoError(t, err)
	require.NotNil(t, ds)
	assert.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "basic")
}

func TestAssembleVersionsAreMonotonicPerDomain(t *testing.T) {
	store := repository.NewMemoryStore()
	a := NewAssembler(Config{MinExamples: 1, RequiredTiers: []models.Tier{models.TierBasic}}, store)

	examples := makeExamples("nutrition", models.TierBasic, 5, true)

	first, _, err := a.Assemble("nutrition", examples)
	require.NoError(t, err)
	second, _, err := a.Assemble("nutrition", examples)
	require.NoError(t, err)
	other, _, err := a.Assemble("finance", makeExamples("finance", models.TierBasic, 5, true))
	require.NoError(t, err)

	assert.Equal(t, "v1", first.Version)
	assert.Equal(t, "v2", second.Version)
	assert.Equal(t, "v1", other.Version)

	versions, err := store.ListDatasetVersions("nutrition")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, versions)
}
