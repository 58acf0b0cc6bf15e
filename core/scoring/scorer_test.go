package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-orchestrator/core/models"
)

// goodExample builds an example that scores highly on every sub-scorer
func goodExample() *models.TrainingExample {
	sentences := []string{
		"Vitamin D plays a central role in calcium absorption and skeletal health.",
		"Deficiency is common in regions with limited winter sunlight exposure.",
		"Dietary sources include fatty fish, fortified dairy, and egg yolks.",
		"Supplementation should generally follow measured serum levels rather than guesswork.",
		"Clinical guidance typically recommends rechecking levels after several months.",
	}
	return &models.TrainingExample{
		ID:       "ex-1",
		DomainID: "nutrition",
		Input:    "Explain the role of vitamin D in the human body.",
		Output:   strings.Join(sentences, " "),
		Tier:     models.TierProfessional,
		Tags:     []string{"vitamins", "health"},
		Metadata: models.ExampleMetadata{Source: models.SourceManual},
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	s := NewScorer(DefaultConfig())
	example := goodExample()

	first := s.Score(example)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(example))
	}
}

func TestScoreDoesNotMutate(t *testing.T) {
	s := NewScorer(DefaultConfig())
	example := goodExample()

	s.Score(example)
	assert.Zero(t, example.QualityScore)
	assert.False(t, example.Metadata.Validated)
}

func TestScoreStaysInRange(t *testing.T) {
	s := NewScorer(DefaultConfig())

	examples := []*models.TrainingExample{
		goodExample(),
		{Output: "", Metadata: models.ExampleMetadata{Source: "unknown"}},
		{Output: "word word word word word", Tags: []string{"a"}},
		{Output: strings.Repeat("token ", 2000), Metadata: models.ExampleMetadata{Source: models.SourceScraped}},
	}
	for _, example := range examples {
		score := s.Score(example)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 10.0)
	}
}

func TestScoreAndMarkAppliesQualityFloor(t *testing.T) {
	s := NewScorer(Config{QualityFloor: 6.0, MaxOutputTokens: 1000})

	high := goodExample()
	score := s.ScoreAndMark(high)
	assert.Equal(t, score, high.QualityScore)
	assert.GreaterOrEqual(t, score, 6.0)
	assert.True(t, high.Metadata.Validated)

	low := &models.TrainingExample{
		Output:   "same same same same",
		Metadata: models.ExampleMetadata{Source: models.SourceScraped},
	}
	score = s.ScoreAndMark(low)
	assert.Less(t, score, 6.0)
	assert.False(t, low.Metadata.Validated)
	assert.Equal(t, score, low.QualityScore)
}

func TestLengthScoreBands(t *testing.T) {
	s := NewScorer(Config{MaxOutputTokens: 100})

	inBand := &models.TrainingExample{Output: strings.Repeat("word ", 60)}
	assert.Equal(t, 1.0, s.lengthScore(inBand))

	short := &models.TrainingExample{Output: strings.Repeat("word ", 25)}
	assert.InDelta(t, 0.5, s.lengthScore(short), 1e-9)

	long := &models.TrainingExample{Output: strings.Repeat("word ", 150)}
	assert.Equal(t, 0.5, s.lengthScore(long))
}

func TestTagScore(t *testing.T) {
	assert.Equal(t, 0.2, tagScore(&models.TrainingExample{}))
	assert.Equal(t, 0.6, tagScore(&models.TrainingExample{Tags: []string{"a"}}))
	assert.Equal(t, 1.0, tagScore(&models.TrainingExample{Tags: []string{"a", "b"}}))
	assert.Equal(t, 1.0, tagScore(&models.TrainingExample{Tags: []string{"a", "b", "c"}}))
}

func TestSourceTrustOrdering(t *testing.T) {
	score := func(src models.SourceType) float64 {
		return sourceTrustScore(&models.TrainingExample{Metadata: models.ExampleMetadata{Source: src}})
	}
	assert.Greater(t, score(models.SourceManual), score(models.SourceDataGov))
	assert.Greater(t, score(models.SourceDataGov), score(models.SourceGenerated))
	assert.Greater(t, score(models.SourceGenerated), score(models.SourceScraped))
	assert.Equal(t, score(models.SourceScraped), score("unknown"))
}

func TestSplitSentences(t *testing.T) {
	sentences := SplitSentences("First sentence here. Second one! Third one?")
	require.Len(t, sentences, 3)
	assert.Equal(t, "First sentence here.", sentences[0])

	// Trailing fragment without a terminal still counts if long enough
	sentences = SplitSentences("A full sentence. and a trailing fragment")
	require.Len(t, sentences, 2)

	assert.Empty(t, SplitSentences(""))
}
