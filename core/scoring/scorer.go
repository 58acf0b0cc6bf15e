package scoring

import (
	"strings"

	"llm-orchestrator/core/models"
)

// Sub-score weights. They sum to 1.0; the combined score is scaled to 0-10.
const (
	weightLength    = 0.35
	weightTags      = 0.20
	weightCoherence = 0.25
	weightSource    = 0.20
)

// DefaultQualityFloor marks examples below it as not validated
const DefaultQualityFloor = 6.0

// Config configures the quality scorer
type Config struct {
	QualityFloor    float64 // Below this the example is marked validated=false
	MaxOutputTokens int     // Outputs longer than this are penalized
}

// DefaultConfig returns the default scorer configuration
func DefaultConfig() Config {
	return Config{
		QualityFloor:    DefaultQualityFloor,
		MaxOutputTokens: 1000,
	}
}

// Scorer computes deterministic quality scores for validated examples.
// Score is pure: identical input always yields the identical float, so
// re-scoring after a rule change stays reproducible and auditable.
type Scorer struct {
	cfg Config
}

// NewScorer creates a new scorer
func NewScorer(cfg Config) *Scorer {
	if cfg.QualityFloor == 0 {
		cfg.QualityFloor = DefaultQualityFloor
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 1000
	}
	return &Scorer{cfg: cfg}
}

// Score returns a quality score in [0, 10] as a weighted sum of the named
// sub-scorers. It never mutates the example.
func (s *Scorer) Score(example *models.TrainingExample) float64 {
	score := weightLength*s.lengthScore(example) +
		weightTags*tagScore(example) +
		weightCoherence*coherenceScore(example) +
		weightSource*sourceTrustScore(example)
	return score * 10
}

// ScoreAndMark computes the score, stores it on the example, and flips the
// validated flag according to the quality floor. Examples below the floor
// are kept, not discarded; discarding is a separate explicit operation.
func (s *Scorer) ScoreAndMark(example *models.TrainingExample) float64 {
	score := s.Score(example)
	example.QualityScore = score
	example.Metadata.Validated = score >= s.cfg.QualityFloor
	return score
}

// lengthScore rewards outputs in a usable token band: full credit between
// 50 tokens and the configured max, partial credit ramping up below 50,
// penalty beyond the max.
func (s *Scorer) lengthScore(example *models.TrainingExample) float64 {
	tokens := len(strings.Fields(example.Output))
	switch {
	case tokens >= 50 && tokens <= s.cfg.MaxOutputTokens:
		return 1.0
	case tokens < 50:
		return float64(tokens) / 50.0
	default:
		return 0.5
	}
}

// tagScore rewards examples carrying at least two tags
func tagScore(example *models.TrainingExample) float64 {
	switch len(example.Tags) {
	case 0:
		return 0.2
	case 1:
		return 0.6
	default:
		return 1.0
	}
}

// coherenceScore is a structural heuristic: multiple sentences whose average
// length sits in a plausible band, a proper terminal, and vocabulary that is
// not dominated by repetition.
func coherenceScore(example *models.TrainingExample) float64 {
	output := strings.TrimSpace(example.Output)
	if output == "" {
		return 0
	}

	score := 0.0

	sentences := SplitSentences(output)
	if len(sentences) >= 2 {
		score += 0.3
	}

	words := strings.Fields(output)
	if len(sentences) > 0 && len(words) > 0 {
		avg := float64(len(words)) / float64(len(sentences))
		if avg >= 8 && avg <= 30 {
			score += 0.3
		}
	}

	if strings.HasSuffix(output, ".") || strings.HasSuffix(output, "!") || strings.HasSuffix(output, "?") {
		score += 0.1
	}

	if len(words) > 0 {
		unique := make(map[string]bool, len(words))
		for _, w := range words {
			unique[strings.ToLower(w)] = true
		}
		if float64(len(unique))/float64(len(words)) > 0.6 {
			score += 0.3
		}
	}

	return score
}

// sourceTrustScore weights manually curated sources above automated ones
func sourceTrustScore(example *models.TrainingExample) float64 {
	switch example.Metadata.Source {
	case models.SourceManual:
		return 1.0
	case models.SourceDataGov:
		return 0.8
	case models.SourceGenerated:
		return 0.6
	case models.SourceScraped:
		return 0.5
	default:
		return 0.5
	}
}

// SplitSentences splits text on terminal punctuation, keeping only
// fragments long enough to count as sentences.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); len(s) > 3 {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); len(s) > 3 {
		sentences = append(sentences, s)
	}

	return sentences
}
