package models

// SamplingParams configures text generation. Values outside the safe bounds
// are clamped by the generation service before reaching the model.
type SamplingParams struct {
	MaxLength         int
	Temperature       float64
	TopP              float64
	TopK              int
	RepetitionPenalty float64
}

// GeneratedText is the result of a generation request
type GeneratedText struct {
	Text         string
	DomainID     string
	Tier         Tier
	ModelVersion string
	TokenCount   int
	LatencyMs    int64
}
