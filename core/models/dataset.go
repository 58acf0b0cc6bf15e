package models

import "time"

// Dataset is the validated, scored collection of training examples for one
// domain. Immutable once assembled; new examples produce a new version.
type Dataset struct {
	DomainID       string
	Version        string // Monotonic per domain: v1, v2, ...
	TotalExamples  int
	TierCounts     map[Tier]int
	AverageQuality float64
	AverageTokens  float64

	// 80/20 split, stratified by tier
	TrainExamples      []*TrainingExample
	ValidationExamples []*TrainingExample

	CreatedAt time.Time
}
