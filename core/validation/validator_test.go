package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-orchestrator/core/models"
)

func validRaw(id string) RawExample {
	return RawExample{
		ID:              id,
		Domain:          "nutrition",
		Input:           "What are the benefits of vitamin D?",
		Output:          "Vitamin D supports calcium absorption and bone health. It also plays a role in immune function.",
		DifficultyLevel: 3,
		Tier:            "basic",
		Tags:            []string{"vitamins", "health"},
		Source:          "manual",
	}
}

func TestValidateAcceptsWellFormedExample(t *testing.T) {
	v := NewValidator()

	example, verr := v.Validate("nutrition", validRaw("ex-1"))
	require.Nil(t, verr)
	require.NotNil(t, example)

	assert.Equal(t, "ex-1", example.ID)
	assert.Equal(t, "nutrition", example.DomainID)
	assert.Equal(t, models.TierBasic, example.Tier)
	assert.Equal(t, models.SourceManual, example.Metadata.Source)
	assert.Equal(t, len(strings.Fields(example.Output)), example.Metadata.TokenCount)
	assert.False(t, example.Metadata.Validated)
}

func TestValidateRequiredFields(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name  string
		merge func(*RawExample)
		field string
	}{
		{"missing id", func(r *RawExample) { r.ID = "" }, "id"},
		{"missing domain", func(r *RawExample) { r.Domain = "" }, "domain"},
		{"missing input", func(r *RawExample) { r.Input = "" }, "input"},
		{"missing output", func(r *RawExample) { r.Output = "" }, "output"},
		{"missing difficulty", func(r *RawExample) { r.DifficultyLevel = 0 }, "difficulty_level"},
		{"missing tier", func(r *RawExample) { r.Tier = "" }, "tier"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw("ex-1")
			tc.merge(&raw)

			example, verr := v.Validate("nutrition", raw)
			assert.Nil(t, example)
			require.NotNil(t, verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Contains(t, verr.Message, "required")
		})
	}
}

func TestValidateBoundsAndEnums(t *testing.T) {
	v := NewValidator()

	t.Run("input too short", func(t *testing.T) {
		raw := validRaw("ex-1")
		raw.Input = "short"
		_, verr := v.Validate("nutrition", raw)
		require.NotNil(t, verr)
		assert.Equal(t, "input", verr.Field)
	})

	t.Run("output too short", func(t *testing.T) {
		raw := validRaw("ex-1")
		raw.Output = "too short answer"
		_, verr := v.Validate("nutrition", raw)
		require.NotNil(t, verr)
		assert.Equal(t, "output", verr.Field)
	})

	t.Run("multibyte input counted in characters", func(t *testing.T) {
		raw := validRaw("ex-1")
		raw.Input = "témoignag" // 9 characters, 10 bytes
		_, verr := v.Validate("nutrition", raw)
		require.NotNil(t, verr)
		assert.Equal(t, "input", verr.Field)

		raw.Input = "témoignage" // exactly 10 characters
		_, verr = v.Validate("nutrition", raw)
		assert.Nil(t, verr)
	})

	t.Run("multibyte output counted in characters", func(t *testing.T) {
		raw := validRaw("ex-1")
		raw.Output = "àbcdefghijklmnopqrs" // 19 characters, 20 bytes
		_, verr := v.Validate("nutrition", raw)
		require.NotNil(t, verr)
		assert.Equal(t, "output", verr.Field)

		raw.Output = "àbcdefghijklmnopqrst" // exactly 20 characters
		_, verr = v.Validate("nutrition", raw)
		assert.Nil(t, verr)
	})

	t.Run("difficulty out of range", func(t *testing.T) {
		raw := validRaw("ex-1")
		raw.DifficultyLevel = 11
		_, verr := v.Validate("nutrition", raw)
		require.NotNil(t, verr)
		assert.Equal(t, "difficulty_level", verr.Field)
	})

	t.Run("unknown tier", func(t *testing.T) {
		raw := validRaw("ex-1")
		raw.Tier = "premium"
		_, verr := v.Validate("nutrition", raw)
		require.NotNil(t, verr)
		assert.Equal(t, "tier", verr.Field)
	})

	t.Run("domain is case sensitive", func(t *testing.T) {
		raw := validRaw("ex-1")
		raw.Domain = "Nutrition"
		_, verr := v.Validate("nutrition", raw)
		require.NotNil(t, verr)
		assert.Equal(t, "domain", verr.Field)
	})
}

func TestValidateDefaultsSourceToManual(t *testing.T) {
	v := NewValidator()

	raw := validRaw("ex-1")
	raw.Source = ""
	example, verr := v.Validate("nutrition", raw)
	require.Nil(t, verr)
	assert.Equal(t, models.SourceManual, example.Metadata.Source)
}

func TestValidateBatchIsIndependentPerExample(t *testing.T) {
	v := NewValidator()

	bad := validRaw("ex-bad")
	bad.Input = "short"
	raws := []RawExample{validRaw("ex-1"), bad, validRaw("ex-2")}

	reports, accepted := v.ValidateBatch("nutrition", raws)
	require.Len(t, reports, 3)
	require.Len(t, accepted, 2)

	assert.True(t, reports[0].Accepted)
	assert.False(t, reports[1].Accepted)
	assert.NotEmpty(t, reports[1].Reason)
	assert.True(t, reports[2].Accepted)
	assert.Equal(t, "ex-1", accepted[0].ID)
	assert.Equal(t, "ex-2", accepted[1].ID)
}

func TestValidateBatchRejectsDuplicateIDs(t *testing.T) {
	v := NewValidator()

	raws := []RawExample{validRaw("ex-1"), validRaw("ex-1")}
	reports, accepted := v.ValidateBatch("nutrition", raws)

	require.Len(t, reports, 2)
	assert.True(t, reports[0].Accepted)
	assert.False(t, reports[1].Accepted)
	assert.Contains(t, reports[1].Reason, "duplicate")
	assert.Len(t, accepted, 1)
}

func TestTierMismatchIsWarningOnly(t *testing.T) {
	v := NewValidator()

	raw := validRaw("ex-1")
	raw.DifficultyLevel = 9 // suggests enterprise
	raw.Tier = "basic"

	reports, accepted := v.ValidateBatch("nutrition", []RawExample{raw})
	require.Len(t, accepted, 1)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Accepted)
	require.Len(t, reports[0].Warnings, 1)
	assert.Contains(t, reports[0].Warnings[0], "enterprise")
}
