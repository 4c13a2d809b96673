package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
)

func TestNormalize_CanonicalForm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases and collapses space", "Leather   WALLET", "leather wallet"},
		{"material rewrite", "Stainless Steel knife", "ss knife"},
		{"british spelling", "aluminium window frame", "aluminum window frame"},
		{"measurement rewrite", "bag of 5 kilograms", "bag of 5 kg"},
		{"percent rewrite", "80 percent cotton shirt", "80% cotton shirt"},
		{"punctuation stripped", "wallet, (leather)!", "wallet leather"},
		{"keeps hyphens and slashes", "t-shirt 50/50 blend", "t-shirt 50/50 blend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Stainless Steel water bottle, 2 liters",
		"aluminium window frame 80 percent recycled",
		"Pure-bred breeding horses",
		"leather wallet",
	}

	for _, input := range inputs {
		once, err := Normalize(input)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "Normalize must be idempotent for %q", input)
	}
}

func TestNormalize_RejectsEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n", "!!! ???", "12345"} {
		_, err := Normalize(input)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "input %q", input)
	}
}

func TestEnrichQuery_AppendsVocabulary(t *testing.T) {
	enriched := enrichQuery("leather wallet")
	assert.Contains(t, enriched, "leather wallet")
	assert.Contains(t, enriched, "billfold")
	assert.Contains(t, enriched, "cowhide")
}

func TestEnrichQuery_Deterministic(t *testing.T) {
	// Multiple matched keywords must always append in the same order.
	first := enrichQuery("leather wallet")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, enrichQuery("leather wallet"))
	}
}

func TestEnrichQuery_NoMatchPassesThrough(t *testing.T) {
	assert.Equal(t, "ceramic vase", enrichQuery("ceramic vase"))
}
