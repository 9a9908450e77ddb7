package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBracketForDefaultBands(t *testing.T) {
	cfg := AssessmentConfig{PlacementBands: DefaultPlacementBands()}

	cases := []struct {
		correct int
		bracket string
	}{
		{0, "A1-A2"},
		{1, "A1-A2"},
		{2, "A2-B1"},
		{3, "B1-B2"},
		{4, "B2-C1"},
		{5, "C1-C2"},
		{9, "C1-C2"}, // 越界取最高区间
	}

	for _, tc := range cases {
		assert.Equal(t, tc.bracket, cfg.BracketFor(tc.correct), "correct=%d", tc.correct)
	}
}

func TestBracketForUnsortedBands(t *testing.T) {
	cfg := AssessmentConfig{PlacementBands: []PlacementBand{
		{MaxCorrect: 5, Bracket: "C1-C2"},
		{MaxCorrect: 1, Bracket: "A1-A2"},
		{MaxCorrect: 3, Bracket: "B1-B2"},
	}}

	assert.Equal(t, "A1-A2", cfg.BracketFor(0), "策略表乱序也按答对数取最小命中区间")
	assert.Equal(t, "B1-B2", cfg.BracketFor(2))
	assert.Equal(t, "C1-C2", cfg.BracketFor(4))
}

func TestAIConfigTimeoutDefault(t *testing.T) {
	assert.Equal(t, "3s", AIConfig{}.Timeout().String())
	assert.Equal(t, "5s", AIConfig{TimeoutSeconds: 5}.Timeout().String())
}
