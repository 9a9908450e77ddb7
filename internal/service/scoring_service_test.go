package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayFallsBackWhenAIFails(t *testing.T) {
	gateway := NewScoringGatewayWith(failingScorer{}, NewFallbackScorer(), 100*time.Millisecond)

	score := gateway.ScoreDiagnostic(&DiagnosticScoreRequest{
		LearnerID: 1,
		Bracket:   "B1-B2",
		Answers: []DiagnosticAnswer{
			{QuestionID: 1, Skill: "grammar", Given: "correct", Expected: "correct"},
			{QuestionID: 2, Skill: "grammar", Given: "wrong", Expected: "correct"},
		},
	})

	require.NotNil(t, score, "外部评分失效时调用方必须拿到可用结果")
	assert.True(t, score.Degraded)
	assert.InDelta(t, 0.5, score.SkillScores["grammar"], 1e-9)
	assert.Less(t, score.Quality, 1.0)
}

func TestGatewayUsesAIResultWhenAvailable(t *testing.T) {
	ai := cannedScorer{diagnostic: &DiagnosticScore{
		SkillScores: map[string]float64{"grammar": 0.9},
		Quality:     0.95,
	}}
	gateway := NewScoringGatewayWith(ai, NewFallbackScorer(), 100*time.Millisecond)

	score := gateway.ScoreDiagnostic(&DiagnosticScoreRequest{LearnerID: 1})
	assert.False(t, score.Degraded)
	assert.InDelta(t, 0.9, score.SkillScores["grammar"], 1e-9)
	assert.InDelta(t, 0.95, score.Quality, 1e-9)
}

func TestGatewayFreeTextFallback(t *testing.T) {
	gateway := NewScoringGatewayWith(failingScorer{}, NewFallbackScorer(), 100*time.Millisecond)

	score := gateway.ScoreFreeText(&FreeTextScoreRequest{
		LearnerID: 1,
		Text:      "Yesterday I go to school.",
	})

	require.NotNil(t, score)
	assert.True(t, score.Degraded)
	require.Len(t, score.Findings, 1)
	assert.Equal(t, "verb-tense", score.Findings[0].Category)
}

func TestFallbackScorerIsDeterministic(t *testing.T) {
	scorer := NewFallbackScorer()
	req := &FreeTextScoreRequest{Text: "I am student and yesterday I go to the park."}

	first, err := scorer.ScoreFreeText(context.Background(), req)
	require.NoError(t, err)
	second, err := scorer.ScoreFreeText(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second, "同一输入永远产出同一结果")
	assert.Len(t, first.Findings, 2) // verb-tense + article
}

func TestFallbackScorerCorrectUses(t *testing.T) {
	scorer := NewFallbackScorer()
	score, err := scorer.ScoreFreeText(context.Background(), &FreeTextScoreRequest{
		Text: "Yesterday I went to the market and I am a student.",
	})
	require.NoError(t, err)

	assert.Empty(t, score.Findings)
	categories := make([]string, 0, len(score.CorrectUses))
	for _, u := range score.CorrectUses {
		categories = append(categories, u.Category)
	}
	assert.Contains(t, categories, "verb-tense")
	assert.Contains(t, categories, "article")
}

func TestFallbackDiagnosticEmptyAnswers(t *testing.T) {
	scorer := NewFallbackScorer()
	score, err := scorer.ScoreDiagnostic(context.Background(), &DiagnosticScoreRequest{})
	require.NoError(t, err, "空作答也必须产出结果而不是报错")
	assert.Empty(t, score.SkillScores)
}
