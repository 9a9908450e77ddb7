package service

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"lingua_edu_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func seedSnapshot(t *testing.T, env *testEnv, learnerID uint) *model.LevelSnapshot {
	t.Helper()
	snap := &model.LevelSnapshot{
		LearnerID:    learnerID,
		OverallLevel: model.LevelB1,
		Grammar:      strptr(model.LevelB2),
		Vocabulary:   strptr(model.LevelA2),
		Reading:      strptr(model.LevelB1),
		Speaking:     strptr(model.LevelA2),
		Writing:      strptr(model.LevelB1),
		Confidence:   0.8,
		Source:       model.SnapshotSourceAssessment,
		RecordedAt:   time.Now(),
	}
	require.NoError(t, env.levelRepo.CreateSnapshot(nil, snap))
	return snap
}

func TestRecomputeVersionsAreContiguous(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)
	seedSnapshot(t, env, learner.ID)

	for want := 1; want <= 3; want++ {
		p, err := env.profile.Recompute(learner.ID, model.TriggerManual)
		require.NoError(t, err)
		assert.Equal(t, want, p.Version)
	}

	history, err := env.profile.ProfileHistory(learner.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, p := range history {
		assert.Equal(t, i+1, p.Version, "版本号连续且无空洞")
	}
}

func TestRecomputeVersionsUnderConcurrency(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)
	seedSnapshot(t, env, learner.ID)

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.profile.Recompute(learner.ID, model.TriggerManual)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := env.profile.ProfileHistory(learner.ID)
	require.NoError(t, err)
	require.Len(t, history, n)
	for i, p := range history {
		assert.Equal(t, i+1, p.Version, "并发重算不产生重复或空洞版本")
	}
}

func TestRecomputePayloadStrengthsAndGaps(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)
	seedSnapshot(t, env, learner.ID)

	p, err := env.profile.Recompute(learner.ID, model.TriggerManual)
	require.NoError(t, err)

	var payload model.DnaPayload
	require.NoError(t, json.Unmarshal(p.Payload, &payload))

	assert.Equal(t, model.LevelB1, payload.OverallLevel)
	assert.Contains(t, payload.Strengths, model.SkillGrammar)
	assert.Contains(t, payload.Strengths, model.SkillReading)
	assert.Contains(t, payload.Gaps, model.SkillVocabulary)
	assert.Contains(t, payload.Gaps, model.SkillSpeaking)
	assert.Equal(t, 0, payload.OpenInterference)
}

func TestRecomputeCountsOpenInterference(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)
	seedSnapshot(t, env, learner.ID)

	now := time.Now()
	patterns := []model.InterferencePattern{
		{LearnerID: learner.ID, Category: "article", Detail: "missing-article",
			Status: model.InterferenceExhibited, Occurrences: 2, FirstSeenAt: now, LastSeenAt: now},
		{LearnerID: learner.ID, Category: "plural", Detail: "missing-plural-marker",
			Status: model.InterferenceOvercome, Occurrences: 4, FirstSeenAt: now, LastSeenAt: now, OvercomeAt: &now},
	}
	for i := range patterns {
		require.NoError(t, env.db.Create(&patterns[i]).Error)
	}

	p, err := env.profile.Recompute(learner.ID, model.TriggerManual)
	require.NoError(t, err)

	var payload model.DnaPayload
	require.NoError(t, json.Unmarshal(p.Payload, &payload))
	assert.Equal(t, 1, payload.OpenInterference, "只统计未克服的模式")
}

func TestRecomputeWithoutSnapshotStillVersions(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	p, err := env.profile.Recompute(learner.ID, model.TriggerManual)
	require.NoError(t, err, "尚未测评的学习者也能有画像")
	assert.Equal(t, 1, p.Version)

	var payload model.DnaPayload
	require.NoError(t, json.Unmarshal(p.Payload, &payload))
	assert.Empty(t, payload.OverallLevel)
}

func TestCurrentLevelReflectsLatestSnapshot(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	_, exists, err := env.profile.CurrentLevel(learner.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	first := seedSnapshot(t, env, learner.ID)
	second := &model.LevelSnapshot{
		LearnerID:    learner.ID,
		OverallLevel: model.LevelB2,
		Source:       model.SnapshotSourceRecompute,
		RecordedAt:   first.RecordedAt.Add(time.Hour),
	}
	require.NoError(t, env.levelRepo.CreateSnapshot(nil, second))

	snap, exists, err := env.profile.CurrentLevel(learner.ID)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, model.LevelB2, snap.OverallLevel, "当前等级是最新快照的投影")

	history, err := env.profile.LevelHistory(learner.ID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2, "历史快照全部保留")
}

func TestRecomputeBumpsSkillOnSustainedQuality(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)
	seedSnapshot(t, env, learner.ID)

	item, err := env.review.CreateItem(learner.ID, CreateItemRequest{
		ItemType:   model.ItemVocabularyCard,
		ContentRef: "word:dog",
	})
	require.NoError(t, err)

	// 足量高质量复习流水（绕过复习服务直接写，避免触发阈值重算）
	now := time.Now()
	for i := 0; i < skillBumpMinReviews; i++ {
		require.NoError(t, env.db.Create(&model.ReviewLog{
			LearnerID: learner.ID, ItemID: item.ID,
			ItemType: model.ItemVocabularyCard, Quality: 5,
			ReviewedAt: now.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	_, err = env.profile.Recompute(learner.ID, model.TriggerReviewVolume)
	require.NoError(t, err)

	snap, _, err := env.profile.CurrentLevel(learner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SnapshotSourceRecompute, snap.Source)
	require.NotNil(t, snap.Vocabulary)
	assert.Equal(t, model.LevelB1, *snap.Vocabulary, "持续高质量复习上调一个子等级")
}
