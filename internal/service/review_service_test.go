package service

import (
	"sync"
	"testing"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItemImmediatelyDue(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	item, err := env.review.CreateItem(learner.ID, CreateItemRequest{
		ItemType:   model.ItemVocabularyCard,
		ContentRef: "word:ubiquitous",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, item.IntervalDays)
	assert.InDelta(t, 2.5, item.EaseFactor, 1e-9)

	due, err := env.review.Due(learner.ID)
	require.NoError(t, err)
	require.Len(t, due, 1, "新条目立即进入待复习队列")
	assert.Equal(t, item.ID, due[0].ID)
}

func TestCreateItemRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	_, err := env.review.CreateItem(learner.ID, CreateItemRequest{
		ItemType:   "flashcard",
		ContentRef: "x",
	})
	assert.ErrorIs(t, err, util.ErrInvalidItemType)
}

func TestSubmitReviewAdvancesSchedule(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	item, err := env.review.CreateItem(learner.ID, CreateItemRequest{
		ItemType:   model.ItemLearningPoint,
		ContentRef: "grammar:past-perfect",
	})
	require.NoError(t, err)

	out, err := env.review.SubmitReview(learner.ID, item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Item.Repetition)
	assert.Equal(t, 1, out.Item.IntervalDays)
	assert.NotNil(t, out.Item.LastReviewedAt)

	out, err = env.review.SubmitReview(learner.ID, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Item.Repetition)
	assert.Equal(t, 6, out.Item.IntervalDays)

	// 遗忘：回到1天，遗忘计数+1
	out, err = env.review.SubmitReview(learner.ID, item.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Item.Repetition)
	assert.Equal(t, 1, out.Item.IntervalDays)
	assert.Equal(t, 1, out.Item.LapseCount)

	// 每次复习写一条流水
	var logs int64
	require.NoError(t, env.db.Model(&model.ReviewLog{}).Where("item_id = ?", item.ID).Count(&logs).Error)
	assert.EqualValues(t, 3, logs)
}

func TestSubmitReviewValidation(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	item, err := env.review.CreateItem(learner.ID, CreateItemRequest{
		ItemType:   model.ItemVocabularyCard,
		ContentRef: "word:cat",
	})
	require.NoError(t, err)

	_, err = env.review.SubmitReview(learner.ID, item.ID, 6)
	assert.ErrorIs(t, err, util.ErrInvalidQuality)
	_, err = env.review.SubmitReview(learner.ID, item.ID, -1)
	assert.ErrorIs(t, err, util.ErrInvalidQuality)
	_, err = env.review.SubmitReview(learner.ID, 99999, 4)
	assert.ErrorIs(t, err, util.ErrItemNotFound)

	// 他人条目不可见
	other := &model.User{Name: "别人", Email: "other2@example.com", Password: "x"}
	require.NoError(t, env.db.Create(other).Error)
	_, err = env.review.SubmitReview(other.ID, item.ID, 4)
	assert.ErrorIs(t, err, util.ErrItemNotFound)
}

func TestConcurrentReviewsAllTakeEffect(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	item, err := env.review.CreateItem(learner.ID, CreateItemRequest{
		ItemType:   model.ItemVocabularyCard,
		ContentRef: "word:ephemeral",
	})
	require.NoError(t, err)

	// 先持有学习者锁再放出两个并发提交：条目状态在锁内读取，
	// 两次提交只能依次执行，后一次必须看到前一次的推进结果
	env.locker.Lock(learner.ID)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.review.SubmitReview(learner.ID, item.ID, 5)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	env.locker.Unlock(learner.ID)
	wg.Wait()

	var saved model.ReviewableItem
	require.NoError(t, env.db.First(&saved, item.ID).Error)
	assert.Equal(t, 2, saved.Repetition, "两次成功复习都计入进度")
	assert.Equal(t, 6, saved.IntervalDays)

	var logs int64
	require.NoError(t, env.db.Model(&model.ReviewLog{}).Where("item_id = ?", item.ID).Count(&logs).Error)
	assert.EqualValues(t, 2, logs)
}

func TestDueItemsOrderedOldestFirst(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)
	now := time.Now()

	newest := &model.ReviewableItem{LearnerID: learner.ID, ItemType: model.ItemVocabularyCard,
		ContentRef: "a", EaseFactor: 2.5, NextReviewAt: now.Add(-1 * time.Hour)}
	oldest := &model.ReviewableItem{LearnerID: learner.ID, ItemType: model.ItemVocabularyCard,
		ContentRef: "b", EaseFactor: 2.5, NextReviewAt: now.Add(-48 * time.Hour)}
	future := &model.ReviewableItem{LearnerID: learner.ID, ItemType: model.ItemVocabularyCard,
		ContentRef: "c", EaseFactor: 2.5, NextReviewAt: now.Add(24 * time.Hour)}
	for _, it := range []*model.ReviewableItem{newest, oldest, future} {
		require.NoError(t, env.db.Create(it).Error)
	}

	due, err := env.review.Due(learner.ID)
	require.NoError(t, err)
	require.Len(t, due, 2, "未到期条目不出现在队列里")
	assert.Equal(t, oldest.ID, due[0].ID, "最久到期的排最前")
	assert.Equal(t, newest.ID, due[1].ID)
}

func TestReviewVolumeTriggersRecompute(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	item, err := env.review.CreateItem(learner.ID, CreateItemRequest{
		ItemType:   model.ItemVocabularyCard,
		ContentRef: "word:dog",
	})
	require.NoError(t, err)

	// 阈值=3：前两次不触发，第三次触发画像重算
	for i := 0; i < 2; i++ {
		out, err := env.review.SubmitReview(learner.ID, item.ID, 4)
		require.NoError(t, err)
		assert.False(t, out.Recomputed)
	}

	out, err := env.review.SubmitReview(learner.ID, item.ID, 4)
	require.NoError(t, err)
	assert.True(t, out.Recomputed)

	profile, exists, err := env.profile.LatestProfile(learner.ID)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, 1, profile.Version)
	assert.Equal(t, model.TriggerReviewVolume, profile.TriggerEvent)

	// 计数窗口从新画像重新起算
	out, err = env.review.SubmitReview(learner.ID, item.ID, 4)
	require.NoError(t, err)
	assert.False(t, out.Recomputed)
}
