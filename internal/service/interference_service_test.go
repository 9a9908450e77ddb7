package service

import (
	"testing"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeMergesRepeatedFindings(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	// 同一干扰模式三次检出
	for i := 0; i < 3; i++ {
		result, err := env.interference.Analyze(learner.ID, "Yesterday I go to school.", "zh")
		require.NoError(t, err)
		require.Len(t, result.Findings, 1)
	}

	patterns, err := env.interference.Summary(learner.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 1, "重复检出不产生新行")
	assert.Equal(t, "verb-tense", patterns[0].Category)
	assert.Equal(t, "missing-past-marker", patterns[0].Detail)
	assert.Equal(t, 3, patterns[0].Occurrences)
	assert.Equal(t, model.InterferenceExhibited, patterns[0].Status)
	assert.False(t, patterns[0].LastSeenAt.Before(patterns[0].FirstSeenAt))
}

func TestAnalyzeCorrectStreakOvercomes(t *testing.T) {
	env := newTestEnv(t, failingScorer{}) // overcome_streak = 2
	learner := seedLearner(t, env.db)

	_, err := env.interference.Analyze(learner.ID, "Yesterday I go to school.", "zh")
	require.NoError(t, err)

	// 两次连续正确用法 → overcome
	for i := 0; i < 2; i++ {
		_, err = env.interference.Analyze(learner.ID, "Yesterday I went to school.", "zh")
		require.NoError(t, err)
	}

	patterns, err := env.interference.Summary(learner.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, model.InterferenceOvercome, patterns[0].Status)
	assert.NotNil(t, patterns[0].OvercomeAt)
}

func TestAnalyzeReopensOvercomePattern(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	_, err := env.interference.Analyze(learner.ID, "Yesterday I go to school.", "zh")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = env.interference.Analyze(learner.ID, "Yesterday I went to school.", "zh")
		require.NoError(t, err)
	}

	// overcome 后再次出现：重新打开，occurrences 继续累加
	_, err = env.interference.Analyze(learner.ID, "Yesterday I go to school.", "zh")
	require.NoError(t, err)

	patterns, err := env.interference.Summary(learner.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, model.InterferenceExhibited, patterns[0].Status)
	assert.Equal(t, 2, patterns[0].Occurrences, "累计次数不清零")
	assert.Nil(t, patterns[0].OvercomeAt)
	assert.Equal(t, 0, patterns[0].CorrectStreak)
}

func TestAnalyzeFindingResetsStreak(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	_, err := env.interference.Analyze(learner.ID, "Yesterday I go to school.", "zh")
	require.NoError(t, err)
	_, err = env.interference.Analyze(learner.ID, "Yesterday I went to school.", "zh")
	require.NoError(t, err)

	// 连对中断：计数清零，不会只差一次就误判克服
	_, err = env.interference.Analyze(learner.ID, "Yesterday I go to school.", "zh")
	require.NoError(t, err)
	_, err = env.interference.Analyze(learner.ID, "Yesterday I went to school.", "zh")
	require.NoError(t, err)

	patterns, err := env.interference.Summary(learner.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, model.InterferenceExhibited, patterns[0].Status)
	assert.Equal(t, 1, patterns[0].CorrectStreak)
}

func TestAnalyzeCorrectUseWithoutHistoryIsNoop(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	result, err := env.interference.Analyze(learner.ID, "Yesterday I went to school.", "zh")
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	require.Len(t, result.CorrectUses, 1)

	patterns, err := env.interference.Summary(learner.ID)
	require.NoError(t, err)
	assert.Empty(t, patterns, "从未检出过的模式不因正确用法建行")
}

func TestAnalyzeRejectsEmptyText(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	_, err := env.interference.Analyze(learner.ID, "   ", "zh")
	assert.ErrorIs(t, err, util.ErrEmptyText)
}

func TestMarkOvercomeManually(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	_, err := env.interference.Analyze(learner.ID, "Yesterday I go to school.", "zh")
	require.NoError(t, err)

	patterns, err := env.interference.Summary(learner.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 1)

	p, err := env.interference.MarkOvercome(learner.ID, patterns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.InterferenceOvercome, p.Status)
	assert.NotNil(t, p.OvercomeAt)

	// 他人模式不可操作
	other := &model.User{Name: "别人", Email: "other3@example.com", Password: "x"}
	require.NoError(t, env.db.Create(other).Error)
	_, err = env.interference.MarkOvercome(other.ID, patterns[0].ID)
	assert.ErrorIs(t, err, util.ErrPatternNotFound)
}

func TestMarkOvercomeKeepsConcurrentOccurrences(t *testing.T) {
	env := newTestEnv(t, failingScorer{})
	learner := seedLearner(t, env.db)

	_, err := env.interference.Analyze(learner.ID, "Yesterday I go to school.", "zh")
	require.NoError(t, err)
	patterns, err := env.interference.Summary(learner.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	require.Equal(t, 1, patterns[0].Occurrences)

	// 持锁期间并发分析先把计数推进到 3；标记克服只能等锁释放，
	// 必须在锁内重读最新行，回写不得带回旧计数
	env.locker.Lock(learner.ID)

	done := make(chan error, 1)
	go func() {
		_, err := env.interference.MarkOvercome(learner.ID, patterns[0].ID)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, env.db.Model(&model.InterferencePattern{}).
		Where("id = ?", patterns[0].ID).
		Updates(map[string]interface{}{"occurrences": 3, "last_seen_at": time.Now()}).Error)
	env.locker.Unlock(learner.ID)
	require.NoError(t, <-done)

	after, err := env.interference.Summary(learner.ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, model.InterferenceOvercome, after[0].Status)
	assert.Equal(t, 3, after[0].Occurrences, "并发累加的计数不被旧值覆盖")
}
