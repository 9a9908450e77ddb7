package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItemState() ReviewState {
	return ReviewState{EaseFactor: 2.5}
}

func TestNextReviewStateSuccessfulSequence(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newItemState()

	st = NextReviewState(st, 5, now)
	assert.Equal(t, 1, st.Repetition)
	assert.Equal(t, 1, st.IntervalDays)
	assert.Equal(t, now.AddDate(0, 0, 1), st.NextReviewAt)

	st = NextReviewState(st, 5, now)
	assert.Equal(t, 2, st.Repetition)
	assert.Equal(t, 6, st.IntervalDays)

	// 第三次起 interval = round(上次间隔 × EF)
	prevInterval := st.IntervalDays
	prevEF := st.EaseFactor
	st = NextReviewState(st, 4, now)
	assert.Equal(t, 3, st.Repetition)
	assert.InDelta(t, float64(prevInterval)*prevEF, float64(st.IntervalDays), 0.5)
}

func TestNextReviewStateLapse(t *testing.T) {
	now := time.Now()
	st := newItemState()
	st = NextReviewState(st, 5, now)
	st = NextReviewState(st, 5, now)
	require.Equal(t, 6, st.IntervalDays)

	efBefore := st.EaseFactor
	st = NextReviewState(st, 1, now)
	assert.Equal(t, 0, st.Repetition, "遗忘后重复次数归零")
	assert.Equal(t, 1, st.IntervalDays, "遗忘后间隔回到1天")
	assert.Equal(t, 1, st.LapseCount)
	assert.Equal(t, efBefore, st.EaseFactor, "遗忘不改难度系数")

	// 重新爬升从头开始
	st = NextReviewState(st, 4, now)
	assert.Equal(t, 1, st.Repetition)
	assert.Equal(t, 1, st.IntervalDays)
}

func TestNextReviewStateEaseFactorFloor(t *testing.T) {
	now := time.Now()
	st := newItemState()
	st.EaseFactor = 1.35

	// 质量3的成功复习会压低EF，但永不跌破1.3
	for i := 0; i < 10; i++ {
		st = NextReviewState(st, 3, now)
		assert.GreaterOrEqual(t, st.EaseFactor, MinEaseFactor)
	}
	assert.Equal(t, MinEaseFactor, st.EaseFactor)
}

func TestNextReviewStateQualityFiveRaisesEF(t *testing.T) {
	now := time.Now()
	st := newItemState()
	st = NextReviewState(st, 5, now)
	assert.InDelta(t, 2.6, st.EaseFactor, 1e-9)
}

func TestNextReviewStateIntervalMonotoneInQuality(t *testing.T) {
	now := time.Now()
	base := newItemState()
	base = NextReviewState(base, 5, now)
	base = NextReviewState(base, 5, now)

	// 相同前置状态下，更高质量产生的后续间隔不短于更低质量
	low := NextReviewState(base, 3, now)
	high := NextReviewState(base, 5, now)
	lowNext := NextReviewState(low, 4, now)
	highNext := NextReviewState(high, 4, now)
	assert.GreaterOrEqual(t, highNext.IntervalDays, lowNext.IntervalDays)
}
