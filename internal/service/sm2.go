package service

import (
	"math"
	"time"
)

// MinEaseFactor 难度系数下限。系数不会跌破该值，
// 保证条目在足够多次成功后间隔仍能增长。
const MinEaseFactor = 1.3

// ReviewQualityThreshold 低于该质量视为遗忘（lapse）
const ReviewQualityThreshold = 3

// ReviewState SM-2 排期状态
type ReviewState struct {
	Repetition   int
	EaseFactor   float64
	IntervalDays int
	LapseCount   int
	NextReviewAt time.Time
}

// NextReviewState SM-2 族算法：
//   - quality < 3（遗忘）：重复次数归零、间隔回到 1 天、遗忘计数 +1，难度系数不变；
//   - quality >= 3（成功）：重复次数 +1，间隔依次为 1 天、6 天、round(上次间隔 × 难度系数)，
//     难度系数按 SM-2 公式调整并钳制在 1.3 以上。
//
// 纯函数，不触碰存储。
func NextReviewState(st ReviewState, quality int, now time.Time) ReviewState {
	next := st

	if quality < ReviewQualityThreshold {
		next.Repetition = 0
		next.IntervalDays = 1
		next.LapseCount = st.LapseCount + 1
	} else {
		next.Repetition = st.Repetition + 1
		switch next.Repetition {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Round(float64(st.IntervalDays) * st.EaseFactor))
		}
		next.EaseFactor = updateEaseFactor(st.EaseFactor, quality)
	}

	next.NextReviewAt = now.AddDate(0, 0, next.IntervalDays)
	return next
}

func updateEaseFactor(ef float64, quality int) float64 {
	q := float64(quality)
	ef += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}
	return ef
}
