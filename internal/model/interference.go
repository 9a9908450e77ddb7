package model

import "time"

type InterferenceStatus string

const (
	InterferenceExhibited InterferenceStatus = "exhibited"
	InterferenceOvercome  InterferenceStatus = "overcome"
)

// InterferencePattern 母语干扰模式，(learner, category, detail) 唯一。
// 重复检测只递增 occurrences 并刷新 last_seen，不产生新行；
// overcome 后再次出现会重新打开，occurrences 继续累加而不清零。
// swagger:model InterferencePattern
type InterferencePattern struct {
	BaseModel
	LearnerID     uint               `gorm:"uniqueIndex:uk_learner_pattern;type:bigint unsigned;not null" json:"learnerId"`
	Category      string             `gorm:"uniqueIndex:uk_learner_pattern;size:50;not null" json:"category"`
	Detail        string             `gorm:"uniqueIndex:uk_learner_pattern;size:100;not null" json:"detail"`
	Status        InterferenceStatus `gorm:"size:20;default:'exhibited'" json:"status"`
	Occurrences   int                `gorm:"default:1" json:"occurrences"`
	CorrectStreak int                `gorm:"default:0" json:"correctStreak"`
	FirstSeenAt   time.Time          `gorm:"not null" json:"firstSeenAt"`
	LastSeenAt    time.Time          `gorm:"not null" json:"lastSeenAt"`
	OvercomeAt    *time.Time         `json:"overcomeAt,omitempty"`
}

func (InterferencePattern) TableName() string {
	return "interference_patterns"
}
