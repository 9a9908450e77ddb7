package model

import "encoding/json"

type ProfileTrigger string

const (
	TriggerAssessment   ProfileTrigger = "assessment"
	TriggerReviewVolume ProfileTrigger = "review_volume"
	TriggerManual       ProfileTrigger = "manual"
)

// LearningDnaProfile 学习DNA画像，按学习者严格递增且连续的版本号，
// 只追加新版本，从不原地修改。
// swagger:model LearningDnaProfile
type LearningDnaProfile struct {
	UUIDBase
	LearnerID    uint            `gorm:"uniqueIndex:uk_learner_version;type:bigint unsigned;not null" json:"learnerId"`
	Version      int             `gorm:"uniqueIndex:uk_learner_version;not null" json:"version"`
	TriggerEvent ProfileTrigger  `gorm:"size:20;not null" json:"triggerEvent"`
	Payload      json.RawMessage `gorm:"type:json" json:"payload"`
}

func (LearningDnaProfile) TableName() string {
	return "learning_dna_profiles"
}

// DnaPayload 画像内容：强项、短板、节奏、偏好模态
type DnaPayload struct {
	Strengths         []string `json:"strengths"`
	Gaps              []string `json:"gaps"`
	ReviewsPerDay     float64  `json:"reviewsPerDay"`
	PreferredModality string   `json:"preferredModality"`
	OverallLevel      string   `json:"overallLevel"`
	OpenInterference  int      `json:"openInterference"`
}
