package model

import "encoding/json"

type QuestionPhase string

const (
	PhasePlacement  QuestionPhase = "placement"
	PhaseDiagnostic QuestionPhase = "diagnostic"
)

// Question 题库：定级题覆盖 CEFR 全谱，诊断题按等级与技能组织
// swagger:model Question
type Question struct {
	BaseModel
	Phase   QuestionPhase   `gorm:"size:20;index;not null" json:"phase"`
	Skill   string          `gorm:"size:20;index" json:"skill"`
	Level   string          `gorm:"size:5;index" json:"level"`
	Prompt  string          `gorm:"type:text;not null" json:"prompt"`
	Options json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	Answer  string          `gorm:"type:text" json:"-"`
	Order   int             `gorm:"default:0" json:"order"`
	Enabled bool            `gorm:"default:true" json:"enabled"`
}

func (Question) TableName() string {
	return "questions"
}
