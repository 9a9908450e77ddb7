package model

import (
	"encoding/json"
	"time"
)

type AssessmentStatus string

// 测评状态机：placement_pending → diagnostic_pending → completed，只进不退
const (
	AssessmentPlacementPending  AssessmentStatus = "placement_pending"
	AssessmentDiagnosticPending AssessmentStatus = "diagnostic_pending"
	AssessmentCompleted         AssessmentStatus = "completed"
)

// swagger:model Assessment
type Assessment struct {
	BaseModel
	LearnerID      uint             `gorm:"index;type:bigint unsigned;not null" json:"learnerId"`
	Status         AssessmentStatus `gorm:"size:30;default:'placement_pending'" json:"status"`
	Bracket        string           `gorm:"size:10" json:"bracket"`
	PlacementScore int              `gorm:"default:0" json:"placementScore"`
	// IssuedQuestions 定级后下发的诊断题 id 集合，诊断作答只接受集合内的题目
	IssuedQuestions json.RawMessage `gorm:"type:json" json:"-"`
	FinalLevel     string           `gorm:"size:5" json:"finalLevel"`
	SkillBreakdown json.RawMessage  `gorm:"type:json" json:"skillBreakdown,omitempty"`
	Confidence     float64          `gorm:"default:0" json:"confidence"`
	Degraded       bool             `gorm:"default:false" json:"degraded"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
}

func (Assessment) TableName() string {
	return "assessments"
}
