package model

import "time"

type SnapshotSource string

const (
	SnapshotSourceAssessment SnapshotSource = "assessment"
	SnapshotSourceRecompute  SnapshotSource = "recompute"
	SnapshotSourceManual     SnapshotSource = "manual"
)

// LevelSnapshot CEFR 等级历史，追加写入，永不更新或删除。
// “当前等级”是查询（按 recorded_at 取最新一条），不是可变字段。
// swagger:model LevelSnapshot
type LevelSnapshot struct {
	UUIDBase
	LearnerID    uint           `gorm:"index;type:bigint unsigned;not null" json:"learnerId"`
	OverallLevel string         `gorm:"size:5;not null" json:"overallLevel"`
	Grammar      *string        `gorm:"size:5" json:"grammar,omitempty"`
	Vocabulary   *string        `gorm:"size:5" json:"vocabulary,omitempty"`
	Reading      *string        `gorm:"size:5" json:"reading,omitempty"`
	Speaking     *string        `gorm:"size:5" json:"speaking,omitempty"`
	Writing      *string        `gorm:"size:5" json:"writing,omitempty"`
	Confidence   float64        `gorm:"default:0" json:"confidence"`
	Source       SnapshotSource `gorm:"size:20;not null" json:"source"`
	AssessmentID *uint          `gorm:"type:bigint unsigned" json:"assessmentId,omitempty"`
	RecordedAt   time.Time      `gorm:"index;not null" json:"recordedAt"`
}

func (LevelSnapshot) TableName() string {
	return "level_snapshots"
}

// SkillLevel 返回指定技能的子等级，未评估返回空串
func (s *LevelSnapshot) SkillLevel(skill string) string {
	var p *string
	switch skill {
	case SkillGrammar:
		p = s.Grammar
	case SkillVocabulary:
		p = s.Vocabulary
	case SkillReading:
		p = s.Reading
	case SkillSpeaking:
		p = s.Speaking
	case SkillWriting:
		p = s.Writing
	}
	if p == nil {
		return ""
	}
	return *p
}
