package model

import "time"

type ReviewItemType string

const (
	ItemVocabularyCard ReviewItemType = "vocabulary_card"
	ItemLearningPoint  ReviewItemType = "learning_point"
)

// ReviewableItem 可复习条目（生词卡/原子知识点），仅由复习结果驱动状态变化。
// 新建条目 interval=0、立即到期，保证首次曝光出现在下一批待复习中。
// swagger:model ReviewableItem
type ReviewableItem struct {
	BaseModel
	LearnerID      uint           `gorm:"index;type:bigint unsigned;not null" json:"learnerId"`
	ItemType       ReviewItemType `gorm:"size:20;not null" json:"itemType"`
	ContentRef     string         `gorm:"size:255;not null" json:"contentRef"`
	Repetition     int            `gorm:"default:0" json:"repetition"`
	EaseFactor     float64        `gorm:"default:2.5" json:"easeFactor"`
	IntervalDays   int            `gorm:"default:0" json:"intervalDays"`
	NextReviewAt   time.Time      `gorm:"index;not null" json:"nextReviewAt"`
	LapseCount     int            `gorm:"default:0" json:"lapseCount"`
	LastReviewedAt *time.Time     `json:"lastReviewedAt,omitempty"`
}

func (ReviewableItem) TableName() string {
	return "reviewable_items"
}
