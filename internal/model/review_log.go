package model

import "time"

// ReviewLog 复习流水，追加写入。画像重算读取它来统计
// 复习节奏与触发阈值，不参与排期计算本身。
// swagger:model ReviewLog
type ReviewLog struct {
	UUIDBase
	LearnerID    uint           `gorm:"index;type:bigint unsigned;not null" json:"learnerId"`
	ItemID       uint           `gorm:"index;type:bigint unsigned;not null" json:"itemId"`
	ItemType     ReviewItemType `gorm:"size:20;not null" json:"itemType"`
	Quality      int            `gorm:"not null" json:"quality"`
	IntervalDays int            `gorm:"default:0" json:"intervalDays"`
	ReviewedAt   time.Time      `gorm:"index;not null" json:"reviewedAt"`
}

func (ReviewLog) TableName() string {
	return "review_logs"
}
