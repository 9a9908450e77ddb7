package model

// SpeakingSample 学习者口语样本，归档到对象存储供教师回听
// swagger:model SpeakingSample
type SpeakingSample struct {
	BaseModel
	LearnerID       uint    `gorm:"index;type:bigint unsigned;not null" json:"learnerId"`
	ObjectKey       string  `gorm:"size:255;not null" json:"objectKey"`
	DurationSeconds float64 `gorm:"default:0" json:"durationSeconds"`
	Format          string  `gorm:"size:20" json:"format"`
	SizeBytes       int64   `gorm:"default:0" json:"sizeBytes"`
}

func (SpeakingSample) TableName() string {
	return "speaking_samples"
}
