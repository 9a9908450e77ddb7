package repository

import (
	"lingua_edu_backend/internal/model"

	"gorm.io/gorm"
)

type SampleRepository struct {
	DB *gorm.DB
}

func NewSampleRepository(db *gorm.DB) *SampleRepository {
	return &SampleRepository{DB: db}
}

func (r *SampleRepository) Create(s *model.SpeakingSample) error {
	return r.DB.Create(s).Error
}

func (r *SampleRepository) ListByLearner(learnerID uint) ([]model.SpeakingSample, error) {
	var ss []model.SpeakingSample
	err := r.DB.Where("learner_id = ?", learnerID).
		Order("created_at desc").Find(&ss).Error
	return ss, err
}
