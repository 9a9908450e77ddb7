package repository

import (
	"lingua_edu_backend/internal/model"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) Create(a *model.Assessment) error {
	return r.DB.Create(a).Error
}

func (r *AssessmentRepository) FindByID(id uint) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// LatestByLearner 返回该学习者最近一次测评，没有时返回 gorm.ErrRecordNotFound
func (r *AssessmentRepository) LatestByLearner(learnerID uint) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.Where("learner_id = ?", learnerID).
		Order("created_at desc").First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssessmentRepository) Save(a *model.Assessment) error {
	return r.DB.Save(a).Error
}
