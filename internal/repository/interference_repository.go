package repository

import (
	"lingua_edu_backend/internal/model"

	"gorm.io/gorm"
)

type InterferenceRepository struct {
	DB *gorm.DB
}

func NewInterferenceRepository(db *gorm.DB) *InterferenceRepository {
	return &InterferenceRepository{DB: db}
}

// FindByKey 按 (learner, category, detail) 唯一键查找
func (r *InterferenceRepository) FindByKey(tx *gorm.DB, learnerID uint, category, detail string) (*model.InterferencePattern, error) {
	if tx == nil {
		tx = r.DB
	}
	var p model.InterferencePattern
	err := tx.Where("learner_id = ? AND category = ? AND detail = ?", learnerID, category, detail).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *InterferenceRepository) FindByID(id uint) (*model.InterferencePattern, error) {
	var p model.InterferencePattern
	err := r.DB.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *InterferenceRepository) Create(tx *gorm.DB, p *model.InterferencePattern) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(p).Error
}

func (r *InterferenceRepository) Save(tx *gorm.DB, p *model.InterferencePattern) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Save(p).Error
}

func (r *InterferenceRepository) ListByLearner(learnerID uint) ([]model.InterferencePattern, error) {
	var ps []model.InterferencePattern
	err := r.DB.Where("learner_id = ?", learnerID).
		Order("last_seen_at desc").Find(&ps).Error
	return ps, err
}

// ListExhibited 仍处于 exhibited 状态的模式，画像重算用
func (r *InterferenceRepository) ListExhibited(learnerID uint) ([]model.InterferencePattern, error) {
	var ps []model.InterferencePattern
	err := r.DB.Where("learner_id = ? AND status = ?", learnerID, model.InterferenceExhibited).
		Find(&ps).Error
	return ps, err
}
