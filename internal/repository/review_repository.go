package repository

import (
	"time"

	"lingua_edu_backend/internal/model"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	DB *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{DB: db}
}

func (r *ReviewRepository) CreateItem(item *model.ReviewableItem) error {
	return r.DB.Create(item).Error
}

func (r *ReviewRepository) FindItemByID(id uint) (*model.ReviewableItem, error) {
	var item model.ReviewableItem
	err := r.DB.First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ReviewRepository) SaveItem(tx *gorm.DB, item *model.ReviewableItem) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Save(item).Error
}

// DueItems 到期条目：next_review_at <= now，最久到期的排最前，
// 保证学习者永远先复习最危险的条目
func (r *ReviewRepository) DueItems(learnerID uint, now time.Time) ([]model.ReviewableItem, error) {
	var items []model.ReviewableItem
	err := r.DB.Where("learner_id = ? AND next_review_at <= ?", learnerID, now).
		Order("next_review_at asc").Find(&items).Error
	return items, err
}

func (r *ReviewRepository) ListItems(learnerID uint) ([]model.ReviewableItem, error) {
	var items []model.ReviewableItem
	err := r.DB.Where("learner_id = ?", learnerID).
		Order("created_at asc").Find(&items).Error
	return items, err
}

func (r *ReviewRepository) CreateLog(tx *gorm.DB, log *model.ReviewLog) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(log).Error
}

func (r *ReviewRepository) CountLogsSince(learnerID uint, since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ReviewLog{}).
		Where("learner_id = ? AND reviewed_at > ?", learnerID, since).Count(&count).Error
	return count, err
}

func (r *ReviewRepository) ListLogsSince(learnerID uint, since time.Time) ([]model.ReviewLog, error) {
	var logs []model.ReviewLog
	err := r.DB.Where("learner_id = ? AND reviewed_at > ?", learnerID, since).
		Order("reviewed_at asc").Find(&logs).Error
	return logs, err
}
