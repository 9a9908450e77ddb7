package repository

import (
	"lingua_edu_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// ListPlacement 定级题集：固定 5 题，覆盖 CEFR 全谱，按 order 排序
func (r *QuestionRepository) ListPlacement() ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("phase = ? AND enabled = ?", model.PhasePlacement, true).
		Order("`order` asc").Limit(5).Find(&qs).Error
	return qs, err
}

// ListDiagnosticByLevels 诊断题：按定级区间筛选，五项技能各若干题
func (r *QuestionRepository) ListDiagnosticByLevels(levels []string) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("phase = ? AND enabled = ? AND level IN ?", model.PhaseDiagnostic, true, levels).
		Order("skill asc, `order` asc").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) FindByIDs(ids []uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("id IN ?", ids).Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}
