package service

import (
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// defaultEaseFactor 新条目的初始难度系数（SM-2 约定值）
const defaultEaseFactor = 2.5

type ReviewService struct {
	Repo      *repository.ReviewRepository
	LevelRepo *repository.LevelRepository
	Profile   *ProfileService
	Policy    *PolicyStore
	Locker    *util.LearnerLocker
	DB        *gorm.DB
}

func NewReviewService(repo *repository.ReviewRepository, levelRepo *repository.LevelRepository,
	profile *ProfileService, policy *PolicyStore, locker *util.LearnerLocker, db *gorm.DB) *ReviewService {
	return &ReviewService{
		Repo:      repo,
		LevelRepo: levelRepo,
		Profile:   profile,
		Policy:    policy,
		Locker:    locker,
		DB:        db,
	}
}

type CreateItemRequest struct {
	ItemType   model.ReviewItemType `json:"itemType" binding:"required"`
	ContentRef string               `json:"contentRef" binding:"required"`
}

// CreateItem 首次曝光建卡：interval=0、立即到期，确保新条目出现在下一批待复习中
func (s *ReviewService) CreateItem(learnerID uint, req CreateItemRequest) (*model.ReviewableItem, error) {
	if req.ItemType != model.ItemVocabularyCard && req.ItemType != model.ItemLearningPoint {
		return nil, util.ErrInvalidItemType
	}

	item := &model.ReviewableItem{
		LearnerID:    learnerID,
		ItemType:     req.ItemType,
		ContentRef:   req.ContentRef,
		EaseFactor:   defaultEaseFactor,
		IntervalDays: 0,
		NextReviewAt: time.Now(),
	}
	if err := s.Repo.CreateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

type ReviewOutcome struct {
	Item       *model.ReviewableItem `json:"item"`
	Recomputed bool                  `json:"recomputed"`
}

// SubmitReview 提交一次复习结果并推进 SM-2 状态。
// 同一学习者的复习写入串行化；达到阈值的复习量触发画像重算。
func (s *ReviewService) SubmitReview(learnerID, itemID uint, quality int) (*ReviewOutcome, error) {
	if quality < 0 || quality > 5 {
		return nil, util.ErrInvalidQuality
	}

	// 条目状态必须在锁内读取：锁外读到的快照可能已被并发复习推进，
	// 基于它计算会把别人的提交覆盖掉
	s.Locker.Lock(learnerID)

	item, err := s.Repo.FindItemByID(itemID)
	if err != nil {
		s.Locker.Unlock(learnerID)
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrItemNotFound
		}
		return nil, err
	}
	if item.LearnerID != learnerID {
		s.Locker.Unlock(learnerID)
		return nil, util.ErrItemNotFound
	}

	now := time.Now()

	next := NextReviewState(ReviewState{
		Repetition:   item.Repetition,
		EaseFactor:   item.EaseFactor,
		IntervalDays: item.IntervalDays,
		LapseCount:   item.LapseCount,
	}, quality, now)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		item.Repetition = next.Repetition
		item.EaseFactor = next.EaseFactor
		item.IntervalDays = next.IntervalDays
		item.LapseCount = next.LapseCount
		item.NextReviewAt = next.NextReviewAt
		item.LastReviewedAt = &now
		if err := s.Repo.SaveItem(tx, item); err != nil {
			return err
		}
		return s.Repo.CreateLog(tx, &model.ReviewLog{
			LearnerID:    learnerID,
			ItemID:       item.ID,
			ItemType:     item.ItemType,
			Quality:      quality,
			IntervalDays: next.IntervalDays,
			ReviewedAt:   now,
		})
	})
	s.Locker.Unlock(learnerID)
	if err != nil {
		return nil, err
	}

	// 重算会重新取同一把学习者锁，必须在解锁之后触发
	recomputed := s.maybeRecompute(learnerID)

	return &ReviewOutcome{Item: item, Recomputed: recomputed}, nil
}

// maybeRecompute 自上一版画像以来的复习量达到阈值时触发重算
func (s *ReviewService) maybeRecompute(learnerID uint) bool {
	threshold := s.Policy.Get().Assessment.ReviewRecomputeThreshold
	if threshold <= 0 {
		return false
	}

	since := time.Time{}
	if p, err := s.LevelRepo.LatestProfile(learnerID); err == nil {
		since = p.CreatedAt
	}

	count, err := s.Repo.CountLogsSince(learnerID, since)
	if err != nil || count < int64(threshold) {
		return false
	}

	if _, err := s.Profile.Recompute(learnerID, model.TriggerReviewVolume); err != nil {
		logger.Log.Error("review-volume recompute failed",
			zap.Uint("learnerId", learnerID), zap.Error(err))
		return false
	}
	return true
}

// Due 待复习条目，最久到期优先
func (s *ReviewService) Due(learnerID uint) ([]model.ReviewableItem, error) {
	return s.Repo.DueItems(learnerID, time.Now())
}

func (s *ReviewService) ListItems(learnerID uint) ([]model.ReviewableItem, error) {
	return s.Repo.ListItems(learnerID)
}
