package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"lingua_edu_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const currentLevelCacheTTL = 10 * time.Minute

// LevelRepository 管理 CEFR 等级快照与学习DNA画像。
// 两张表都是追加写入：没有 Update/Delete 方法。
type LevelRepository struct {
	DB  *gorm.DB
	RDB *redis.Client
}

func NewLevelRepository(db *gorm.DB, rdb *redis.Client) *LevelRepository {
	return &LevelRepository{DB: db, RDB: rdb}
}

func currentLevelKey(learnerID uint) string {
	return "level:current:" + strconv.FormatUint(uint64(learnerID), 10)
}

// CreateSnapshot 只落库，不写缓存。快照可能在未提交的事务里，
// 回滚后缓存不能继续供应幻影快照；调用方提交成功后再 CacheCurrent。
func (r *LevelRepository) CreateSnapshot(tx *gorm.DB, snap *model.LevelSnapshot) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(snap).Error
}

// CacheCurrent 当前等级写入 Redis，供看板端快速读取；缓存失败不影响主流程。
// 只允许用已提交的快照调用。
func (r *LevelRepository) CacheCurrent(snap *model.LevelSnapshot) {
	if r.RDB == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	r.RDB.Set(context.Background(), currentLevelKey(snap.LearnerID), data, currentLevelCacheTTL)
}

// LatestSnapshot 当前等级 = 按记录时间最新的一条快照
func (r *LevelRepository) LatestSnapshot(learnerID uint) (*model.LevelSnapshot, error) {
	if r.RDB != nil {
		data, err := r.RDB.Get(context.Background(), currentLevelKey(learnerID)).Bytes()
		if err == nil {
			var snap model.LevelSnapshot
			if json.Unmarshal(data, &snap) == nil {
				return &snap, nil
			}
		}
	}

	var snap model.LevelSnapshot
	err := r.DB.Where("learner_id = ?", learnerID).
		Order("recorded_at desc").First(&snap).Error
	if err != nil {
		return nil, err
	}
	r.CacheCurrent(&snap)
	return &snap, nil
}

func (r *LevelRepository) ListSnapshots(learnerID uint, limit int) ([]model.LevelSnapshot, error) {
	var snaps []model.LevelSnapshot
	err := r.DB.Where("learner_id = ?", learnerID).
		Order("recorded_at desc").Limit(limit).Find(&snaps).Error
	return snaps, err
}

func (r *LevelRepository) CountSnapshotsByAssessment(assessmentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LevelSnapshot{}).
		Where("assessment_id = ?", assessmentID).Count(&count).Error
	return count, err
}

// CreateProfile 在事务内分配版本号：version = 上一版本 + 1，首个画像为 1。
// 调用方必须持有该学习者的锁，保证版本号连续且不重复。
func (r *LevelRepository) CreateProfile(tx *gorm.DB, profile *model.LearningDnaProfile) error {
	if tx == nil {
		tx = r.DB
	}
	var latest model.LearningDnaProfile
	err := tx.Where("learner_id = ?", profile.LearnerID).
		Order("version desc").First(&latest).Error
	switch {
	case err == nil:
		profile.Version = latest.Version + 1
	case err == gorm.ErrRecordNotFound:
		profile.Version = 1
	default:
		return err
	}
	return tx.Create(profile).Error
}

func (r *LevelRepository) LatestProfile(learnerID uint) (*model.LearningDnaProfile, error) {
	var p model.LearningDnaProfile
	err := r.DB.Where("learner_id = ?", learnerID).
		Order("version desc").First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *LevelRepository) ListProfiles(learnerID uint) ([]model.LearningDnaProfile, error) {
	var ps []model.LearningDnaProfile
	err := r.DB.Where("learner_id = ?", learnerID).
		Order("version asc").Find(&ps).Error
	return ps, err
}
