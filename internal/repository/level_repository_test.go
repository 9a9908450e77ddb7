package repository

import (
	"errors"
	"testing"
	"time"

	"lingua_edu_backend/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newLevelTestRepo(t *testing.T) (*LevelRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.LevelSnapshot{}, &model.LearningDnaProfile{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewLevelRepository(db, rdb), db
}

func TestRolledBackSnapshotNotServedFromCache(t *testing.T) {
	repo, db := newLevelTestRepo(t)

	committed := &model.LevelSnapshot{
		LearnerID:    1,
		OverallLevel: model.LevelB1,
		Source:       model.SnapshotSourceAssessment,
		RecordedAt:   time.Now(),
	}
	require.NoError(t, repo.CreateSnapshot(nil, committed))
	repo.CacheCurrent(committed)

	// 事务回滚后插入被撤销，缓存里不能留下幻影快照
	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		phantom := &model.LevelSnapshot{
			LearnerID:    1,
			OverallLevel: model.LevelC1,
			Source:       model.SnapshotSourceRecompute,
			RecordedAt:   time.Now().Add(time.Hour),
		}
		if err := repo.CreateSnapshot(tx, phantom); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	snap, err := repo.LatestSnapshot(1)
	require.NoError(t, err)
	assert.Equal(t, model.LevelB1, snap.OverallLevel, "当前等级仍是已提交的最新快照")

	var count int64
	require.NoError(t, db.Model(&model.LevelSnapshot{}).Where("learner_id = ?", 1).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestLatestSnapshotReadsThroughCache(t *testing.T) {
	repo, db := newLevelTestRepo(t)

	snap := &model.LevelSnapshot{
		LearnerID:    7,
		OverallLevel: model.LevelB2,
		Source:       model.SnapshotSourceAssessment,
		RecordedAt:   time.Now(),
	}
	require.NoError(t, repo.CreateSnapshot(nil, snap))
	repo.CacheCurrent(snap)

	// 删掉库里的行：命中缓存时不落库查询
	require.NoError(t, db.Where("id = ?", snap.ID).Delete(&model.LevelSnapshot{}).Error)

	got, err := repo.LatestSnapshot(7)
	require.NoError(t, err)
	assert.Equal(t, model.LevelB2, got.OverallLevel)
}
