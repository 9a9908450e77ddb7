package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.Assessment{},
		&model.LevelSnapshot{},
		&model.LearningDnaProfile{},
		&model.ReviewableItem{},
		&model.ReviewLog{},
		&model.InterferencePattern{},
		&model.SpeakingSample{},
	))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Assessment: config.AssessmentConfig{
			PlacementBands:           config.DefaultPlacementBands(),
			SublevelCutoffs:          []float64{0.4, 0.75},
			ReviewRecomputeThreshold: 3,
		},
		Interference: config.InterferenceConfig{OvercomeStreak: 2},
	}
}

// failingScorer 模拟外部评分服务不可用
type failingScorer struct{}

func (failingScorer) ScoreDiagnostic(context.Context, *DiagnosticScoreRequest) (*DiagnosticScore, error) {
	return nil, errors.New("upstream unavailable")
}

func (failingScorer) ScoreFreeText(context.Context, *FreeTextScoreRequest) (*FreeTextScore, error) {
	return nil, errors.New("upstream unavailable")
}

// cannedScorer 返回固定结果，模拟外部评分服务正常
type cannedScorer struct {
	diagnostic *DiagnosticScore
	freeText   *FreeTextScore
}

func (s cannedScorer) ScoreDiagnostic(context.Context, *DiagnosticScoreRequest) (*DiagnosticScore, error) {
	return s.diagnostic, nil
}

func (s cannedScorer) ScoreFreeText(context.Context, *FreeTextScoreRequest) (*FreeTextScore, error) {
	return s.freeText, nil
}

type testEnv struct {
	db           *gorm.DB
	policy       *PolicyStore
	locker       *util.LearnerLocker
	assessment   *AssessmentService
	review       *ReviewService
	profile      *ProfileService
	interference *InterferenceService
	levelRepo    *repository.LevelRepository
	reviewRepo   *repository.ReviewRepository
}

func newTestEnv(t *testing.T, ai Scorer) *testEnv {
	t.Helper()
	db := newTestDB(t)
	policy := NewPolicyStore(testConfig())
	locker := util.NewLearnerLocker()

	gateway := NewScoringGatewayWith(ai, NewFallbackScorer(), 200*time.Millisecond)

	levelRepo := repository.NewLevelRepository(db, nil)
	reviewRepo := repository.NewReviewRepository(db)
	interferenceRepo := repository.NewInterferenceRepository(db)

	profile := NewProfileService(levelRepo, reviewRepo, interferenceRepo, locker, db)
	assessment := NewAssessmentService(
		repository.NewAssessmentRepository(db),
		repository.NewQuestionRepository(db),
		levelRepo, gateway, profile, policy, locker, db,
	)
	review := NewReviewService(reviewRepo, levelRepo, profile, policy, locker, db)
	interference := NewInterferenceService(interferenceRepo, gateway, nil, policy, locker, db)

	return &testEnv{
		db:           db,
		policy:       policy,
		locker:       locker,
		assessment:   assessment,
		review:       review,
		profile:      profile,
		interference: interference,
		levelRepo:    levelRepo,
		reviewRepo:   reviewRepo,
	}
}

func seedLearner(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user := &model.User{
		Name:           "小明",
		Email:          "xiaoming@example.com",
		Password:       "hashed",
		Role:           model.Student,
		NativeLanguage: "zh",
		TargetLanguage: "en",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPlacementQuestions(t *testing.T, db *gorm.DB) []model.Question {
	t.Helper()
	levels := []string{model.LevelA1, model.LevelA2, model.LevelB1, model.LevelB2, model.LevelC1}
	qs := make([]model.Question, 0, len(levels))
	for i, level := range levels {
		q := model.Question{
			Phase:   model.PhasePlacement,
			Level:   level,
			Prompt:  "placement question",
			Answer:  "correct",
			Order:   i + 1,
			Enabled: true,
		}
		require.NoError(t, db.Create(&q).Error)
		qs = append(qs, q)
	}
	return qs
}

func seedDiagnosticQuestions(t *testing.T, db *gorm.DB, levels ...string) []model.Question {
	t.Helper()
	var qs []model.Question
	order := 1
	for _, level := range levels {
		for _, skill := range model.TrackedSkills {
			q := model.Question{
				Phase:   model.PhaseDiagnostic,
				Skill:   skill,
				Level:   level,
				Prompt:  "diagnostic question",
				Answer:  "correct",
				Order:   order,
				Enabled: true,
			}
			require.NoError(t, db.Create(&q).Error)
			qs = append(qs, q)
			order++
		}
	}
	return qs
}
