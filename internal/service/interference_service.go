package service

import (
	"strings"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type InterferenceService struct {
	Repo    *repository.InterferenceRepository
	Gateway *ScoringGateway
	Samples *SampleService
	Policy  *PolicyStore
	Locker  *util.LearnerLocker
	DB      *gorm.DB
}

func NewInterferenceService(repo *repository.InterferenceRepository, gateway *ScoringGateway,
	samples *SampleService, policy *PolicyStore, locker *util.LearnerLocker, db *gorm.DB) *InterferenceService {
	return &InterferenceService{
		Repo:    repo,
		Gateway: gateway,
		Samples: samples,
		Policy:  policy,
		Locker:  locker,
		DB:      db,
	}
}

type AnalyzeRequest struct {
	Text string `json:"text" binding:"required"`
}

type AnalyzeResult struct {
	Findings    []InterferenceFinding       `json:"findings"`
	CorrectUses []InterferenceFinding       `json:"correctUses"`
	Patterns    []model.InterferencePattern `json:"patterns"`
	Degraded    bool                        `json:"degraded"`
}

// Analyze 分析自由文本中的母语干扰。评分走网关（限时、可降级），
// 在学习者锁之外调用；锁内一个事务完成模式的合并写入：
//   - 检出已有模式：occurrences +1、刷新 last_seen、连对清零，不产生新行；
//   - 检出 overcome 状态的模式：重新打开，occurrences 继续累加；
//   - 正确用法命中 exhibited 模式：连对 +1，达到阈值转 overcome。
func (s *InterferenceService) Analyze(learnerID uint, text, nativeLanguage string) (*AnalyzeResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, util.ErrEmptyText
	}

	score := s.Gateway.ScoreFreeText(&FreeTextScoreRequest{
		LearnerID:      learnerID,
		Text:           text,
		NativeLanguage: nativeLanguage,
	})

	streak := s.Policy.Get().Interference.OvercomeStreak
	now := time.Now()

	s.Locker.Lock(learnerID)
	var touched []model.InterferencePattern
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for _, f := range score.Findings {
			p, err := s.recordFinding(tx, learnerID, f, now)
			if err != nil {
				return err
			}
			touched = append(touched, *p)
		}
		for _, f := range score.CorrectUses {
			p, err := s.recordCorrectUse(tx, learnerID, f, streak, now)
			if err != nil {
				return err
			}
			if p != nil {
				touched = append(touched, *p)
			}
		}
		return nil
	})
	s.Locker.Unlock(learnerID)
	if err != nil {
		return nil, err
	}

	// 写作样本归档走对象存储，失败不影响分析结果
	if s.Samples != nil {
		go func() {
			if err := s.Samples.ArchiveText(learnerID, text); err != nil {
				logger.Log.Warn("writing sample archive failed",
					zap.Uint("learnerId", learnerID), zap.Error(err))
			}
		}()
	}

	return &AnalyzeResult{
		Findings:    score.Findings,
		CorrectUses: score.CorrectUses,
		Patterns:    touched,
		Degraded:    score.Degraded,
	}, nil
}

func (s *InterferenceService) recordFinding(tx *gorm.DB, learnerID uint, f InterferenceFinding, now time.Time) (*model.InterferencePattern, error) {
	p, err := s.Repo.FindByKey(tx, learnerID, f.Category, f.Detail)
	if err == gorm.ErrRecordNotFound {
		p = &model.InterferencePattern{
			LearnerID:   learnerID,
			Category:    f.Category,
			Detail:      f.Detail,
			Status:      model.InterferenceExhibited,
			Occurrences: 1,
			FirstSeenAt: now,
			LastSeenAt:  now,
		}
		return p, s.Repo.Create(tx, p)
	}
	if err != nil {
		return nil, err
	}

	p.Occurrences++
	p.LastSeenAt = now
	p.CorrectStreak = 0
	if p.Status == model.InterferenceOvercome {
		p.Status = model.InterferenceExhibited
		p.OvercomeAt = nil
	}
	return p, s.Repo.Save(tx, p)
}

// recordCorrectUse 只对已检出且未克服的模式累计连对；从未检出过的正确用法不建行
func (s *InterferenceService) recordCorrectUse(tx *gorm.DB, learnerID uint, f InterferenceFinding, streak int, now time.Time) (*model.InterferencePattern, error) {
	p, err := s.Repo.FindByKey(tx, learnerID, f.Category, f.Detail)
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Status != model.InterferenceExhibited {
		return nil, nil
	}

	p.CorrectStreak++
	if streak > 0 && p.CorrectStreak >= streak {
		p.Status = model.InterferenceOvercome
		p.OvercomeAt = &now
	}
	return p, s.Repo.Save(tx, p)
}

// MarkOvercome 教师侧人工标记某个模式已克服。
// 整行回写，必须在锁内读取最新行，否则会把并发分析刚累加的
// occurrences/last_seen 用旧值盖掉
func (s *InterferenceService) MarkOvercome(learnerID, patternID uint) (*model.InterferencePattern, error) {
	s.Locker.Lock(learnerID)
	defer s.Locker.Unlock(learnerID)

	p, err := s.Repo.FindByID(patternID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrPatternNotFound
		}
		return nil, err
	}
	if p.LearnerID != learnerID {
		return nil, util.ErrPatternNotFound
	}
	if p.Status == model.InterferenceOvercome {
		return p, nil
	}

	now := time.Now()
	p.Status = model.InterferenceOvercome
	p.OvercomeAt = &now
	if err := s.Repo.Save(nil, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Summary 学习者全部干扰模式，最近出现的排前
func (s *InterferenceService) Summary(learnerID uint) ([]model.InterferencePattern, error) {
	return s.Repo.ListByLearner(learnerID)
}
