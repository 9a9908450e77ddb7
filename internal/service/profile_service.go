package service

import (
	"encoding/json"
	"math"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"

	"gorm.io/gorm"
)

// strongQualityFloor 平均复习质量达到该值且样本足够时，视为该技能已超出当前子等级
const strongQualityFloor = 4.5

// skillBumpMinReviews 单技能触发子等级上调所需的最小复习样本量
const skillBumpMinReviews = 10

type ProfileService struct {
	LevelRepo        *repository.LevelRepository
	ReviewRepo       *repository.ReviewRepository
	InterferenceRepo *repository.InterferenceRepository
	Locker           *util.LearnerLocker
	DB               *gorm.DB
}

func NewProfileService(levelRepo *repository.LevelRepository, reviewRepo *repository.ReviewRepository,
	interferenceRepo *repository.InterferenceRepository, locker *util.LearnerLocker, db *gorm.DB) *ProfileService {
	return &ProfileService{
		LevelRepo:        levelRepo,
		ReviewRepo:       reviewRepo,
		InterferenceRepo: interferenceRepo,
		Locker:           locker,
		DB:               db,
	}
}

// Recompute 重算学习DNA画像并追加一个新版本。
// 在学习者锁内执行：版本号由仓储层在同一事务内分配，保证按学习者连续递增。
// recompute/manual 触发下若推导出的技能子等级相比最新快照发生变化，
// 额外追加一条对应来源的等级快照（assessment 来源的快照由测评流程自己写）。
func (s *ProfileService) Recompute(learnerID uint, trigger model.ProfileTrigger) (*model.LearningDnaProfile, error) {
	s.Locker.Lock(learnerID)
	defer s.Locker.Unlock(learnerID)

	now := time.Now()

	latestSnap, err := s.LevelRepo.LatestSnapshot(learnerID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	since := time.Time{}
	if prev, err := s.LevelRepo.LatestProfile(learnerID); err == nil {
		since = prev.CreatedAt
	}

	logs, err := s.ReviewRepo.ListLogsSince(learnerID, since)
	if err != nil {
		return nil, err
	}

	open, err := s.InterferenceRepo.ListExhibited(learnerID)
	if err != nil {
		return nil, err
	}

	derived := deriveSnapshot(latestSnap, logs, trigger, now)
	payload := buildDnaPayload(coalesceSnapshot(derived, latestSnap), logs, len(open), since, now)

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	profile := &model.LearningDnaProfile{
		LearnerID:    learnerID,
		TriggerEvent: trigger,
		Payload:      raw,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if derived != nil {
			if err := s.LevelRepo.CreateSnapshot(tx, derived); err != nil {
				return err
			}
		}
		return s.LevelRepo.CreateProfile(tx, profile)
	})
	if err != nil {
		return nil, err
	}
	if derived != nil {
		s.LevelRepo.CacheCurrent(derived)
	}
	return profile, nil
}

// coalesceSnapshot 画像推导以最新有效等级为准
func coalesceSnapshot(derived, latest *model.LevelSnapshot) *model.LevelSnapshot {
	if derived != nil {
		return derived
	}
	return latest
}

// deriveSnapshot 从复习表现推导技能子等级变化。
// 只在持续高质量复习（样本量与平均分双阈值）时把对应技能上调一个子等级，
// 没有任何变化时返回 nil，等级历史不产生冗余快照。
func deriveSnapshot(latest *model.LevelSnapshot, logs []model.ReviewLog, trigger model.ProfileTrigger, now time.Time) *model.LevelSnapshot {
	// assessment 触发的重算里快照已由测评流程写入，这里绝不重复追加
	if latest == nil || trigger == model.TriggerAssessment {
		return nil
	}

	bumped := map[string]string{}
	for skill, avg := range avgQualityBySkill(logs) {
		if avg.count < skillBumpMinReviews || avg.mean() < strongQualityFloor {
			continue
		}
		cur := latest.SkillLevel(skill)
		idx := model.CEFRIndex(cur)
		if idx < 0 || idx >= len(model.CEFRLadder)-1 {
			continue
		}
		bumped[skill] = model.CEFRLadder[idx+1]
	}
	if len(bumped) == 0 {
		return nil
	}

	source := model.SnapshotSourceRecompute
	if trigger == model.TriggerManual {
		source = model.SnapshotSourceManual
	}

	snap := &model.LevelSnapshot{
		LearnerID:    latest.LearnerID,
		OverallLevel: latest.OverallLevel,
		Grammar:      latest.Grammar,
		Vocabulary:   latest.Vocabulary,
		Reading:      latest.Reading,
		Speaking:     latest.Speaking,
		Writing:      latest.Writing,
		Confidence:   latest.Confidence,
		Source:       source,
		RecordedAt:   now,
	}
	for skill, level := range bumped {
		l := level
		switch skill {
		case model.SkillGrammar:
			snap.Grammar = &l
		case model.SkillVocabulary:
			snap.Vocabulary = &l
		case model.SkillReading:
			snap.Reading = &l
		case model.SkillSpeaking:
			snap.Speaking = &l
		case model.SkillWriting:
			snap.Writing = &l
		}
	}
	return snap
}

type qualityAgg struct {
	sum   int
	count int
}

func (a qualityAgg) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return float64(a.sum) / float64(a.count)
}

// avgQualityBySkill 复习质量按条目类型归集到技能：
// 生词卡反映词汇，知识点反映语法
func avgQualityBySkill(logs []model.ReviewLog) map[string]qualityAgg {
	agg := map[string]qualityAgg{}
	for _, log := range logs {
		var skill string
		switch log.ItemType {
		case model.ItemVocabularyCard:
			skill = model.SkillVocabulary
		case model.ItemLearningPoint:
			skill = model.SkillGrammar
		default:
			continue
		}
		a := agg[skill]
		a.sum += log.Quality
		a.count++
		agg[skill] = a
	}
	return agg
}

// buildDnaPayload 画像正文：强项/短板以总体等级为基线划分，
// 复习节奏取自上一版画像以来的流水，偏好模态取平均质量更高的条目类型
func buildDnaPayload(snap *model.LevelSnapshot, logs []model.ReviewLog, openInterference int, since, now time.Time) model.DnaPayload {
	payload := model.DnaPayload{
		Strengths:        []string{},
		Gaps:             []string{},
		OpenInterference: openInterference,
	}

	if snap != nil {
		payload.OverallLevel = snap.OverallLevel
		overall := model.CEFRIndex(snap.OverallLevel)
		for _, skill := range model.TrackedSkills {
			level := snap.SkillLevel(skill)
			if level == "" {
				continue
			}
			if model.CEFRIndex(level) >= overall {
				payload.Strengths = append(payload.Strengths, skill)
			} else {
				payload.Gaps = append(payload.Gaps, skill)
			}
		}
	}

	payload.ReviewsPerDay = reviewsPerDay(logs, since, now)
	payload.PreferredModality = preferredModality(logs)
	return payload
}

func reviewsPerDay(logs []model.ReviewLog, since, now time.Time) float64 {
	if len(logs) == 0 {
		return 0
	}
	window := since
	if window.IsZero() {
		window = logs[0].ReviewedAt
	}
	days := now.Sub(window).Hours() / 24
	if days < 1 {
		days = 1
	}
	return math.Round(float64(len(logs))/days*100) / 100
}

func preferredModality(logs []model.ReviewLog) string {
	var vocab, points qualityAgg
	for _, log := range logs {
		switch log.ItemType {
		case model.ItemVocabularyCard:
			vocab.sum += log.Quality
			vocab.count++
		case model.ItemLearningPoint:
			points.sum += log.Quality
			points.count++
		}
	}
	switch {
	case vocab.count == 0 && points.count == 0:
		return "balanced"
	case vocab.mean() > points.mean():
		return string(model.ItemVocabularyCard)
	case points.mean() > vocab.mean():
		return string(model.ItemLearningPoint)
	default:
		return "balanced"
	}
}

// CurrentLevel 当前等级查询，无任何快照时返回 exists=false
func (s *ProfileService) CurrentLevel(learnerID uint) (*model.LevelSnapshot, bool, error) {
	snap, err := s.LevelRepo.LatestSnapshot(learnerID)
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

func (s *ProfileService) LevelHistory(learnerID uint, limit int) ([]model.LevelSnapshot, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.LevelRepo.ListSnapshots(learnerID, limit)
}

// LatestProfile 最新画像，尚无画像时返回 exists=false
func (s *ProfileService) LatestProfile(learnerID uint) (*model.LearningDnaProfile, bool, error) {
	p, err := s.LevelRepo.LatestProfile(learnerID)
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (s *ProfileService) ProfileHistory(learnerID uint) ([]model.LearningDnaProfile, error) {
	return s.LevelRepo.ListProfiles(learnerID)
}
