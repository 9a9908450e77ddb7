package service

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// diagnosticPerSkill 每项技能的诊断题数量上限
const diagnosticPerSkill = 2

type AssessmentService struct {
	Repo      *repository.AssessmentRepository
	Questions *repository.QuestionRepository
	Levels    *repository.LevelRepository
	Gateway   *ScoringGateway
	Profile   *ProfileService
	Policy    *PolicyStore
	Locker    *util.LearnerLocker
	DB        *gorm.DB
}

func NewAssessmentService(repo *repository.AssessmentRepository, questions *repository.QuestionRepository,
	levels *repository.LevelRepository, gateway *ScoringGateway, profile *ProfileService,
	policy *PolicyStore, locker *util.LearnerLocker, db *gorm.DB) *AssessmentService {
	return &AssessmentService{
		Repo:      repo,
		Questions: questions,
		Levels:    levels,
		Gateway:   gateway,
		Profile:   profile,
		Policy:    policy,
		Locker:    locker,
		DB:        db,
	}
}

type StartAssessmentResult struct {
	Assessment *model.Assessment `json:"assessment"`
	Questions  []model.Question  `json:"questions"`
}

// Start 开始一次新测评，下发定级题集（5 题，覆盖 CEFR 全谱）。
// 一个学习者可以多次测评，每次都是独立的状态机。
func (s *AssessmentService) Start(learnerID uint) (*StartAssessmentResult, error) {
	questions, err := s.Questions.ListPlacement()
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, util.ErrQuestionBankEmpty
	}

	assessment := &model.Assessment{
		LearnerID: learnerID,
		Status:    model.AssessmentPlacementPending,
	}
	if err := s.Repo.Create(assessment); err != nil {
		return nil, err
	}

	return &StartAssessmentResult{Assessment: assessment, Questions: questions}, nil
}

type SubmittedAnswer struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	Answer     string `json:"answer"`
}

type PlacementResult struct {
	Assessment *model.Assessment `json:"assessment"`
	Bracket    string            `json:"bracket"`
	Questions  []model.Question  `json:"questions"`
}

// SubmitPlacement 提交定级作答。答对数查策略表得到 CEFR 区间，
// 状态推进到 diagnostic_pending 并下发区间内的诊断题集。
// 重复提交返回状态冲突，不产生任何写入。
func (s *AssessmentService) SubmitPlacement(learnerID, assessmentID uint, answers []SubmittedAnswer) (*PlacementResult, error) {
	assessment, err := s.findOwned(learnerID, assessmentID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(assessment, model.AssessmentPlacementPending); err != nil {
		return nil, err
	}

	questions, err := s.Questions.ListPlacement()
	if err != nil {
		return nil, err
	}
	given, err := matchAnswers(questions, answers)
	if err != nil {
		return nil, err
	}

	correct := 0
	for _, q := range questions {
		if answerMatches(given[q.ID], q.Answer) {
			correct++
		}
	}

	policy := s.Policy.Get().Assessment
	bracket := policy.BracketFor(correct)
	if _, _, ok := model.BracketBounds(bracket); !ok {
		return nil, util.ErrAssessmentState
	}

	s.Locker.Lock(learnerID)
	defer s.Locker.Unlock(learnerID)

	// 锁内复核状态，并发重复提交只有一个能通过
	assessment, err = s.Repo.FindByID(assessmentID)
	if err != nil {
		return nil, util.ErrAssessmentNotFound
	}
	if err := requireStatus(assessment, model.AssessmentPlacementPending); err != nil {
		return nil, err
	}

	diagnostic, err := s.diagnosticSet(bracket)
	if err != nil {
		return nil, err
	}
	// 下发的诊断题集随测评落库，诊断作答只接受题集内的题目
	issued := make([]uint, 0, len(diagnostic))
	for _, q := range diagnostic {
		issued = append(issued, q.ID)
	}
	issuedJSON, err := json.Marshal(issued)
	if err != nil {
		return nil, err
	}

	assessment.Status = model.AssessmentDiagnosticPending
	assessment.Bracket = bracket
	assessment.PlacementScore = correct
	assessment.IssuedQuestions = issuedJSON
	if err := s.Repo.Save(assessment); err != nil {
		return nil, err
	}

	return &PlacementResult{Assessment: assessment, Bracket: bracket, Questions: diagnostic}, nil
}

// diagnosticSet 区间内两个等级的诊断题，每项技能最多取两题
func (s *AssessmentService) diagnosticSet(bracket string) ([]model.Question, error) {
	lo, hi, _ := model.BracketBounds(bracket)
	levels := []string{}
	for i := lo; i <= hi; i++ {
		levels = append(levels, model.CEFRLadder[i])
	}

	all, err := s.Questions.ListDiagnosticByLevels(levels)
	if err != nil {
		return nil, err
	}

	perSkill := map[string]int{}
	picked := make([]model.Question, 0, diagnosticPerSkill*len(model.TrackedSkills))
	for _, q := range all {
		if perSkill[q.Skill] >= diagnosticPerSkill {
			continue
		}
		perSkill[q.Skill]++
		picked = append(picked, q)
	}
	return picked, nil
}

type AssessmentOutcome struct {
	Assessment   *model.Assessment `json:"assessment"`
	OverallLevel string            `json:"overallLevel"`
	SkillLevels  map[string]string `json:"skillLevels"`
	Confidence   float64           `json:"confidence"`
	Degraded     bool              `json:"degraded"`
}

// SubmitDiagnostic 提交诊断作答并完成测评。
// 评分走网关（限时、可降级），在学习者锁之外调用；
// 锁内一个事务完成测评收尾与等级快照追加，保证每次测评至多产生一条快照。
func (s *AssessmentService) SubmitDiagnostic(learnerID, assessmentID uint, answers []SubmittedAnswer) (*AssessmentOutcome, error) {
	assessment, err := s.findOwned(learnerID, assessmentID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(assessment, model.AssessmentDiagnosticPending); err != nil {
		return nil, err
	}

	scoreReq, err := s.buildScoreRequest(learnerID, assessment, answers)
	if err != nil {
		return nil, err
	}

	score := s.Gateway.ScoreDiagnostic(scoreReq)

	policy := s.Policy.Get().Assessment
	skillLevels, overall := mapSkillLevels(assessment.Bracket, score.SkillScores, policy.SublevelCutoffs)
	confidence := scoreConfidence(score)

	breakdown, err := json.Marshal(skillLevels)
	if err != nil {
		return nil, err
	}

	s.Locker.Lock(learnerID)

	assessment, err = s.Repo.FindByID(assessmentID)
	if err != nil {
		s.Locker.Unlock(learnerID)
		return nil, util.ErrAssessmentNotFound
	}
	if err := requireStatus(assessment, model.AssessmentDiagnosticPending); err != nil {
		s.Locker.Unlock(learnerID)
		return nil, err
	}

	now := time.Now()
	snap := &model.LevelSnapshot{
		LearnerID:    learnerID,
		OverallLevel: overall,
		Confidence:   confidence,
		Source:       model.SnapshotSourceAssessment,
		AssessmentID: &assessment.ID,
		RecordedAt:   now,
	}
	applySkillLevels(snap, skillLevels)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		assessment.Status = model.AssessmentCompleted
		assessment.FinalLevel = overall
		assessment.SkillBreakdown = breakdown
		assessment.Confidence = confidence
		assessment.Degraded = score.Degraded
		assessment.CompletedAt = &now
		if err := tx.Save(assessment).Error; err != nil {
			return err
		}
		return s.Levels.CreateSnapshot(tx, snap)
	})
	s.Locker.Unlock(learnerID)
	if err != nil {
		return nil, err
	}
	// 事务已提交，快照才允许进缓存
	s.Levels.CacheCurrent(snap)

	// 画像重算自己取锁，必须在解锁之后执行；
	// 重算失败只记日志，测评结果已提交不回滚
	if _, err := s.Profile.Recompute(learnerID, model.TriggerAssessment); err != nil {
		logger.Log.Error("post-assessment profile recompute failed",
			zap.Uint("learnerId", learnerID), zap.Error(err))
	}

	return &AssessmentOutcome{
		Assessment:   assessment,
		OverallLevel: overall,
		SkillLevels:  skillLevels,
		Confidence:   confidence,
		Degraded:     score.Degraded,
	}, nil
}

// buildScoreRequest 作答校验并补齐题库标准答案与技能标签。
// 只接受定级阶段实际下发的诊断题：诊断阶段任意题库题都能提交的话，
// 区间外等级的题目会混进评分
func (s *AssessmentService) buildScoreRequest(learnerID uint, assessment *model.Assessment, answers []SubmittedAnswer) (*DiagnosticScoreRequest, error) {
	if len(answers) == 0 {
		return nil, util.ErrQuestionSetMismatch
	}

	issued := map[uint]bool{}
	if len(assessment.IssuedQuestions) > 0 {
		var issuedIDs []uint
		if err := json.Unmarshal(assessment.IssuedQuestions, &issuedIDs); err != nil {
			return nil, err
		}
		for _, id := range issuedIDs {
			issued[id] = true
		}
	}

	ids := make([]uint, 0, len(answers))
	seen := map[uint]bool{}
	for _, a := range answers {
		if seen[a.QuestionID] {
			return nil, util.ErrQuestionSetMismatch
		}
		if !issued[a.QuestionID] {
			return nil, util.ErrUnknownQuestion
		}
		seen[a.QuestionID] = true
		ids = append(ids, a.QuestionID)
	}

	questions, err := s.Questions.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := map[uint]model.Question{}
	for _, q := range questions {
		byID[q.ID] = q
	}

	req := &DiagnosticScoreRequest{LearnerID: learnerID, Bracket: assessment.Bracket}
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok || q.Phase != model.PhaseDiagnostic {
			return nil, util.ErrUnknownQuestion
		}
		req.Answers = append(req.Answers, DiagnosticAnswer{
			QuestionID: q.ID,
			Skill:      q.Skill,
			Given:      a.Answer,
			Expected:   q.Answer,
		})
	}
	return req, nil
}

// Latest 最近一次测评，没有时 exists=false
func (s *AssessmentService) Latest(learnerID uint) (*model.Assessment, bool, error) {
	a, err := s.Repo.LatestByLearner(learnerID)
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

func (s *AssessmentService) findOwned(learnerID, assessmentID uint) (*model.Assessment, error) {
	assessment, err := s.Repo.FindByID(assessmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}
	if assessment.LearnerID != learnerID {
		return nil, util.ErrAssessmentNotFound
	}
	return assessment, nil
}

func requireStatus(a *model.Assessment, want model.AssessmentStatus) error {
	switch {
	case a.Status == want:
		return nil
	case a.Status == model.AssessmentCompleted:
		return util.ErrAssessmentCompleted
	default:
		return util.ErrAssessmentState
	}
}

// matchAnswers 要求作答与题集一一对应：题数相等、无重复、无未知题
func matchAnswers(questions []model.Question, answers []SubmittedAnswer) (map[uint]string, error) {
	if len(answers) != len(questions) {
		return nil, util.ErrQuestionSetMismatch
	}
	valid := map[uint]bool{}
	for _, q := range questions {
		valid[q.ID] = true
	}
	given := map[uint]string{}
	for _, a := range answers {
		if !valid[a.QuestionID] {
			return nil, util.ErrUnknownQuestion
		}
		if _, dup := given[a.QuestionID]; dup {
			return nil, util.ErrQuestionSetMismatch
		}
		given[a.QuestionID] = a.Answer
	}
	return given, nil
}

func answerMatches(given, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(expected))
}

// mapSkillLevels 技能得分 → 区间内子等级。得分越过的分界数决定在区间内的位置，
// 越界处钳制到区间上界；总体等级取各技能序号均值四舍五入。
func mapSkillLevels(bracket string, scores map[string]float64, cutoffs []float64) (map[string]string, string) {
	lo, hi, ok := model.BracketBounds(bracket)
	if !ok {
		lo, hi = 0, len(model.CEFRLadder)-1
	}

	levels := map[string]string{}
	sum, n := 0, 0
	for _, skill := range model.TrackedSkills {
		score, answered := scores[skill]
		if !answered {
			continue
		}
		idx := lo
		for _, c := range cutoffs {
			if score >= c {
				idx++
			}
		}
		if idx > hi {
			idx = hi
		}
		levels[skill] = model.CEFRLadder[idx]
		sum += idx
		n++
	}

	overall := model.CEFRLadder[lo]
	if n > 0 {
		overall = model.CEFRLadder[int(math.Round(float64(sum)/float64(n)))]
	}
	return levels, overall
}

// scoreConfidence 置信度 = 技能覆盖率 × 评分质量。
// 降级评分的质量指标天然更低，置信度随之下降但结果依旧可用。
func scoreConfidence(score *DiagnosticScore) float64 {
	covered := 0
	for _, skill := range model.TrackedSkills {
		if _, ok := score.SkillScores[skill]; ok {
			covered++
		}
	}
	coverage := float64(covered) / float64(len(model.TrackedSkills))
	return math.Round(coverage*score.Quality*100) / 100
}

func applySkillLevels(snap *model.LevelSnapshot, levels map[string]string) {
	for skill, level := range levels {
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
}
