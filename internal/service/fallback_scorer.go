package service

import (
	"context"
	"regexp"
	"strings"
)

// fallbackQuality 本地评分器的固定质量指标，低于 AI 正常返回值，
// 使降级结果的置信度随之下降
const fallbackQuality = 0.7

// FallbackScorer 本地确定性评分器。纯函数且全域：任何合法输入都产出结果，
// 从不报错，保证外部评分依赖失效时系统仍然可用。
type FallbackScorer struct{}

func NewFallbackScorer() *FallbackScorer {
	return &FallbackScorer{}
}

// ScoreDiagnostic 按题库标准答案逐题比对，统计各技能正确率
func (s *FallbackScorer) ScoreDiagnostic(_ context.Context, req *DiagnosticScoreRequest) (*DiagnosticScore, error) {
	correct := make(map[string]int)
	total := make(map[string]int)
	for _, ans := range req.Answers {
		total[ans.Skill]++
		if strings.EqualFold(strings.TrimSpace(ans.Given), strings.TrimSpace(ans.Expected)) {
			correct[ans.Skill]++
		}
	}

	scores := make(map[string]float64, len(total))
	for skill, n := range total {
		if n > 0 {
			scores[skill] = float64(correct[skill]) / float64(n)
		}
	}

	return &DiagnosticScore{
		SkillScores: scores,
		Quality:     fallbackQuality,
	}, nil
}

// interferenceRule 母语干扰的规则行：trigger 命中记一次干扰，
// correct 命中记一次正确用法信号
type interferenceRule struct {
	category string
	detail   string
	trigger  *regexp.Regexp
	correct  *regexp.Regexp
}

// 汉语母语者学英语的高频干扰模式
var interferenceRules = []interferenceRule{
	{
		category: "verb-tense",
		detail:   "missing-past-marker",
		trigger:  regexp.MustCompile(`(?i)\b(yesterday|last\s+(week|night|month|year)|ago)\b[^.!?]*\b(go|eat|come|see|take|make|get|buy|have)\b`),
		correct:  regexp.MustCompile(`(?i)\b(yesterday|last\s+(week|night|month|year)|ago)\b[^.!?]*\b(went|ate|came|saw|took|made|got|bought|had)\b`),
	},
	{
		category: "article",
		detail:   "missing-article",
		trigger:  regexp.MustCompile(`(?i)\b(am|is|are|was|were)\s+(student|teacher|doctor|engineer|nurse)\b`),
		correct:  regexp.MustCompile(`(?i)\b(am|is|are|was|were)\s+(a|an)\s+(student|teacher|doctor|engineer|nurse)\b`),
	},
	{
		category: "plural",
		detail:   "missing-plural-marker",
		trigger:  regexp.MustCompile(`(?i)\b(two|three|four|five|many|several)\s+(book|apple|friend|car|dog|cat|idea|question)\b([^s]|$)`),
		correct:  regexp.MustCompile(`(?i)\b(two|three|four|five|many|several)\s+\w+s\b`),
	},
	{
		category: "word-order",
		detail:   "adverb-before-verb",
		trigger:  regexp.MustCompile(`(?i)\b(i|we|they|he|she)\s+(very|really)\s+(like|love|enjoy|want|need)\b`),
		correct:  regexp.MustCompile(`(?i)\b(like|love|enjoy|want|need)\b[^.!?]*\bvery much\b`),
	},
}

// ScoreFreeText 规则表匹配。同一输入永远产出同一结果。
func (s *FallbackScorer) ScoreFreeText(_ context.Context, req *FreeTextScoreRequest) (*FreeTextScore, error) {
	score := &FreeTextScore{
		Findings:    []InterferenceFinding{},
		CorrectUses: []InterferenceFinding{},
		Quality:     fallbackQuality,
	}

	for _, rule := range interferenceRules {
		finding := InterferenceFinding{Category: rule.category, Detail: rule.detail}
		switch {
		case rule.trigger.MatchString(req.Text):
			score.Findings = append(score.Findings, finding)
		case rule.correct.MatchString(req.Text):
			score.CorrectUses = append(score.CorrectUses, finding)
		}
	}

	return score, nil
}
