package model

// CEFR 六级能力等级，自低到高
const (
	LevelA1 = "A1"
	LevelA2 = "A2"
	LevelB1 = "B1"
	LevelB2 = "B2"
	LevelC1 = "C1"
	LevelC2 = "C2"
)

// CEFRLadder 等级阶梯，索引即等级序号
var CEFRLadder = []string{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// CEFRIndex 返回等级在阶梯中的序号，未知等级返回 -1
func CEFRIndex(level string) int {
	for i, l := range CEFRLadder {
		if l == level {
			return i
		}
	}
	return -1
}

// 五项跟踪技能
const (
	SkillGrammar    = "grammar"
	SkillVocabulary = "vocabulary"
	SkillReading    = "reading"
	SkillSpeaking   = "speaking"
	SkillWriting    = "writing"
)

var TrackedSkills = []string{SkillGrammar, SkillVocabulary, SkillReading, SkillSpeaking, SkillWriting}

// BracketBounds 解析 "B1-B2" 这类 CEFR 区间，返回上下界在阶梯中的序号
func BracketBounds(bracket string) (lo, hi int, ok bool) {
	for i := range CEFRLadder {
		for j := i; j < len(CEFRLadder); j++ {
			if CEFRLadder[i]+"-"+CEFRLadder[j] == bracket {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func IsTrackedSkill(skill string) bool {
	for _, s := range TrackedSkills {
		if s == skill {
			return true
		}
	}
	return false
}
