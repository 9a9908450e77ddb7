package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCEFRIndex(t *testing.T) {
	assert.Equal(t, 0, CEFRIndex(LevelA1))
	assert.Equal(t, 5, CEFRIndex(LevelC2))
	assert.Equal(t, -1, CEFRIndex("D1"))
	assert.Equal(t, -1, CEFRIndex(""))
}

func TestBracketBounds(t *testing.T) {
	lo, hi, ok := BracketBounds("B1-B2")
	assert.True(t, ok)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 3, hi)

	_, _, ok = BracketBounds("B2-B1")
	assert.False(t, ok, "倒置区间无效")
	_, _, ok = BracketBounds("X1-X2")
	assert.False(t, ok)
}

func TestSnapshotSkillLevel(t *testing.T) {
	b2 := LevelB2
	snap := LevelSnapshot{Grammar: &b2}
	assert.Equal(t, LevelB2, snap.SkillLevel(SkillGrammar))
	assert.Equal(t, "", snap.SkillLevel(SkillWriting), "未评估技能返回空串")
}
