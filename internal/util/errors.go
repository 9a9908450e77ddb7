package util

import "errors"

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrAssessmentNotFound  = errors.New("assessment not found")
	ErrAssessmentState     = errors.New("assessment is not in the expected state")
	ErrAssessmentCompleted = errors.New("assessment already completed")
	ErrQuestionSetMismatch = errors.New("answer set does not match the question set")
	ErrUnknownQuestion     = errors.New("unknown question id")
	ErrInvalidQuality      = errors.New("review quality must be between 0 and 5")
	ErrInvalidItemType     = errors.New("unknown reviewable item type")
	ErrEmptyText           = errors.New("text must not be empty")
	ErrItemNotFound        = errors.New("reviewable item not found")
	ErrPatternNotFound     = errors.New("interference pattern not found")
	ErrQuestionBankEmpty   = errors.New("question bank has no questions for this phase")
)
