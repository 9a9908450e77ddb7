package controller

import (
	"errors"

	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	Service *service.AssessmentService
}

func NewAssessmentController(svc *service.AssessmentService) *AssessmentController {
	return &AssessmentController{Service: svc}
}

// Start godoc
// @Summary 开始一次新测评
// @Description 创建测评并下发定级题集（5题，覆盖CEFR全谱，答案不下发）
// @Tags 测评
// @Produce  json
// @Security BearerAuth
// @Success 201 {object} util.Response{data=service.StartAssessmentResult} "创建成功"
// @Failure 401 {object} util.Response "未授权"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/assessments [post]
func (c *AssessmentController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.Service.Start(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, result)
}

// SubmitAnswersRequest 作答提交
// swagger:model SubmitAnswersRequest
type SubmitAnswersRequest struct {
	Answers []service.SubmittedAnswer `json:"answers" binding:"required"`
}

// SubmitPlacement godoc
// @Summary 提交定级作答
// @Description 答对数映射到CEFR区间，状态推进并下发诊断题集；重复提交返回409
// @Tags 测评
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测评ID"
// @Param   body body SubmitAnswersRequest true "定级作答"
// @Success 200 {object} util.Response{data=service.PlacementResult} "成功"
// @Failure 400 {object} util.Response "作答与题集不匹配"
// @Failure 404 {object} util.Response "测评不存在"
// @Failure 409 {object} util.Response "状态冲突"
// @Router /api/assessments/{id}/placement [post]
func (c *AssessmentController) SubmitPlacement(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitAnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.SubmitPlacement(user.UserID, util.MustParseUint(ctx.Param("id")), req.Answers)
	if err != nil {
		respondAssessmentError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// SubmitDiagnostic godoc
// @Summary 提交诊断作答并完成测评
// @Description 评分限时完成，外部评分不可用时自动降级并打上degraded标记；重复提交返回409
// @Tags 测评
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测评ID"
// @Param   body body SubmitAnswersRequest true "诊断作答"
// @Success 200 {object} util.Response{data=service.AssessmentOutcome} "成功"
// @Failure 400 {object} util.Response "作答与题集不匹配"
// @Failure 404 {object} util.Response "测评不存在"
// @Failure 409 {object} util.Response "状态冲突"
// @Router /api/assessments/{id}/diagnostic [post]
func (c *AssessmentController) SubmitDiagnostic(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitAnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.SubmitDiagnostic(user.UserID, util.MustParseUint(ctx.Param("id")), req.Answers)
	if err != nil {
		respondAssessmentError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// Latest godoc
// @Summary 获取最近一次测评
// @Tags 测评
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Assessment} "成功"
// @Failure 404 {object} util.Response "尚无测评"
// @Router /api/assessments/latest [get]
func (c *AssessmentController) Latest(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	assessment, exists, err := c.Service.Latest(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !exists {
		util.NotFound(ctx)
		return
	}

	util.Success(ctx, assessment)
}

// respondAssessmentError 测评错误 → HTTP 状态码
func respondAssessmentError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAssessmentNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAssessmentCompleted), errors.Is(err, util.ErrAssessmentState):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrQuestionSetMismatch), errors.Is(err, util.ErrUnknownQuestion),
		errors.Is(err, util.ErrQuestionBankEmpty):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
