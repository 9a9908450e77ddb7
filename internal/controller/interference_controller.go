package controller

import (
	"errors"

	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type InterferenceController struct {
	Service     *service.InterferenceService
	AuthService *service.AuthService
}

func NewInterferenceController(svc *service.InterferenceService, authService *service.AuthService) *InterferenceController {
	return &InterferenceController{Service: svc, AuthService: authService}
}

// Analyze godoc
// @Summary 分析自由文本中的母语干扰
// @Description 检出的模式按(类别,细节)合并：重复出现只累加次数，连续正确达到阈值转为已克服
// @Tags 母语干扰
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.AnalyzeRequest true "自由文本"
// @Success 200 {object} util.Response{data=service.AnalyzeResult} "成功"
// @Failure 400 {object} util.Response "文本为空"
// @Router /api/interference/analyze [post]
func (c *InterferenceController) Analyze(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.AnalyzeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	native := "zh"
	if u := c.AuthService.GetCurrentUser(ctx); u != nil {
		native = u.NativeLanguage
	}

	result, err := c.Service.Analyze(user.UserID, req.Text, native)
	if err != nil {
		if errors.Is(err, util.ErrEmptyText) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// Summary godoc
// @Summary 获取干扰模式汇总
// @Description 全部干扰模式，最近出现的排前
// @Tags 母语干扰
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.InterferencePattern} "成功"
// @Router /api/interference [get]
func (c *InterferenceController) Summary(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	patterns, err := c.Service.Summary(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, patterns)
}

// MarkOvercome godoc
// @Summary 手动标记干扰模式已克服
// @Tags 母语干扰
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "模式ID"
// @Success 200 {object} util.Response{data=model.InterferencePattern} "成功"
// @Failure 404 {object} util.Response "模式不存在"
// @Router /api/interference/{id}/overcome [post]
func (c *InterferenceController) MarkOvercome(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	pattern, err := c.Service.MarkOvercome(user.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, util.ErrPatternNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, pattern)
}
