package controller

import (
	"strconv"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// LevelController 等级历史与学习DNA画像的查询入口，外加教师侧的手动重算
type LevelController struct {
	Service *service.ProfileService
}

func NewLevelController(svc *service.ProfileService) *LevelController {
	return &LevelController{Service: svc}
}

// Current godoc
// @Summary 获取当前CEFR等级
// @Description 当前等级是最新一条快照的投影，尚未测评时返回404
// @Tags 等级与画像
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.LevelSnapshot} "成功"
// @Failure 404 {object} util.Response "尚无等级记录"
// @Router /api/levels/current [get]
func (c *LevelController) Current(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	snap, exists, err := c.Service.CurrentLevel(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !exists {
		util.NotFound(ctx)
		return
	}

	util.Success(ctx, snap)
}

// History godoc
// @Summary 获取等级历史
// @Description 快照按时间倒序，只追加从不改写
// @Tags 等级与画像
// @Produce  json
// @Security BearerAuth
// @Param   limit query int false "返回条数，默认50"
// @Success 200 {object} util.Response{data=[]model.LevelSnapshot} "成功"
// @Router /api/levels/history [get]
func (c *LevelController) History(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	snaps, err := c.Service.LevelHistory(user.UserID, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, snaps)
}

// LatestProfile godoc
// @Summary 获取最新学习DNA画像
// @Tags 等级与画像
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.LearningDnaProfile} "成功"
// @Failure 404 {object} util.Response "尚无画像"
// @Router /api/profiles/latest [get]
func (c *LevelController) LatestProfile(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	profile, exists, err := c.Service.LatestProfile(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !exists {
		util.NotFound(ctx)
		return
	}

	util.Success(ctx, profile)
}

// ProfileHistory godoc
// @Summary 获取画像版本历史
// @Description 版本按学习者严格递增且连续
// @Tags 等级与画像
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.LearningDnaProfile} "成功"
// @Router /api/profiles/history [get]
func (c *LevelController) ProfileHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	profiles, err := c.Service.ProfileHistory(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, profiles)
}

// Recompute godoc
// @Summary 手动触发画像重算
// @Description 追加一个manual触发的画像版本
// @Tags 等级与画像
// @Produce  json
// @Security BearerAuth
// @Success 201 {object} util.Response{data=model.LearningDnaProfile} "创建成功"
// @Router /api/profiles/recompute [post]
func (c *LevelController) Recompute(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	profile, err := c.Service.Recompute(user.UserID, model.TriggerManual)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, profile)
}
