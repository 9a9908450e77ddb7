package controller

import (
	"errors"

	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	Service *service.ReviewService
}

func NewReviewController(svc *service.ReviewService) *ReviewController {
	return &ReviewController{Service: svc}
}

// CreateItem godoc
// @Summary 新建可复习条目
// @Description 生词卡或原子知识点首次曝光建卡，立即进入待复习队列
// @Tags 间隔复习
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CreateItemRequest true "条目信息"
// @Success 201 {object} util.Response{data=model.ReviewableItem} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/review/items [post]
func (c *ReviewController) CreateItem(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	item, err := c.Service.CreateItem(user.UserID, req)
	if err != nil {
		if errors.Is(err, util.ErrInvalidItemType) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, item)
}

// SubmitReviewRequest 复习结果
// swagger:model SubmitReviewRequest
type SubmitReviewRequest struct {
	Quality *int `json:"quality" binding:"required"`
}

// SubmitReview godoc
// @Summary 提交复习结果
// @Description 按记忆质量（0~5）推进排期：低质量回到1天重学，高质量间隔增长
// @Tags 间隔复习
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "条目ID"
// @Param   body body SubmitReviewRequest true "记忆质量"
// @Success 200 {object} util.Response{data=service.ReviewOutcome} "成功"
// @Failure 400 {object} util.Response "质量取值越界"
// @Failure 404 {object} util.Response "条目不存在"
// @Router /api/review/items/{id}/review [post]
func (c *ReviewController) SubmitReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Quality == nil {
		util.BadRequest(ctx, "quality is required")
		return
	}

	outcome, err := c.Service.SubmitReview(user.UserID, util.MustParseUint(ctx.Param("id")), *req.Quality)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrItemNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidQuality):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, outcome)
}

// Due godoc
// @Summary 获取待复习条目
// @Description 到期条目按最久到期优先排序
// @Tags 间隔复习
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.ReviewableItem} "成功"
// @Router /api/review/due [get]
func (c *ReviewController) Due(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	items, err := c.Service.Due(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, items)
}

// ListItems godoc
// @Summary 获取全部复习条目
// @Tags 间隔复习
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.ReviewableItem} "成功"
// @Router /api/review/items [get]
func (c *ReviewController) ListItems(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	items, err := c.Service.ListItems(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, items)
}
