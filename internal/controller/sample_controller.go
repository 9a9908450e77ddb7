package controller

import (
	"os"
	"path/filepath"

	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SampleController struct {
	Service *service.SampleService
}

func NewSampleController(svc *service.SampleService) *SampleController {
	return &SampleController{Service: svc}
}

// UploadSpeaking godoc
// @Summary 上传口语样本
// @Description 探测音频元数据后归档到对象存储
// @Tags 学习样本
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   file formData file true "音频文件"
// @Success 201 {object} util.Response{data=model.SpeakingSample} "创建成功"
// @Failure 400 {object} util.Response "文件缺失或不是有效音频"
// @Router /api/samples/speaking [post]
func (c *SampleController) UploadSpeaking(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	tmpPath := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(file.Filename))
	if err := ctx.SaveUploadedFile(file, tmpPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(tmpPath)

	sample, err := c.Service.UploadSpeaking(user.UserID, tmpPath, file.Filename)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Created(ctx, sample)
}

// ListSpeaking godoc
// @Summary 获取口语样本列表
// @Tags 学习样本
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.SpeakingSample} "成功"
// @Router /api/samples/speaking [get]
func (c *SampleController) ListSpeaking(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	samples, err := c.Service.ListSpeaking(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, samples)
}
