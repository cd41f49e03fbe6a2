package controller

import (
	"medqcm_backend/internal/service"
	"medqcm_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Service *service.ProgressService
}

func NewProgressController(svc *service.ProgressService) *ProgressController {
	return &ProgressController{Service: svc}
}

// @Summary Overall and per-module progress for the current user
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /progress/mine [get]
func (c *ProgressController) MyProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.Service.MyProgress(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}
