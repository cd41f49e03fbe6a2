package controller

import (
	"medqcm_backend/internal/service"
	"medqcm_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ContentController serves the read-only quiz catalog to students.
type ContentController struct {
	Service *service.ContentService
}

func NewContentController(svc *service.ContentService) *ContentController {
	return &ContentController{Service: svc}
}

// @Summary Modules available to the current user's level
// @Tags content
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /modules/my [get]
func (c *ContentController) MyModules(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	if user.Level == "" {
		util.Error(ctx, 403, "account not activated (no level)")
		return
	}

	modules, err := c.Service.ModulesForLevel(user.Level)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, modules)
}

func pageParams(ctx *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit, _ = strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, _ = strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// @Summary Questions of a module, without answer keys
// @Tags content
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId query int true "module id"
// @Param limit query int false "page size" default(25)
// @Param offset query int false "page offset" default(0)
// @Success 200 {object} util.Response
// @Router /qcm [get]
func (c *ContentController) Questions(ctx *gin.Context) {
	moduleID := util.MustParseUint(ctx.Query("moduleId"))
	if moduleID == 0 {
		util.BadRequest(ctx, "moduleId is required")
		return
	}

	limit, offset := pageParams(ctx, util.DefaultQuestionPage, util.MaxQuestionPage)

	questions, err := c.Service.QuestionsForModule(moduleID, limit, offset)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, questions)
}
