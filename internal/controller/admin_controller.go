package controller

import (
	"errors"
	"medqcm_backend/internal/model"
	"medqcm_backend/internal/service"
	"medqcm_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Service *service.AdminService
}

func NewAdminController(svc *service.AdminService) *AdminController {
	return &AdminController{Service: svc}
}

// @Summary List users by level with per-level counts
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param level query string false "academic level"
// @Success 200 {object} util.Response
// @Router /admin/users [get]
func (c *AdminController) ListUsers(ctx *gin.Context) {
	resp, err := c.Service.ListUsers(model.UserLevel(ctx.Query("level")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary Create a user with a dedicated subscription code
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateUserReq true "user"
// @Success 201 {object} util.Response
// @Router /admin/users [post]
func (c *AdminController) CreateUser(ctx *gin.Context) {
	var req service.CreateUserReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "email, password, level and code are required")
		return
	}

	user, err := c.Service.CreateUser(req)
	switch {
	case errors.Is(err, util.ErrDuplicateUser), errors.Is(err, util.ErrCodeTaken):
		util.Conflict(ctx, err.Error())
		return
	case errors.Is(err, util.ErrInvalidLevel):
		util.BadRequest(ctx, "invalid level")
		return
	case err != nil:
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"ok": true, "user": user})
}

type userStatusReq struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// @Summary Toggle a user's active flag
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "user id"
// @Param body body userStatusReq true "status"
// @Success 200 {object} util.Response
// @Router /admin/users/{id}/status [patch]
func (c *AdminController) SetUserStatus(ctx *gin.Context) {
	var req userStatusReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "isActive must be a boolean")
		return
	}

	user, err := c.Service.SetUserActive(util.MustParseUint(ctx.Param("id")), *req.IsActive)
	if errors.Is(err, util.ErrUserNotFound) {
		util.NotFound(ctx, "User not found")
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"ok": true, "user": user})
}

// @Summary User detail with attempt statistics
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "user id"
// @Success 200 {object} util.Response
// @Router /admin/users/{id} [get]
func (c *AdminController) UserDetail(ctx *gin.Context) {
	detail, err := c.Service.UserDetail(util.MustParseUint(ctx.Param("id")))
	if errors.Is(err, util.ErrUserNotFound) {
		util.NotFound(ctx, "User not found")
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

type promoteReq struct {
	Email string `json:"email" binding:"required,email"`
}

// @Summary Grant admin rights by email
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body promoteReq true "email"
// @Success 200 {object} util.Response
// @Router /admin/users/promote [post]
func (c *AdminController) PromoteUser(ctx *gin.Context) {
	var req promoteReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "email is required")
		return
	}

	user, err := c.Service.PromoteUser(req.Email)
	if errors.Is(err, util.ErrUserNotFound) {
		util.NotFound(ctx, "User not found")
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"ok": true, "user": user})
}

// @Summary Create or reactivate a module
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ModuleReq true "module"
// @Success 201 {object} util.Response
// @Router /admin/modules [post]
func (c *AdminController) CreateModule(ctx *gin.Context) {
	var req service.ModuleReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "name and level are required")
		return
	}

	module, err := c.Service.UpsertModule(req)
	if errors.Is(err, util.ErrInvalidLevel) {
		util.BadRequest(ctx, "invalid level")
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, module)
}

// @Summary List modules
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param level query string false "academic level"
// @Success 200 {object} util.Response
// @Router /admin/modules [get]
func (c *AdminController) ListModules(ctx *gin.Context) {
	modules, err := c.Service.ListModules(model.UserLevel(ctx.Query("level")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}

// @Summary Delete a module
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "module id"
// @Success 200 {object} util.Response
// @Router /admin/modules/{id} [delete]
func (c *AdminController) DeleteModule(ctx *gin.Context) {
	deleted, err := c.Service.DeleteModule(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"ok": true, "deleted": deleted})
}

// @Summary Create a question with its choices
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.QuestionReq true "question"
// @Success 201 {object} util.Response
// @Router /admin/qcm [post]
func (c *AdminController) CreateQuestion(ctx *gin.Context) {
	var req service.QuestionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "moduleId, question, choices[>=2] and answerIndex are required")
		return
	}

	question, err := c.Service.CreateQuestion(req)
	if errors.Is(err, util.ErrBadAnswerIndex) {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"id": question.ID})
}

// @Summary List questions with answer keys
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId query int true "module id"
// @Param limit query int false "page size" default(50)
// @Param offset query int false "page offset" default(0)
// @Success 200 {object} util.Response
// @Router /admin/qcm [get]
func (c *AdminController) ListQuestions(ctx *gin.Context) {
	moduleID := util.MustParseUint(ctx.Query("moduleId"))
	if moduleID == 0 {
		util.BadRequest(ctx, "moduleId is required")
		return
	}

	limit, offset := pageParams(ctx, util.DefaultAdminPage, util.MaxAdminPage)

	questions, err := c.Service.ListQuestions(moduleID, limit, offset)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// @Summary Update a question, replacing its choices
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "question id"
// @Param body body service.UpdateQuestionReq true "question"
// @Success 200 {object} util.Response
// @Router /admin/qcm/{id} [put]
func (c *AdminController) UpdateQuestion(ctx *gin.Context) {
	var req service.UpdateQuestionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "question, answerIndex and at least 2 choices are required")
		return
	}

	err := c.Service.UpdateQuestion(util.MustParseUint(ctx.Param("id")), req)
	switch {
	case errors.Is(err, util.ErrBadAnswerIndex):
		util.BadRequest(ctx, err.Error())
		return
	case errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx, "QCM not found")
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"ok": true})
}

// @Summary Delete a question
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "question id"
// @Success 200 {object} util.Response
// @Router /admin/qcm/{id} [delete]
func (c *AdminController) DeleteQuestion(ctx *gin.Context) {
	deleted, err := c.Service.DeleteQuestion(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"ok": true, "deleted": deleted})
}

// @Summary Bulk import questions from CSV
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ImportReq true "module and csv payload"
// @Success 200 {object} util.Response
// @Router /admin/qcm/import [post]
func (c *AdminController) ImportQuestions(ctx *gin.Context) {
	var req service.ImportReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "moduleId and csv are required")
		return
	}

	created, err := c.Service.ImportQuestions(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"ok": true, "created": created})
}
