package controller

import (
	"errors"
	"medqcm_backend/internal/service"
	"medqcm_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Service *service.AuthService
}

func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{Service: svc}
}

// @Summary Sign up
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.SignupReq true "account"
// @Success 201 {object} util.Response
// @Router /signup [post]
func (c *AuthController) Signup(ctx *gin.Context) {
	var req service.SignupReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "username, email and password are required")
		return
	}

	resp, err := c.Service.Signup(req)
	if errors.Is(err, util.ErrDuplicateUser) {
		util.Conflict(ctx, err.Error())
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, resp)
}

// @Summary Log in with email, password and subscription code
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.LoginReq true "credentials"
// @Success 200 {object} util.Response
// @Router /login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "email, password and code are required")
		return
	}

	resp, err := c.Service.Login(req)
	switch {
	case errors.Is(err, util.ErrInvalidCredentials),
		errors.Is(err, util.ErrInvalidCode),
		errors.Is(err, util.ErrCodeNotBound),
		errors.Is(err, util.ErrCodeLevelMismatch):
		util.Error(ctx, 401, err.Error())
		return
	case err != nil:
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, resp)
}

type activateReq struct {
	Code string `json:"code" binding:"required"`
}

// @Summary Activate the account with a generic level code
// @Tags auth
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body activateReq true "activation code"
// @Success 200 {object} util.Response
// @Router /user/activate [post]
func (c *AuthController) Activate(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req activateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "code is required")
		return
	}

	updated, err := c.Service.Activate(user.UserID, req.Code)
	if errors.Is(err, util.ErrInvalidCode) {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "account activated", "user": updated})
}

// @Summary Current user profile
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /user/me [get]
func (c *AuthController) GetMe(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	profile, err := c.Service.GetProfile(user.UserID)
	if err != nil {
		util.NotFound(ctx, "User not found")
		return
	}

	util.Success(ctx, profile)
}

// @Summary Update profile
// @Tags auth
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.UpdateProfileReq true "profile"
// @Success 200 {object} util.Response
// @Router /user/me [put]
func (c *AuthController) UpdateMe(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.UpdateProfileReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "username and email are required")
		return
	}

	updated, err := c.Service.UpdateProfile(user.UserID, req)
	if errors.Is(err, util.ErrDuplicateUser) {
		util.Conflict(ctx, err.Error())
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, updated)
}

// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ChangePasswordReq true "passwords"
// @Success 200 {object} util.Response
// @Router /user/password [post]
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.ChangePasswordReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "currentPassword and newPassword are required")
		return
	}

	err := c.Service.ChangePassword(user.UserID, req)
	if errors.Is(err, util.ErrInvalidCredentials) {
		util.Error(ctx, 401, "current password is incorrect")
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"ok": true})
}
