package controller

import (
	"errors"
	"medqcm_backend/internal/service"
	"medqcm_backend/internal/util"
	"medqcm_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	Service *service.SessionService
}

func NewSessionController(svc *service.SessionService) *SessionController {
	return &SessionController{Service: svc}
}

// @Summary Start a quiz session
// @Tags sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.StartSessionReq true "module and mode"
// @Success 201 {object} util.Response
// @Router /sessions [post]
func (c *SessionController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.StartSessionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "moduleId and mode are required")
		return
	}

	session, err := c.Service.Start(user.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"sessionId": session.ID})
}

// @Summary Latest unfinished session
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /sessions/active [get]
func (c *SessionController) Active(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.Service.Active(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	// nil when every session is finished; clients key off that.
	util.Success(ctx, session)
}

// @Summary Recent sessions for the current user
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /sessions/mine [get]
func (c *SessionController) ListMine(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	sessions, err := c.Service.ListMine(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, sessions)
}

// @Summary Question ids already answered in a session
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/answers [get]
func (c *SessionController) AnsweredQuestions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	ids, err := c.Service.AnsweredQuestionIDs(user.UserID, ctx.Param("id"))
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx, "Session not found")
		return
	case errors.Is(err, util.ErrNotSessionOwner):
		util.Forbidden(ctx)
		return
	case err != nil:
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, ids)
}

// @Summary Submit one answer
// @Tags sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.AnswerReq true "answer"
// @Success 201 {object} util.Response
// @Router /sessions/answer [post]
func (c *SessionController) Answer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.AnswerReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "sessionId, questionId and selectedIndex are required")
		return
	}

	feedback, err := c.Service.Answer(user.UserID, req)
	switch {
	case errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx, "QCM not found")
		return
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx, "Session not found")
		return
	case errors.Is(err, util.ErrNotSessionOwner):
		util.Forbidden(ctx)
		return
	case errors.Is(err, util.ErrSessionFinished):
		util.Conflict(ctx, "Session already finished")
		return
	case err != nil:
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"ok":           true,
		"isCorrect":    feedback.IsCorrect,
		"correctIndex": feedback.CorrectIndex,
		"correctText":  feedback.CorrectText,
	})
}

type finishReq struct {
	ResultID string `json:"resultId" binding:"required"`
}

// @Summary Finish a session
// @Description Aggregates the answer log into a final score and updates
// @Description the per-module progress counters, atomically.
// @Tags sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body finishReq true "session to finish"
// @Success 200 {object} util.Response
// @Router /sessions/finish [post]
func (c *SessionController) Finish(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req finishReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "resultId is required")
		return
	}

	session, err := c.Service.Finish(user.UserID, req.ResultID)
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx, "Result not found")
		return
	case errors.Is(err, util.ErrNotSessionOwner):
		util.Forbidden(ctx)
		return
	case errors.Is(err, util.ErrSessionFinished):
		util.Conflict(ctx, "Session already finished")
		return
	case err != nil:
		util.LogInternalError(ctx, err)
		return
	}

	monitoring.SessionsFinished.WithLabelValues(session.Mode).Inc()

	util.Success(ctx, gin.H{"result": gin.H{
		"id":          session.ID,
		"mode":        session.Mode,
		"score":       session.Score,
		"total":       session.Total,
		"startedAt":   session.StartedAt,
		"completedAt": session.CompletedAt,
	}})
}
