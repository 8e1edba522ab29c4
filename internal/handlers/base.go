package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/services"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/utils"
)

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.FromContext(c, h.logger).Error(msg, append(args, "error", err)...)
}

// parseIDParam reads a numeric path parameter. A zero return means the
// response has already been written.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
		})
		return 0
	}
	return uint(id)
}

// requireUserID pulls the authenticated user out of the context. An empty
// return means the response has already been written.
func (h *BaseHandler) requireUserID(c *gin.Context) string {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	return userID
}

func (h *BaseHandler) RespondWithError(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(status, resp)
}

// handleServiceError translates service errors into HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule": businessRuleError.Rule,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"action": permissionError.Action,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrTestNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Test not found"})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question not found"})
	case errors.Is(err, services.ErrOptionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Option not found"})
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Attempt not found"})
	case errors.Is(err, services.ErrAnswerNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Answer not found"})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "User not found"})
	case errors.Is(err, services.ErrOwnerNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Test owner not found"})
	case errors.Is(err, services.ErrTestNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Test is not active"})
	case errors.Is(err, services.ErrTestNotAvailable):
		c.JSON(http.StatusGone, ErrorResponse{Message: "Test is outside its availability window"})
	case errors.Is(err, services.ErrTestHasAttempts):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Test already has attempts"})
	case errors.Is(err, services.ErrTestNoQuestions):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Test has no questions"})
	case errors.Is(err, services.ErrAttemptLimitExceeded):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt limit reached for this test"})
	case errors.Is(err, services.ErrDuplicateAttempt):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "An attempt is already being started"})
	case errors.Is(err, services.ErrAttemptNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt is no longer in progress"})
	case errors.Is(err, services.ErrAttemptNotSubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt has not been submitted"})
	case errors.Is(err, services.ErrAttemptAlreadyGraded):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt is already graded"})
	case errors.Is(err, services.ErrGradingIncomplete):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt still has ungraded answers"})
	case errors.Is(err, services.ErrGradingNotAllowed):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Grading not allowed"})
	case errors.Is(err, services.ErrQuestionNotInTest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Question does not belong to this test"})
	case errors.Is(err, services.ErrOptionNotInQuestion):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Option does not belong to this question"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
