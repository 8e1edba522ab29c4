package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/repositories"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/services"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/utils"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *validator.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	validator *validator.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// CanAttempt reports whether the user may start an attempt right now
// @Summary Check attempt eligibility
// @Tags attempts
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} services.Eligibility
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/attempts/eligibility [get]
func (h *AttemptHandler) CanAttempt(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	eligibility, err := h.attemptService.CanUserAttempt(c.Request.Context(), testID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, eligibility)
}

// StartAttempt starts a new attempt, or resumes the active one
// @Summary Start attempt
// @Description Starts a new attempt on a test. An active attempt on the same test is resumed instead.
// @Tags attempts
// @Produce json
// @Param id path uint true "Test ID"
// @Success 201 {object} services.AttemptResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /tests/{id}/attempts [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	h.LogRequest(c, "Starting attempt", "test_id", testID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), testID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// SubmitAnswer saves an answer on an in-progress attempt
// @Summary Submit answer
// @Description Saves one answer. Exactly one of selected_option_id and written_answer must be set. Resubmitting the same question overwrites the previous answer.
// @Tags attempts
// @Accept json
// @Param id path uint true "Attempt ID"
// @Param answer body services.SubmitAnswerRequest true "Answer data"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/answers [post]
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	if err := h.attemptService.SubmitAnswer(c.Request.Context(), attemptID, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SubmitAttempt submits an attempt for grading
// @Summary Submit attempt
// @Description Submits the attempt and runs auto grading on choice questions
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptGradingResult
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Submitting attempt", "attempt_id", attemptID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAttempt retrieves an attempt by ID
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetAttemptWithAnswers retrieves an attempt with its answers
// @Summary Get attempt with answers
// @Description Retrieves an attempt with its answers. Correctness and scores stay hidden while the attempt is in progress.
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.TestAttempt
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/answers [get]
func (h *AttemptHandler) GetAttemptWithAnswers(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	attempt, err := h.attemptService.GetByIDWithAnswers(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// ListMyAttempts lists the authenticated user's attempts
// @Summary List own attempts
// @Tags attempts
// @Produce json
// @Param status query string false "Attempt status"
// @Param test_id query uint false "Test ID"
// @Success 200 {object} map[string]interface{}
// @Router /attempts [get]
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := parseAttemptFilters(c)
	attempts, total, err := h.attemptService.ListByUser(c.Request.Context(), userID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": attempts,
		"total":    total,
	})
}

// ListAttemptsByUser lists another user's attempts
// @Summary List attempts by user
// @Tags attempts
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /attempts/user/{user_id} [get]
func (h *AttemptHandler) ListAttemptsByUser(c *gin.Context) {
	targetUserID := c.Param("user_id")
	if targetUserID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid user_id parameter",
		})
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := parseAttemptFilters(c)
	attempts, total, err := h.attemptService.ListByUser(c.Request.Context(), targetUserID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": attempts,
		"total":    total,
	})
}

// ListAttemptsByTest lists all attempts on a test
// @Summary List attempts by test
// @Tags attempts
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /tests/{id}/attempts/list [get]
func (h *AttemptHandler) ListAttemptsByTest(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := parseAttemptFilters(c)
	attempts, total, err := h.attemptService.ListByTest(c.Request.Context(), testID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": attempts,
		"total":    total,
	})
}

func parseAttemptFilters(c *gin.Context) repositories.AttemptFilters {
	filters := repositories.AttemptFilters{
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if status := c.Query("status"); status != "" {
		s := models.AttemptStatus(status)
		filters.Status = &s
	}
	if testID := c.Query("test_id"); testID != "" {
		if id, err := strconv.ParseUint(testID, 10, 64); err == nil {
			v := uint(id)
			filters.TestID = &v
		}
	}

	filters.Limit, filters.Offset = parsePagination(c)
	return filters
}
