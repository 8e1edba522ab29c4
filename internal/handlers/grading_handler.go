package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/services"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/utils"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
	exportService  services.ExportService
	validator      *validator.Validator
}

func NewGradingHandler(
	gradingService services.GradingService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		exportService:  exportService,
		validator:      validator,
	}
}

// GradeAnswer applies a manual grade to a written answer
// @Summary Grade answer
// @Description Applies a manual grade. Points outside [0, question points] are rejected.
// @Tags grading
// @Accept json
// @Produce json
// @Param answer_id path uint true "Answer ID"
// @Param grade body services.ManualGradeRequest true "Grade data"
// @Success 200 {object} services.GradingResult
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /grading/answers/{answer_id} [post]
func (h *GradingHandler) GradeAnswer(c *gin.Context) {
	answerID := h.parseIDParam(c, "answer_id")
	if answerID == 0 {
		return
	}

	h.LogRequest(c, "Grading answer", "answer_id", answerID)

	var req services.ManualGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	result, err := h.gradingService.ManualGrade(c.Request.Context(), answerID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// FinalizeGrading closes grading on a submitted attempt
// @Summary Finalize grading
// @Description Moves a fully graded attempt from submitted to graded
// @Tags grading
// @Produce json
// @Param attempt_id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptGradingResult
// @Failure 409 {object} ErrorResponse
// @Router /grading/attempts/{attempt_id}/finalize [post]
func (h *GradingHandler) FinalizeGrading(c *gin.Context) {
	attemptID := h.parseIDParam(c, "attempt_id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Finalizing grading", "attempt_id", attemptID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	result, err := h.gradingService.FinalizeGrading(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegradeAttempt reruns auto grading on an attempt
// @Summary Regrade attempt
// @Description Reruns auto grading on choice answers. Manual grades are kept.
// @Tags grading
// @Produce json
// @Param attempt_id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptGradingResult
// @Failure 409 {object} ErrorResponse
// @Router /grading/attempts/{attempt_id}/regrade [post]
func (h *GradingHandler) RegradeAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "attempt_id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Regrading attempt", "attempt_id", attemptID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	result, err := h.gradingService.RegradeAttempt(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetGradingStats returns grading progress for a test
// @Summary Get grading statistics
// @Tags grading
// @Produce json
// @Param test_id path uint true "Test ID"
// @Success 200 {object} repositories.GradingStats
// @Failure 404 {object} ErrorResponse
// @Router /grading/tests/{test_id}/stats [get]
func (h *GradingHandler) GetGradingStats(c *gin.Context) {
	testID := h.parseIDParam(c, "test_id")
	if testID == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	stats, err := h.gradingService.GetGradingStats(c.Request.Context(), testID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListResults lists graded results for a test
// @Summary List test results
// @Tags grading
// @Produce json
// @Param test_id path uint true "Test ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /grading/tests/{test_id}/results [get]
func (h *GradingHandler) ListResults(c *gin.Context) {
	testID := h.parseIDParam(c, "test_id")
	if testID == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	results, err := h.gradingService.ListResults(c.Request.Context(), testID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
	})
}

// ExportResults streams the graded results of a test as an xlsx workbook
// @Summary Export test results
// @Tags grading
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param test_id path uint true "Test ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /grading/tests/{test_id}/results/export [get]
func (h *GradingHandler) ExportResults(c *gin.Context) {
	testID := h.parseIDParam(c, "test_id")
	if testID == 0 {
		return
	}

	h.LogRequest(c, "Exporting results", "test_id", testID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	file, err := h.exportService.ExportResults(c.Request.Context(), testID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="test_%d_results.xlsx"`, testID))

	if err := file.Write(c.Writer); err != nil {
		h.LogError(c, err, "Failed to stream results workbook", "test_id", testID)
	}
}
