package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/config"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/repositories"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/services"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/utils"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/validator"
)

type HandlerManager struct {
	testHandler     *TestHandler
	questionHandler *QuestionHandler
	attemptHandler  *AttemptHandler
	gradingHandler  *GradingHandler
	userHandler     *UserHandler
	authMiddleware  *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo, logger)

	return &HandlerManager{
		testHandler:     NewTestHandler(serviceManager.Test(), validator, logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), validator, logger),
		attemptHandler:  NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		gradingHandler:  NewGradingHandler(serviceManager.Grading(), serviceManager.Export(), validator, logger),
		userHandler:     NewUserHandler(userRepo, logger),
		authMiddleware:  authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		instructorOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin)

		// Test routes
		tests := v1.Group("/tests")
		{
			// Create/modify tests - Instructors and Admins only
			tests.POST("", instructorOnly, hm.testHandler.CreateTest)
			tests.PUT("/:id", instructorOnly, hm.testHandler.UpdateTest)
			tests.DELETE("/:id", instructorOnly, hm.testHandler.DeleteTest)
			tests.POST("/:id/publish", instructorOnly, hm.testHandler.PublishTest)
			tests.POST("/:id/archive", instructorOnly, hm.testHandler.ArchiveTest)
			tests.GET("/:id/stats", instructorOnly, hm.testHandler.GetTestStats)

			// View tests - all authenticated users, services hide drafts and answer keys
			tests.GET("", hm.testHandler.ListTests)
			tests.GET("/:id", hm.testHandler.GetTest)
			tests.GET("/:id/questions", hm.testHandler.GetTestWithQuestions)
			tests.GET("/owner/:owner_type/:owner_id", hm.testHandler.GetTestsByOwner)

			// Question management on a test - Instructors and Admins only
			tests.POST("/:id/questions", instructorOnly, hm.questionHandler.CreateQuestion)
			tests.GET("/:id/questions/list", hm.questionHandler.ListQuestionsByTest)

			// Attempts on a test
			tests.GET("/:id/attempts/eligibility", hm.attemptHandler.CanAttempt)
			tests.POST("/:id/attempts", hm.attemptHandler.StartAttempt)
			tests.GET("/:id/attempts/list", instructorOnly, hm.attemptHandler.ListAttemptsByTest)
		}

		// Question routes
		questions := v1.Group("/questions")
		{
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", instructorOnly, hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", instructorOnly, hm.questionHandler.DeleteQuestion)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.GET("", hm.attemptHandler.ListMyAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.GET("/:id/answers", hm.attemptHandler.GetAttemptWithAnswers)
			attempts.POST("/:id/answers", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)

			attempts.GET("/user/:user_id", instructorOnly, hm.attemptHandler.ListAttemptsByUser)
		}

		// Grading routes - Instructors and Admins only
		grading := v1.Group("/grading")
		grading.Use(instructorOnly)
		{
			grading.POST("/answers/:answer_id", hm.gradingHandler.GradeAnswer)
			grading.POST("/attempts/:attempt_id/finalize", hm.gradingHandler.FinalizeGrading)
			grading.POST("/attempts/:attempt_id/regrade", hm.gradingHandler.RegradeAttempt)
			grading.GET("/tests/:test_id/stats", hm.gradingHandler.GetGradingStats)
			grading.GET("/tests/:test_id/results", hm.gradingHandler.ListResults)
			grading.GET("/tests/:test_id/results/export", hm.gradingHandler.ExportResults)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("", instructorOnly, hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "test-grading-service",
		})
	})
}
