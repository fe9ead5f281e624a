package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/soley-bot/acadex-sub012/internal/config"
	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
	"github.com/soley-bot/acadex-sub012/internal/services"
	"github.com/soley-bot/acadex-sub012/internal/utils"
)

type HandlerManager struct {
	courseHandler  *CourseHandler
	quizHandler    *QuizHandler
	attemptHandler *AttemptHandler
	gradingHandler *GradingHandler
	userHandler    *UserHandler
	authMiddleware *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		courseHandler:  NewCourseHandler(serviceManager.Course(), logger),
		quizHandler:    NewQuizHandler(serviceManager.Quiz(), serviceManager.ImportExport(), logger),
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), logger),
		gradingHandler: NewGradingHandler(serviceManager.Grading(), logger),
		userHandler:    NewUserHandler(userRepo, logger),
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Public catalog routes. Optional auth so managers see their drafts and
	// enrolled students get their enrollment state attached.
	catalog := v1.Group("")
	catalog.Use(hm.authMiddleware.OptionalAuthMiddleware())
	{
		catalog.GET("/courses", hm.courseHandler.ListCourses)
		catalog.GET("/courses/search", hm.courseHandler.SearchCourses)
		catalog.GET("/courses/categories", hm.courseHandler.GetCategories)
		catalog.GET("/courses/:id", hm.courseHandler.GetCourse)
		catalog.GET("/courses/:id/details", hm.courseHandler.GetCourseWithDetails)

		catalog.GET("/quizzes", hm.quizHandler.ListQuizzes)
		catalog.GET("/quizzes/:id", hm.quizHandler.GetQuiz)
		catalog.GET("/quizzes/course/:course_id", hm.quizHandler.GetQuizzesByCourse)
	}

	// Everything below requires a valid token
	authed := v1.Group("")
	authed.Use(hm.authMiddleware.AuthMiddleware())
	{
		instructor := hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin)

		// Course authoring - Instructors and Admins only
		courses := authed.Group("/courses")
		{
			courses.POST("", instructor, hm.courseHandler.CreateCourse)
			courses.GET("/mine", instructor, hm.courseHandler.GetMyCourses)
			courses.PUT("/:id", instructor, hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", instructor, hm.courseHandler.DeleteCourse)
			courses.POST("/:id/publish", instructor, hm.courseHandler.PublishCourse)
			courses.GET("/:id/stats", instructor, hm.courseHandler.GetCourseStats)

			// Lesson management
			courses.POST("/:id/lessons", instructor, hm.courseHandler.AddLesson)
			courses.PUT("/:id/lessons/reorder", instructor, hm.courseHandler.ReorderLessons)
			courses.PUT("/:id/lessons/:lesson_id", instructor, hm.courseHandler.UpdateLesson)
			courses.DELETE("/:id/lessons/:lesson_id", instructor, hm.courseHandler.DeleteLesson)

			// Enrollment - any authenticated user
			courses.POST("/:id/enroll", hm.courseHandler.EnrollInCourse)
			courses.GET("/:id/enrollment", hm.courseHandler.GetMyEnrollment)
			courses.PUT("/:id/progress", hm.courseHandler.UpdateProgress)
		}

		authed.GET("/enrollments", hm.courseHandler.ListMyEnrollments)

		// Quiz authoring - Instructors and Admins only
		quizzes := authed.Group("/quizzes")
		{
			quizzes.POST("", instructor, hm.quizHandler.CreateQuiz)
			quizzes.GET("/mine", instructor, hm.quizHandler.GetMyQuizzes)
			quizzes.GET("/import-template", instructor, hm.quizHandler.GetImportTemplate)
			quizzes.GET("/:id/details", instructor, hm.quizHandler.GetQuizWithQuestions)
			quizzes.PUT("/:id", instructor, hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", instructor, hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/publish", instructor, hm.quizHandler.PublishQuiz)
			quizzes.POST("/:id/unpublish", instructor, hm.quizHandler.UnpublishQuiz)
			quizzes.GET("/:id/stats", instructor, hm.quizHandler.GetQuizStats)

			// Question management
			quizzes.POST("/:id/questions", instructor, hm.quizHandler.AddQuestion)
			quizzes.GET("/:id/questions", instructor, hm.quizHandler.ListQuestions)
			quizzes.PUT("/:id/questions/reorder", instructor, hm.quizHandler.ReorderQuestions)
			quizzes.POST("/:id/questions/import", instructor, hm.quizHandler.ImportQuestions)
			quizzes.GET("/:id/questions/export", instructor, hm.quizHandler.ExportQuestions)
			quizzes.PUT("/:id/questions/:question_id", instructor, hm.quizHandler.UpdateQuestion)
			quizzes.DELETE("/:id/questions/:question_id", instructor, hm.quizHandler.DeleteQuestion)
			quizzes.GET("/:id/results/export", instructor, hm.quizHandler.ExportResults)
		}

		// Attempt routes - any authenticated user, ownership enforced in the service
		attempts := authed.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.GET("", hm.attemptHandler.ListMyAttempts)
			attempts.GET("/summaries", hm.attemptHandler.GetMySummaries)
			attempts.GET("/can-start/:quiz_id", hm.attemptHandler.CanStartAttempt)
			attempts.GET("/count/:quiz_id", hm.attemptHandler.GetAttemptCount)
			attempts.GET("/quiz/:quiz_id", instructor, hm.attemptHandler.GetAttemptsByQuiz)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/answer", hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/results", hm.attemptHandler.GetResults)
		}

		// Grading routes - Instructors and Admins only
		grading := authed.Group("/grading")
		grading.Use(instructor)
		{
			grading.POST("/attempts/:id/essay", hm.gradingHandler.GradeEssay)
			grading.GET("/quizzes/:quiz_id/pending", hm.gradingHandler.ListPendingGrading)
		}

		// User lookups for rosters and grading views - Instructors and Admins only
		users := authed.Group("/users")
		users.Use(instructor)
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/search", hm.userHandler.SearchUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "acadex-quiz-service",
		})
	})
}
