package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/handler"
	"github.com/stemsi/exstem-engine/internal/middleware"
	"github.com/stemsi/exstem-engine/internal/response"
	"github.com/stemsi/exstem-engine/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	StudentPortal *handler.StudentPortalHandler
	Grading       *handler.GradingHandler
	WS            *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// answerLimiter may be nil to leave answer saves unthrottled.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	answerLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	saveLimit := []gin.HandlerFunc{}
	if answerLimiter != nil {
		saveLimit = append(saveLimit, answerLimiter.Middleware())
	}

	// ─── 1. Student Group (Exam Taking) ────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService), middleware.NoStore())
	{
		exams := studentAPI.Group("/exams/:exam_id")
		exams.POST("/start", handlers.StudentPortal.StartExam)
		exams.GET("/paper", handlers.StudentPortal.GetExamPaper)
		exams.PUT("/answers/:number", append(saveLimit, handlers.StudentPortal.SaveAnswer)...)
		exams.GET("/time", handlers.StudentPortal.GetRemainingTime)
		exams.POST("/finish", handlers.StudentPortal.FinishExam)
		exams.GET("/result", handlers.StudentPortal.GetResult)
	}

	// ─── 2. WebSocket Group (Token In Query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentJWT(authService))
	{
		ws.GET("/student/exams/:exam_id/stream", handlers.WS.ExamWebSocketStream)
	}

	// ─── 3. Grader Group (Review, Correction, Results) ─────────────────
	graderAPI := router.Group("/api/v1/grader")
	graderAPI.Use(middleware.RequireGraderJWT(authService))
	{
		graderAPI.GET("/sessions/:session_id", handlers.Grading.GetSession)
		graderAPI.PUT("/sessions/:session_id/answers/:answer_id", handlers.Grading.CorrectAnswer)
		graderAPI.POST("/sessions/:session_id/finalize", handlers.Grading.FinalizeSession)
		graderAPI.GET("/exams/:exam_id/results", handlers.Grading.ListResults)
	}

	return router
}
