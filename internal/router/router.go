package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/proctor-backend/internal/config"
	"github.com/stemsi/proctor-backend/internal/handler"
	"github.com/stemsi/proctor-backend/internal/middleware"
	"github.com/stemsi/proctor-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Exam    *handler.ExamHandler
	Public  *handler.PublicHandler
	WS      *handler.WSHandler
	Monitor *handler.MonitorHandler
	Health  *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth middleware.TokenValidator,
	authLimiter *middleware.RateLimiter,
	handlers *Handlers,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", handlers.Health.Check)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authAPI := router.Group("/api/v1/auth")
	if authLimiter != nil {
		authAPI.Use(authLimiter.Middleware())
	}
	{
		authAPI.POST("/examiner/register", handlers.Auth.Register)
		authAPI.POST("/examiner/login", handlers.Auth.Login)
		authAPI.GET("/examiner/me", middleware.RequireExaminerJWT(auth), handlers.Auth.Me)
	}

	// ─── 2. Public Group (Students, No Auth) ───────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/exams/:exam_id", handlers.Public.GetExam)
		publicAPI.POST("/exams/submit", handlers.Public.SubmitAttempt)
	}

	// ─── 3. WebSocket Group (Proctored Sessions) ───────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/exams/:exam_id/stream", handlers.WS.ExamWebSocketStream)
	}

	// ─── 4. Examiner Group (JWT) ───────────────────────────────────────
	examinerAPI := router.Group("/api/v1/examiner")
	examinerAPI.Use(middleware.RequireExaminerJWT(auth))
	{
		examinerAPI.POST("/exams", handlers.Exam.CreateExam)
		examinerAPI.GET("/exams", handlers.Exam.ListExams)
		examinerAPI.GET("/exams/:exam_id/results", handlers.Exam.GetResults)
		examinerAPI.GET("/exams/:exam_id/results/export", handlers.Exam.ExportResults)
		examinerAPI.GET("/exams/:exam_id/monitor", handlers.Monitor.MonitorExamSSE)
	}

	return router
}
