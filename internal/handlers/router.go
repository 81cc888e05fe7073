package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-api/internal/constants"
	"github.com/yukikurage/todo-api/internal/middleware"
	"github.com/yukikurage/todo-api/internal/services"
	"go.uber.org/zap"
)

// RouterConfig holds everything the HTTP layer depends on
type RouterConfig struct {
	AuthService  *services.AuthService
	TaskService  *services.TaskService
	SessionStore sessions.Store
	Logger       *zap.Logger

	CORSOrigins []string
	// AuthRateLimit is requests per minute per IP on /signup and /login
	AuthRateLimit int
}

// NewRouter builds the gin engine with all routes and middleware
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(cfg.Logger))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, cfg.SessionStore))

	authHandler := NewAuthHandler(cfg.AuthService)
	taskHandler := NewTaskHandler(cfg.TaskService)
	requireAuth := middleware.RequireAuth(cfg.AuthService)
	authLimit := middleware.NewRateLimiter(cfg.AuthRateLimit, 5).Middleware()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Todo API is running",
		})
	})

	// Account routes
	r.POST("/signup", authLimit, authHandler.Signup)
	r.POST("/login", authLimit, authHandler.Login)
	r.DELETE("/logout", authHandler.Logout)
	r.GET("/available/:username", authHandler.UsernameAvailable)
	r.GET("/me", authHandler.GetCurrentUser)
	r.PATCH("/me", requireAuth, authHandler.UpdateCurrentUser)
	r.DELETE("/me", requireAuth, authHandler.DeleteCurrentUser)

	// Task routes (protected)
	tasks := r.Group("/tasks")
	tasks.Use(requireAuth)
	{
		tasks.GET("/me", taskHandler.ListTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.POST("/", taskHandler.CreateTask)
		tasks.GET("/:id", middleware.RequireTaskID(), taskHandler.GetTask)
		tasks.PUT("/:id", middleware.RequireTaskID(), taskHandler.UpdateTask)
		tasks.PATCH("/:id", middleware.RequireTaskID(), taskHandler.UpdateTask)
		tasks.DELETE("/:id", middleware.RequireTaskID(), taskHandler.DeleteTask)
	}

	return r
}
