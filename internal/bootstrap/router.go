package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	httpHandler "prize-wheel/internal/handler/http"
	wsHandler "prize-wheel/internal/handler/websocket"
	"prize-wheel/internal/middleware"
)

// Handlers 汇总路由需要的处理器
type Handlers struct {
	Auth  *httpHandler.AuthHandler
	Wheel *httpHandler.WheelHandler
	Win   *httpHandler.WinHandler
	WS    *wsHandler.WebSocketHandler
}

// NewRouter 创建 Gin Engine 并注册所有路由
func NewRouter(cfg *Config, log *logrus.Logger, limiter middleware.RateLimiter, h Handlers) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.CORSAllowedOrigin))

	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })

	// WebSocket 的抽奖频率由 Hub 按连接限制
	router.GET("/ws", h.WS.HandleConnection)
	router.GET("/ws/wheel/:slug", h.WS.HandleWheelConnection)

	api := router.Group("/api")
	api.Use(middleware.RateLimit(limiter, cfg.RateLimitMax, cfg.RateLimitWindow))
	{
		api.GET("/wheels/:slug", h.Wheel.GetWheel)
		api.POST("/wins/:token/claim", h.Win.Claim)
		api.POST("/admin/login", h.Auth.Login)
	}
	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg.JWTSecret))
	{
		admin.PATCH("/wheels/:id/enabled", h.Wheel.SetEnabled)
		admin.GET("/wins", h.Win.List)
	}
	return router
}

// CORSMiddleware 允许配置的前端来源跨域访问
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		statusCode := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  time.Since(startTime).Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			entry.Error(errorMessage)
			return
		}
		switch {
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
