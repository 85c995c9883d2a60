package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/config"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/api/handler"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/api/middleware"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/jwt"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// roles 用于管理员路由的实时角色解析；rdb 可为 nil（黑名单、限流、实时通道降级）
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	roles middleware.RoleLoader,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "realtime": rdb != nil})
	})

	admin := middleware.RequireAdmin(roles)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow, logger), h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 事件流：EventSource 不能带请求头，单独使用 StreamAuth
		v1.GET("/notifications/stream", middleware.StreamAuth(jwtMgr, rdb), h.Notification.Stream)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 当前主体
			me := authorized.Group("/me")
			{
				me.GET("/roles", h.Me.Roles)
				me.GET("/navigation", h.Me.Navigation)
			}

			// 通知模块
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.POST("/read", h.Notification.MarkRead)
				notifications.POST("/read-all", h.Notification.MarkAllRead)
				notifications.POST("", admin, h.Notification.Create)
			}

			// 角色授予（管理员）
			authorized.GET("/users/:id/roles", admin, h.Role.List)
			authorized.POST("/users/:id/roles", admin, h.Role.Grant)
			authorized.DELETE("/role-assignments/:id", admin, h.Role.Revoke)

			// 小队模块
			teams := authorized.Group("/teams")
			{
				teams.GET("", h.Team.List)
				teams.POST("", admin, h.Team.Create)
			}
		}
	}

	return r
}
