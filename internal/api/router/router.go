package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"expensio/backend/config"
	"expensio/backend/internal/api/handler"
	"expensio/backend/internal/api/middleware"
	"expensio/backend/internal/model"
	"expensio/backend/pkg/jwt"
	"expensio/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证；登录注册加限流）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/signup", h.Auth.Signup)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 用户模块（管理员专用）
			users := authorized.Group("/users")
			users.Use(middleware.RoleAuth(model.RoleAdmin))
			{
				users.POST("", h.User.Create)
				users.GET("", h.User.List)
				users.PATCH("/:id", h.User.Update)
			}

			// 报销模块
			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", h.Expense.Submit)
				expenses.GET("/mine", h.Expense.ListMine)
				expenses.GET("/team", middleware.RoleAuth(model.RoleManager, model.RoleAdmin), h.Expense.ListTeam)
				expenses.GET("", middleware.RoleAuth(model.RoleAdmin), h.Expense.ListCompany)
				expenses.GET("/export", middleware.RoleAuth(model.RoleAdmin), h.Export.ExportExpenses)
				expenses.GET("/:id/approvals", h.Approval.ListTrail)
				expenses.PATCH("/:id/status", middleware.RoleAuth(model.RoleAdmin), h.Expense.Override)
			}

			// 审批模块
			approvals := authorized.Group("/approvals")
			{
				approvals.GET("/pending", h.Approval.ListPending)
				approvals.POST("/:id/decision", h.Approval.Decide)
			}

			// 审批规则模块（查询开放给全员，写入仅管理员）
			rules := authorized.Group("/approval-rules")
			{
				rules.GET("", h.ApprovalRule.Get)
				rules.PUT("", middleware.RoleAuth(model.RoleAdmin), h.ApprovalRule.Upsert)
			}
		}
	}

	return r
}
