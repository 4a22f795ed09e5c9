package http

import (
	"time"

	"olo_mining/internal/http/handlers"
	"olo_mining/internal/http/middleware"
	"olo_mining/internal/ws"

	"github.com/gin-gonic/gin"
)

// Limiter is satisfied by the Redis and in-memory rate limiters.
type Limiter interface {
	Limit(maxRequests int, window time.Duration) gin.HandlerFunc
}

type RouteConfig struct {
	RateLimit     int
	RateWindow    time.Duration
	AllowedOrigin string
	TickInterval  time.Duration
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, limiter Limiter, cfg RouteConfig) {
	r.Use(middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)

	v1 := r.Group("/api/v1")
	v1.POST("/session", limiter.Limit(cfg.RateLimit, cfg.RateWindow), h.CreateSession)

	api := v1.Group("")
	api.Use(middleware.Install(h.Sessions), limiter.Limit(cfg.RateLimit, cfg.RateWindow))

	mining := api.Group("/mining")
	{
		mining.GET("", h.MiningStatus)
		mining.POST("/start", h.StartMining)
		mining.POST("/claim", h.ClaimMining)
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("/:id/verify", h.VerifyTask)
	}

	api.GET("/referrals", h.ViewReferrals)

	wallet := api.Group("/wallet")
	{
		wallet.GET("", h.Wallet)
		wallet.POST("/withdraw", h.Withdraw)
	}

	admin := api.Group("/admin")
	admin.POST("/login", h.AdminLogin)
	admin.POST("/logout", h.AdminLogout)
	admin.GET("/session", h.AdminSession)

	console := admin.Group("")
	console.Use(middleware.Admin(h.Admin))
	{
		console.GET("/stats", h.AdminStats)
		console.GET("/users", h.AdminUsers)
		console.POST("/users/:id/ban", h.AdminToggleBan)
		console.POST("/users/:id/balance", h.AdminAdjustBalance)
		console.POST("/users/:id/referrals", h.AdminCreditReferral)
		console.GET("/withdrawals", h.AdminWithdrawals)
		console.POST("/withdrawals/:id/approve", h.AdminApproveWithdrawal)
		console.POST("/withdrawals/:id/reject", h.AdminRejectWithdrawal)
		console.GET("/tasks", h.AdminTasks)
		console.POST("/tasks", h.AdminCreateTask)
		console.DELETE("/tasks/:id", h.AdminDeleteTask)
		console.GET("/config", h.AdminConfig)
		console.PATCH("/config", h.AdminUpdateConfig)
	}

	r.GET("/ws", h.WS(hub, cfg.AllowedOrigin, cfg.TickInterval))
}
