package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"olo_mining/internal/bot"
	"olo_mining/internal/config"
	"olo_mining/internal/db"
	httpServer "olo_mining/internal/http"
	"olo_mining/internal/http/handlers"
	"olo_mining/internal/http/middleware"
	"olo_mining/internal/logger"
	"olo_mining/internal/repository"
	"olo_mining/internal/service"
	"olo_mining/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.OpenStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open store", "backend", cfg.StoreBackend, "error", err)
	}
	defer store.Close()
	logger.Info("store ready", "backend", cfg.StoreBackend)

	seed, err := repository.LoadSeedTasks(cfg.TasksSeedFile)
	if err != nil {
		logger.Fatal("failed to load seed tasks", "file", cfg.TasksSeedFile, "error", err)
	}
	installs := repository.NewInstalls(store, seed)

	audit := service.NewAuditService()
	sessions := service.NewSessionService(installs, cfg.JWTSecret, cfg.SessionTTL, cfg.BotToken, cfg.DevMode)
	mining := service.NewMiningService(installs, audit)
	tasks := service.NewTaskService(installs, audit, cfg.TaskVerifySeconds)
	referrals := service.NewReferralService(installs, cfg.BotUsername)
	withdrawals := service.NewWithdrawalService(installs, audit, cfg.WithdrawDelay)
	admin := service.NewAdminService(installs, audit, cfg.AdminPIN)

	hub := ws.NewHub()
	tasks.OnComplete(hub.TaskCompleted)
	withdrawals.AddNotifier(hub)

	var adminBot *bot.AdminBot
	if cfg.BotToken != "" && len(cfg.AdminTelegramIDs) > 0 {
		adminBot, err = bot.NewAdminBot(cfg.BotToken, admin, cfg.AdminTelegramIDs)
		if err != nil {
			logger.Error("admin bot disabled", "error", err)
		} else {
			withdrawals.AddNotifier(adminBot)
			go adminBot.Start()
		}
	}

	go tasks.Run(ctx, cfg.TickInterval)

	var limiter httpServer.Limiter
	redisLimiter := middleware.ConnectRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisLimiter.Close()
	if redisLimiter.Enabled() {
		limiter = redisLimiter
	} else {
		limiter = middleware.NewMemoryLimiter()
	}

	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := handlers.NewHandler(handlers.Services{
		Sessions:    sessions,
		Mining:      mining,
		Tasks:       tasks,
		Referrals:   referrals,
		Withdrawals: withdrawals,
		Admin:       admin,
	})
	httpServer.RegisterRoutes(r, h, handlers.NewHealthHandler(store, cfg.StoreBackend, version), hub, limiter, httpServer.RouteConfig{
		RateLimit:     cfg.APIRateLimit,
		RateWindow:    cfg.APIRateWindow,
		AllowedOrigin: cfg.AllowedOrigin,
		TickInterval:  cfg.TickInterval,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	if adminBot != nil {
		adminBot.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server exited")
}
