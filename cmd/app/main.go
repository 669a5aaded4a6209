package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "noz-miniapp-backend/docs"
	"noz-miniapp-backend/internal/common/config"
	"noz-miniapp-backend/internal/common/logger"
	"noz-miniapp-backend/internal/common/middleware"
	ledgerhttp "noz-miniapp-backend/internal/features/ledger/delivery/http"
	ledgerredis "noz-miniapp-backend/internal/features/ledger/repository/redis"
	ledgerservice "noz-miniapp-backend/internal/features/ledger/service"
	tonwallethttp "noz-miniapp-backend/internal/features/tonwallet/delivery/http"
	tonwalletredis "noz-miniapp-backend/internal/features/tonwallet/repository/redis"
	tonwalletservice "noz-miniapp-backend/internal/features/tonwallet/service"
	redisplatform "noz-miniapp-backend/internal/platform/redis"
	"noz-miniapp-backend/internal/service/adsgram"
	"noz-miniapp-backend/internal/service/remotesync"
	"noz-miniapp-backend/internal/service/telegram"
)

// @title           NOZ Mini App API
// @version         1.0
// @description     API server for the NOZ Telegram Mini App reward ledger. All endpoints require init_data authentication.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name init_data
// @description Telegram Mini App init_data string for authentication

// @tag.name ledger
// @tag.description Balances, referrals, ad rewards and withdrawals

// @tag.name tonwallet
// @tag.description TON wallet binding via TON Connect proof

func main() {
	cfg := config.Load()

	logger.Init("noz-miniapp-backend", cfg.Debug)
	logger.Info().Bool("debug", cfg.Debug).Msg("Starting NOZ Mini App backend")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := redisplatform.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")

	store := ledgerredis.NewStore(redisClient.Client)

	var syncer ledgerservice.Syncer = remotesync.Noop{}
	if cfg.Sync.BaseURL != "" {
		syncer = remotesync.NewClient(cfg.Sync.BaseURL, nil)
		logger.Info().Str("base_url", cfg.Sync.BaseURL).Msg("Remote sync enabled")
	}

	notifier := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID)
	ads := adsgram.NewClient(cfg.AdsGram.BaseURL, cfg.AdsGram.BlockID)

	ledgerSvc := ledgerservice.New(store, ledgerservice.RatesFromConfig(cfg), syncer, notifier)

	payloadTTL := time.Duration(cfg.TonProof.PayloadTTL) * time.Second
	tonwalletRepo := tonwalletredis.NewRepository(redisClient.Client, payloadTTL)
	tonwalletSvc := tonwalletservice.NewService(tonwalletRepo, ledgerSvc, cfg.TonProof.Domain, payloadTTL)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "init_data"}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.TelegramInitData(cfg.Telegram.BotToken, 24*time.Hour))
	v1.Use(middleware.RequireAuth())

	ledgerhttp.NewHandler(ledgerSvc, ads, cfg.Telegram.BotUsername, cfg.Telegram.AppName).
		RegisterRoutes(v1, cfg.Telegram.AdminIDs)
	tonwallethttp.NewHandler(tonwalletSvc).RegisterRoutes(v1)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerProbes(router, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func registerProbes(router *gin.Engine, redisClient *redisplatform.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "noz-miniapp-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "noz-miniapp-backend",
		})
	})
}
