package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/coinsettle/internal/cache"
	"github.com/coinsettle/internal/config"
	"github.com/coinsettle/internal/constants"
	adminhandlers "github.com/coinsettle/internal/http/handlers/admin"
	publichandlers "github.com/coinsettle/internal/http/handlers/public"
	"github.com/coinsettle/internal/logger"
	"github.com/coinsettle/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按公开/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	adminRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin", redisPrefix),
		WindowSeconds: cfg.Admin.RateLimit.WindowSeconds,
		MaxRequests:   cfg.Admin.RateLimit.MaxRequests,
	}

	// 中间件
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(RecoveryMiddleware())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		// 第三方回调，方法校验在处理器内完成
		apiV1.Any("/webhooks/coinbase", publicHandler.CoinbaseWebhook)

		admin := apiV1.Group("/admin")
		admin.Use(RateLimitMiddleware(cache.Client(), adminRule, KeyByIP))
		admin.Use(AdminJWTAuthMiddleware(cfg.Admin.JWTSecret))
		{
			admin.GET("/receipts", adminHandler.GetReceipts)
			admin.GET("/receipts/:charge_id", adminHandler.GetReceipt)
		}
	}

	return r
}
