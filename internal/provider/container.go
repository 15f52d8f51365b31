package provider

import (
	"errors"

	"github.com/coinsettle/internal/cache"
	"github.com/coinsettle/internal/commerce/shopify"
	"github.com/coinsettle/internal/config"
	"github.com/coinsettle/internal/logger"
	"github.com/coinsettle/internal/models"
	"github.com/coinsettle/internal/queue"
	"github.com/coinsettle/internal/repository"
	"github.com/coinsettle/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Shopify     *shopify.Client

	// Repositories
	WebhookReceiptRepo repository.WebhookReceiptRepository

	// Services
	OrderResolver     *service.OrderResolver
	InlineNotifier    *service.InlineNotifier
	PaymentReconciler *service.PaymentReconciler
	WebhookService    *service.WebhookService
	ReceiptService    *service.ReceiptService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	if models.DB == nil {
		logger.Infow("provider_receipt_store_disabled")
		return
	}
	c.WebhookReceiptRepo = repository.NewWebhookReceiptRepository(models.DB)
}

func (c *Container) initServices() {
	cfg := c.Config
	client, err := shopify.NewClient(shopify.Config{
		Store:       cfg.Shopify.Store,
		AccessToken: cfg.Shopify.AccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
		BaseURL:     cfg.Shopify.BaseURL,
		Timeout:     cfg.Shopify.Timeout(),
	})
	if err != nil {
		// 配置缺失时 webhook 返回 500，其余接口照常提供
		logger.Errorw("provider_init_shopify_client_failed", "error", err)
	}
	c.Shopify = client

	var nameCache service.NameCache
	if cache.Enabled() {
		nameCache = cache.NewOrderNameCache(cfg.ResolverCache.TTL())
	}

	var receipts service.ReceiptStore
	if c.WebhookReceiptRepo != nil {
		receipts = c.WebhookReceiptRepo
	}

	var lookup service.OrderLookup
	var backend service.OrderTransactions
	var notifyBackend service.OrderNotifier
	if client != nil {
		lookup, backend, notifyBackend = client, client, client
	}

	c.InlineNotifier = service.NewInlineNotifier(notifyBackend, cfg.Reconcile.NotifyTimeout())
	var notifier service.Notifier = c.InlineNotifier
	if c.QueueClient.Enabled() {
		notifier = service.NewQueueNotifier(c.QueueClient, c.InlineNotifier)
	}

	c.OrderResolver = service.NewOrderResolver(lookup, nameCache)
	c.PaymentReconciler = service.NewPaymentReconciler(backend, receipts, notifier, service.ReconcilerOptions{
		TransactionKind: cfg.Reconcile.TransactionKind,
		Gateway:         cfg.Reconcile.Gateway,
		NotifyEnabled:   cfg.Reconcile.NotifyEnabled,
		ProcessingStale: cfg.Reconcile.ProcessingStale(),
	})
	c.WebhookService = service.NewWebhookService(cfg, c.OrderResolver, c.PaymentReconciler)

	var reader service.ReceiptReader
	if c.WebhookReceiptRepo != nil {
		reader = c.WebhookReceiptRepo
	}
	c.ReceiptService = service.NewReceiptService(reader)
}

// Close 释放队列、缓存与数据库连接
func (c *Container) Close() error {
	var errs []error
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := cache.Close(); err != nil {
		errs = append(errs, err)
	}
	if models.DB != nil {
		if sqlDB, err := models.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	logger.Sync()
	return errors.Join(errs...)
}
