package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coinsettle/internal/constants"
	"github.com/coinsettle/internal/logger"

	"github.com/spf13/viper"
)

// ErrWebhookConfigInvalid webhook 必填配置缺失
var ErrWebhookConfigInvalid = errors.New("webhook config invalid")

// Config 应用配置结构
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Coinbase      CoinbaseConfig      `mapstructure:"coinbase"`
	Shopify       ShopifyConfig       `mapstructure:"shopify"`
	Reconcile     ReconcileConfig     `mapstructure:"reconcile"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	ResolverCache ResolverCacheConfig `mapstructure:"resolver_cache"`
	Queue         QueueConfig         `mapstructure:"queue"`
	Admin         AdminConfig         `mapstructure:"admin"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// CoinbaseConfig Coinbase Commerce webhook 配置
type CoinbaseConfig struct {
	SharedSecret    string `mapstructure:"shared_secret"`
	SignatureHeader string `mapstructure:"signature_header"`
}

// ShopifyConfig Shopify Admin API 配置
type ShopifyConfig struct {
	Store          string `mapstructure:"store"` // 店铺名，不含 .myshopify.com
	AccessToken    string `mapstructure:"access_token"`
	APIVersion     string `mapstructure:"api_version"`
	BaseURL        string `mapstructure:"base_url"` // 非空时覆盖 store 推导出的地址
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout 出站请求超时
func (c ShopifyConfig) Timeout() time.Duration {
	return secondsOr(c.TimeoutSeconds, 10)
}

// ReconcileConfig 对账配置
type ReconcileConfig struct {
	DefaultCurrency        string `mapstructure:"default_currency"`
	TransactionKind        string `mapstructure:"transaction_kind"` // capture / sale
	Gateway                string `mapstructure:"gateway"`
	NotifyEnabled          bool   `mapstructure:"notify_enabled"`
	NotifyTimeoutSeconds   int    `mapstructure:"notify_timeout_seconds"`
	ProcessingStaleSeconds int    `mapstructure:"processing_stale_seconds"`
}

// NotifyTimeout 通知请求超时
func (c ReconcileConfig) NotifyTimeout() time.Duration {
	return secondsOr(c.NotifyTimeoutSeconds, 10)
}

// ProcessingStale 处理中回执的过期时间
func (c ReconcileConfig) ProcessingStale() time.Duration {
	return secondsOr(c.ProcessingStaleSeconds, 120)
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置（幂等回执存储）
type DatabaseConfig struct {
	Enabled bool               `mapstructure:"enabled"`
	Driver  string             `mapstructure:"driver"` // sqlite / postgres
	DSN     string             `mapstructure:"dsn"`
	Pool    DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// ResolverCacheConfig 订单名称解析缓存配置
type ResolverCacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// TTL 缓存有效期
func (c ResolverCacheConfig) TTL() time.Duration {
	return secondsOr(c.TTLSeconds, 600)
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
	MaxRetry    int            `mapstructure:"max_retry"`
}

// AdminConfig 管理接口配置
type AdminConfig struct {
	JWTSecret   string          `mapstructure:"jwt_secret"`
	TokenTTLMin int             `mapstructure:"token_ttl_minutes"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// Validate 校验 webhook 处理所需的必填项，缺失任何一项都不应处理请求
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrWebhookConfigInvalid)
	}
	var missing []string
	if strings.TrimSpace(c.Coinbase.SharedSecret) == "" {
		missing = append(missing, "coinbase.shared_secret")
	}
	if strings.TrimSpace(c.Shopify.Store) == "" && strings.TrimSpace(c.Shopify.BaseURL) == "" {
		missing = append(missing, "shopify.store")
	}
	if strings.TrimSpace(c.Shopify.AccessToken) == "" {
		missing = append(missing, "shopify.access_token")
	}
	if strings.TrimSpace(c.Reconcile.DefaultCurrency) == "" {
		missing = append(missing, "reconcile.default_currency")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrWebhookConfigInvalid, strings.Join(missing, ", "))
	}
	return nil
}

// Load 从 config.yml 加载配置
func Load() *Config {
	cfg, err := LoadWith(viper.New(), ".", "./etc", "../")
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("config parse failed: %w", err))
	}
	return cfg
}

// LoadWith 使用给定的 viper 实例与搜索路径加载配置
func LoadWith(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	setDefaults(v)

	// 环境变量支持：shopify.access_token -> SHOPIFY_ACCESS_TOKEN
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "coinsettle.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	// 以下键没有默认值，但必须注册才能被环境变量覆盖
	v.SetDefault("coinbase.shared_secret", "")
	v.SetDefault("coinbase.signature_header", constants.CoinbaseSignatureHeader)
	v.SetDefault("shopify.store", "")
	v.SetDefault("shopify.access_token", "")
	v.SetDefault("shopify.base_url", "")
	v.SetDefault("shopify.api_version", constants.ShopifyAPIVersionDefault)
	v.SetDefault("shopify.timeout_seconds", 10)
	v.SetDefault("reconcile.default_currency", constants.CurrencyDefault)
	v.SetDefault("reconcile.transaction_kind", constants.ShopifyTransactionCapture)
	v.SetDefault("reconcile.gateway", "")
	v.SetDefault("reconcile.notify_enabled", true)
	v.SetDefault("reconcile.notify_timeout_seconds", 10)
	v.SetDefault("reconcile.processing_stale_seconds", 120)
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/coinsettle.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "cs")
	v.SetDefault("resolver_cache.ttl_seconds", 600)
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.max_retry", 5)
	v.SetDefault("queue.queues", map[string]int{
		"default": 1,
	})
	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.token_ttl_minutes", 60)
	v.SetDefault("admin.rate_limit.window_seconds", 60)
	v.SetDefault("admin.rate_limit.max_requests", 120)
}

func (c *Config) normalize() {
	c.Coinbase.SharedSecret = strings.TrimSpace(c.Coinbase.SharedSecret)
	c.Coinbase.SignatureHeader = strings.TrimSpace(c.Coinbase.SignatureHeader)
	c.Shopify.Store = strings.TrimSuffix(strings.TrimSpace(c.Shopify.Store), ".myshopify.com")
	c.Shopify.AccessToken = strings.TrimSpace(c.Shopify.AccessToken)
	c.Shopify.BaseURL = strings.TrimRight(strings.TrimSpace(c.Shopify.BaseURL), "/")
	c.Reconcile.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.Reconcile.DefaultCurrency))
	c.Reconcile.TransactionKind = strings.ToLower(strings.TrimSpace(c.Reconcile.TransactionKind))
	if c.Reconcile.TransactionKind == "" {
		c.Reconcile.TransactionKind = constants.ShopifyTransactionCapture
	}
}

func secondsOr(seconds int, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
