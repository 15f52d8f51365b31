package cache

import (
	"context"
	"strings"
	"time"
)

const defaultOrderNameTTL = 10 * time.Minute

// OrderNameEntry 订单展示名到订单 ID 的缓存快照
type OrderNameEntry struct {
	OrderID    string `json:"order_id"`
	ResolvedAt int64  `json:"resolved_at"`
}

// OrderNameCache 订单展示名解析缓存，Redis 未启用时始终未命中
type OrderNameCache struct {
	ttl time.Duration
}

// NewOrderNameCache 创建订单展示名缓存
func NewOrderNameCache(ttl time.Duration) *OrderNameCache {
	if ttl <= 0 {
		ttl = defaultOrderNameTTL
	}
	return &OrderNameCache{ttl: ttl}
}

// Get 读取缓存的订单 ID
func (c *OrderNameCache) Get(ctx context.Context, name string) (string, bool, error) {
	var entry OrderNameEntry
	hit, err := GetJSON(ctx, orderNameKey(name), &entry)
	if err != nil || !hit {
		return "", false, err
	}
	if strings.TrimSpace(entry.OrderID) == "" {
		return "", false, nil
	}
	return entry.OrderID, true, nil
}

// Set 写入订单 ID
func (c *OrderNameCache) Set(ctx context.Context, name string, orderID string) error {
	return SetJSON(ctx, orderNameKey(name), OrderNameEntry{
		OrderID:    orderID,
		ResolvedAt: time.Now().Unix(),
	}, c.ttl)
}

// TTL 缓存有效期
func (c *OrderNameCache) TTL() time.Duration {
	return c.ttl
}

func orderNameKey(name string) string {
	return "order_name:" + strings.ToLower(strings.TrimSpace(name))
}
