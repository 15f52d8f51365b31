package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/coinsettle/internal/payment/coinbase"
)

// NameCache 展示名到订单 ID 的缓存
type NameCache interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name string, orderID string) error
}

// OrderResolver 将事件中的订单引用解析为订单 ID
type OrderResolver struct {
	lookup OrderLookup
	cache  NameCache
}

// NewOrderResolver 创建订单解析器，cache 可为 nil
func NewOrderResolver(lookup OrderLookup, cache NameCache) *OrderResolver {
	return &OrderResolver{lookup: lookup, cache: cache}
}

// Resolve 数字 ID 直接返回；展示名查询后取第一条；缺失时不发起任何请求
func (r *OrderResolver) Resolve(ctx context.Context, ref coinbase.OrderReference) (string, error) {
	switch {
	case ref.IsMissing():
		return "", ErrOrderReferenceMissing
	case ref.IsNumeric():
		return ref.Value, nil
	}

	name := strings.TrimSpace(ref.Value)
	log := reconcileLogger("order_name", name)
	if r.cache != nil {
		orderID, hit, err := r.cache.Get(ctx, name)
		if err != nil {
			log.Warnw("order_name_cache_get_failed", "error", err)
		} else if hit {
			log.Debugw("order_name_cache_hit", "order_id", orderID)
			return orderID, nil
		}
	}

	if r.lookup == nil {
		return "", &CommerceError{Err: ErrCommerceUnreachable}
	}
	orders, err := r.lookup.FindOrdersByName(ctx, name)
	if err != nil {
		commerceErr := classifyCommerceError(err)
		log.Warnw("order_lookup_failed",
			"error", err,
			"status_code", commerceErr.StatusCode,
		)
		return "", commerceErr
	}
	if len(orders) == 0 {
		log.Infow("order_lookup_empty")
		return "", fmt.Errorf("%w: name=%s", ErrOrderNotFound, name)
	}
	orderID := strings.TrimSpace(orders[0].ID.String())
	if orderID == "" {
		log.Warnw("order_lookup_missing_id")
		return "", fmt.Errorf("%w: name=%s has no id", ErrOrderNotFound, name)
	}
	if len(orders) > 1 {
		log.Warnw("order_lookup_multiple_matches", "count", len(orders), "order_id", orderID)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, name, orderID); err != nil {
			log.Warnw("order_name_cache_set_failed", "error", err)
		}
	}
	return orderID, nil
}
