package service

import (
	"context"

	"github.com/coinsettle/internal/commerce/shopify"
	"github.com/coinsettle/internal/logger"

	"go.uber.org/zap"
)

// OrderLookup 按展示名查询订单
type OrderLookup interface {
	FindOrdersByName(ctx context.Context, name string) ([]shopify.Order, error)
}

// OrderTransactions 订单交易读写
type OrderTransactions interface {
	ListTransactions(ctx context.Context, orderID string) ([]shopify.Transaction, error)
	CreateTransaction(ctx context.Context, orderID string, input shopify.TransactionInput) (*shopify.Transaction, error)
}

// OrderNotifier 订单通知
type OrderNotifier interface {
	NotifyOrder(ctx context.Context, orderID string) error
}

// CommerceBackend 商城后端能力集合，*shopify.Client 实现该接口
type CommerceBackend interface {
	OrderLookup
	OrderTransactions
	OrderNotifier
}

var _ CommerceBackend = (*shopify.Client)(nil)

func reconcileLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}
