package service

import (
	"context"
	"fmt"
	"time"

	"github.com/coinsettle/internal/queue"
)

const defaultNotifyTimeout = 10 * time.Second

// Notifier 入账后的订单通知
type Notifier interface {
	Notify(ctx context.Context, orderID string, chargeID string) error
}

// InlineNotifier 同步调用通知接口，使用独立超时
type InlineNotifier struct {
	backend OrderNotifier
	timeout time.Duration
}

// NewInlineNotifier 创建同步通知器
func NewInlineNotifier(backend OrderNotifier, timeout time.Duration) *InlineNotifier {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &InlineNotifier{backend: backend, timeout: timeout}
}

// Notify 调用后端通知接口
func (n *InlineNotifier) Notify(ctx context.Context, orderID string, chargeID string) error {
	if n == nil || n.backend == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.backend.NotifyOrder(ctx, orderID); err != nil {
		return fmt.Errorf("%w: %w", ErrNotifyFailed, err)
	}
	return nil
}

// QueueNotifier 队列启用时异步投递，否则回退到同步通知
type QueueNotifier struct {
	client   *queue.Client
	fallback Notifier
}

// NewQueueNotifier 创建队列通知器
func NewQueueNotifier(client *queue.Client, fallback Notifier) *QueueNotifier {
	return &QueueNotifier{client: client, fallback: fallback}
}

// Notify 入队或同步通知
func (n *QueueNotifier) Notify(ctx context.Context, orderID string, chargeID string) error {
	if n == nil {
		return nil
	}
	if n.client.Enabled() {
		err := n.client.EnqueueOrderNotify(queue.OrderNotifyPayload{
			OrderID:  orderID,
			ChargeID: chargeID,
		})
		if err != nil {
			return fmt.Errorf("%w: enqueue failed: %w", ErrNotifyFailed, err)
		}
		return nil
	}
	if n.fallback == nil {
		return nil
	}
	return n.fallback.Notify(ctx, orderID, chargeID)
}
