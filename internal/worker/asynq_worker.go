package worker

import (
	"context"
	"errors"

	"github.com/coinsettle/internal/logger"
	"github.com/coinsettle/internal/provider"
	"github.com/coinsettle/internal/queue"
	"github.com/coinsettle/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	notifier service.Notifier
}

// NewConsumer 创建消费者，通知统一走同步通知器
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil {
		return &Consumer{}
	}
	return &Consumer{notifier: c.InlineNotifier}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderNotify, c.handleOrderNotify)
}

// handleOrderNotify 返回错误时由 asynq 按 max_retry 重试
func (c *Consumer) handleOrderNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseOrderNotifyPayload(task)
	if err != nil {
		logger.Warnw("worker_order_notify_payload_invalid", "error", err)
		return errors.Join(err, asynq.SkipRetry)
	}
	if c.notifier == nil {
		logger.Warnw("worker_order_notify_skip_notifier_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.notifier.Notify(ctx, payload.OrderID, payload.ChargeID); err != nil {
		logger.Warnw("worker_order_notify_failed",
			"order_id", payload.OrderID,
			"charge_id", payload.ChargeID,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_order_notify_done", "order_id", payload.OrderID, "charge_id", payload.ChargeID)
	return nil
}
