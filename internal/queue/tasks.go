package queue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coinsettle/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderNotify 入账后的订单通知任务
	TaskOrderNotify = constants.TaskOrderNotify
)

// OrderNotifyPayload 订单通知任务载荷
type OrderNotifyPayload struct {
	OrderID  string `json:"order_id"`
	ChargeID string `json:"charge_id"`
}

// NewOrderNotifyTask 创建订单通知任务
func NewOrderNotifyTask(payload OrderNotifyPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.OrderID) == "" {
		return nil, fmt.Errorf("order id is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderNotify, body), nil
}

// ParseOrderNotifyPayload 解析订单通知任务载荷
func ParseOrderNotifyPayload(task *asynq.Task) (OrderNotifyPayload, error) {
	var payload OrderNotifyPayload
	if task == nil {
		return payload, fmt.Errorf("task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	if strings.TrimSpace(payload.OrderID) == "" {
		return payload, fmt.Errorf("order id is required")
	}
	return payload, nil
}
