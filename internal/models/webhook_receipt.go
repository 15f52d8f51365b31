package models

import (
	"time"
)

// WebhookReceipt Coinbase 回调幂等回执，charge_id 唯一
type WebhookReceipt struct {
	ID            uint       `gorm:"primarykey" json:"id"`                                // 主键
	ChargeID      string     `gorm:"size:128;uniqueIndex;not null" json:"charge_id"`      // Coinbase charge id
	ChargeCode    string     `gorm:"size:64;index" json:"charge_code"`                    // Coinbase charge code
	EventID       string     `gorm:"size:128;index" json:"event_id"`                      // 事件ID
	EventType     string     `gorm:"size:64;not null" json:"event_type"`                  // 事件类型
	OrderRef      string     `gorm:"size:128" json:"order_ref"`                           // 原始订单引用
	OrderID       string     `gorm:"size:64;index" json:"order_id"`                       // 解析后的订单ID
	Amount        Amount     `gorm:"type:decimal(30,8);not null;default:0" json:"amount"` // 金额
	Currency      string     `gorm:"size:16;not null" json:"currency"`                    // 币种
	Status        string     `gorm:"size:32;index;not null" json:"status"`                // 回执状态
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`                  // 处理次数
	TransactionID string     `gorm:"size:64" json:"transaction_id"`                       // Shopify 交易ID
	LastError     string     `gorm:"type:text" json:"last_error"`                         // 最近一次错误
	Payload       JSON       `gorm:"type:json" json:"payload,omitempty"`                  // 原始事件
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt     time.Time  `gorm:"index" json:"updated_at"`                             // 更新时间
	AppliedAt     *time.Time `gorm:"index" json:"applied_at"`                             // 入账时间
}

// TableName 指定表名
func (WebhookReceipt) TableName() string {
	return "webhook_receipts"
}
