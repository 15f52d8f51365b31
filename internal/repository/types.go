package repository

import "time"

// WebhookReceiptListFilter 查询回执列表的过滤条件
type WebhookReceiptListFilter struct {
	Page        int
	PageSize    int
	Status      string
	OrderID     string
	ChargeID    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
