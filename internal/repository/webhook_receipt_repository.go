package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/coinsettle/internal/constants"
	"github.com/coinsettle/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimState 回执抢占结果
type ClaimState string

const (
	// ClaimAcquired 当前请求获得处理权
	ClaimAcquired ClaimState = "acquired"
	// ClaimAlreadyApplied 该 charge 已入账
	ClaimAlreadyApplied ClaimState = "already_applied"
	// ClaimInFlight 另一请求正在处理
	ClaimInFlight ClaimState = "in_flight"
)

// ClaimResult 抢占结果与当前回执
type ClaimResult struct {
	State   ClaimState
	Receipt *models.WebhookReceipt
}

// WebhookReceiptRepository 回执数据访问接口
type WebhookReceiptRepository interface {
	Claim(receipt *models.WebhookReceipt, now time.Time, staleAfter time.Duration) (*ClaimResult, error)
	GetByChargeID(chargeID string) (*models.WebhookReceipt, error)
	MarkApplied(chargeID, orderID, transactionID string, at time.Time) error
	MarkFailed(chargeID, orderID, reason string, at time.Time) error
	ListAdmin(filter WebhookReceiptListFilter) ([]models.WebhookReceipt, int64, error)
}

// GormWebhookReceiptRepository GORM 实现
type GormWebhookReceiptRepository struct {
	db *gorm.DB
}

// NewWebhookReceiptRepository 创建回执仓库
func NewWebhookReceiptRepository(db *gorm.DB) *GormWebhookReceiptRepository {
	return &GormWebhookReceiptRepository{db: db}
}

// Claim 以 charge_id 唯一约束抢占处理权。
// 已入账返回 ClaimAlreadyApplied；处理中且未过期返回 ClaimInFlight；失败或过期的处理中回执会被重新抢占。
func (r *GormWebhookReceiptRepository) Claim(receipt *models.WebhookReceipt, now time.Time, staleAfter time.Duration) (*ClaimResult, error) {
	if receipt == nil || strings.TrimSpace(receipt.ChargeID) == "" {
		return nil, errors.New("charge id is required")
	}
	receipt.Status = constants.ReceiptStatusProcessing
	receipt.Attempts = 1
	receipt.CreatedAt = now
	receipt.UpdatedAt = now

	created := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "charge_id"}},
		DoNothing: true,
	}).Create(receipt)
	if created.Error != nil {
		return nil, created.Error
	}
	if created.RowsAffected == 1 {
		return &ClaimResult{State: ClaimAcquired, Receipt: receipt}, nil
	}

	existing, err := r.GetByChargeID(receipt.ChargeID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.New("receipt vanished after conflict")
	}

	switch existing.Status {
	case constants.ReceiptStatusApplied:
		return &ClaimResult{State: ClaimAlreadyApplied, Receipt: existing}, nil
	case constants.ReceiptStatusProcessing:
		if existing.UpdatedAt.After(now.Add(-staleAfter)) {
			return &ClaimResult{State: ClaimInFlight, Receipt: existing}, nil
		}
	}

	// attempts 作为乐观锁版本号，并发重新抢占时只有一个请求成功
	updated := r.db.Model(&models.WebhookReceipt{}).
		Where("charge_id = ? AND status = ? AND attempts = ?", existing.ChargeID, existing.Status, existing.Attempts).
		Updates(map[string]interface{}{
			"status":     constants.ReceiptStatusProcessing,
			"attempts":   existing.Attempts + 1,
			"event_id":   receipt.EventID,
			"event_type": receipt.EventType,
			"order_ref":  receipt.OrderRef,
			"amount":     receipt.Amount,
			"currency":   receipt.Currency,
			"payload":    receipt.Payload,
			"updated_at": now,
		})
	if updated.Error != nil {
		return nil, updated.Error
	}
	if updated.RowsAffected == 0 {
		return &ClaimResult{State: ClaimInFlight, Receipt: existing}, nil
	}
	reclaimed, err := r.GetByChargeID(existing.ChargeID)
	if err != nil {
		return nil, err
	}
	return &ClaimResult{State: ClaimAcquired, Receipt: reclaimed}, nil
}

// GetByChargeID 根据 charge id 获取回执
func (r *GormWebhookReceiptRepository) GetByChargeID(chargeID string) (*models.WebhookReceipt, error) {
	var receipt models.WebhookReceipt
	if err := r.db.Where("charge_id = ?", strings.TrimSpace(chargeID)).First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &receipt, nil
}

// MarkApplied 标记已入账
func (r *GormWebhookReceiptRepository) MarkApplied(chargeID, orderID, transactionID string, at time.Time) error {
	return r.db.Model(&models.WebhookReceipt{}).
		Where("charge_id = ?", chargeID).
		Updates(map[string]interface{}{
			"status":         constants.ReceiptStatusApplied,
			"order_id":       orderID,
			"transaction_id": transactionID,
			"last_error":     "",
			"applied_at":     at,
			"updated_at":     at,
		}).Error
}

// MarkFailed 标记处理失败，允许后续重投时重新抢占
func (r *GormWebhookReceiptRepository) MarkFailed(chargeID, orderID, reason string, at time.Time) error {
	return r.db.Model(&models.WebhookReceipt{}).
		Where("charge_id = ? AND status <> ?", chargeID, constants.ReceiptStatusApplied).
		Updates(map[string]interface{}{
			"status":     constants.ReceiptStatusFailed,
			"order_id":   orderID,
			"last_error": reason,
			"updated_at": at,
		}).Error
}

// ListAdmin 管理端回执列表
func (r *GormWebhookReceiptRepository) ListAdmin(filter WebhookReceiptListFilter) ([]models.WebhookReceipt, int64, error) {
	query := r.db.Model(&models.WebhookReceipt{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.ChargeID != "" {
		query = query.Where("charge_id = ?", filter.ChargeID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var receipts []models.WebhookReceipt
	if err := query.Order("id desc").Find(&receipts).Error; err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}
