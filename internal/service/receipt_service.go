package service

import (
	"strings"

	"github.com/coinsettle/internal/models"
	"github.com/coinsettle/internal/repository"
)

// ReceiptReader 回执查询
type ReceiptReader interface {
	GetByChargeID(chargeID string) (*models.WebhookReceipt, error)
	ListAdmin(filter repository.WebhookReceiptListFilter) ([]models.WebhookReceipt, int64, error)
}

// ReceiptService 管理端回执查询服务
type ReceiptService struct {
	repo ReceiptReader
}

// NewReceiptService 创建回执查询服务
func NewReceiptService(repo ReceiptReader) *ReceiptService {
	return &ReceiptService{repo: repo}
}

// List 分页查询回执
func (s *ReceiptService) List(filter repository.WebhookReceiptListFilter) ([]models.WebhookReceipt, int64, error) {
	if s.repo == nil {
		return nil, 0, ErrReceiptStoreFailed
	}
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	filter.OrderID = strings.TrimSpace(filter.OrderID)
	filter.ChargeID = strings.TrimSpace(filter.ChargeID)
	return s.repo.ListAdmin(filter)
}

// Get 根据 charge id 获取回执
func (s *ReceiptService) Get(chargeID string) (*models.WebhookReceipt, error) {
	if s.repo == nil {
		return nil, ErrReceiptStoreFailed
	}
	chargeID = strings.TrimSpace(chargeID)
	if chargeID == "" {
		return nil, ErrReceiptNotFound
	}
	receipt, err := s.repo.GetByChargeID(chargeID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, ErrReceiptNotFound
	}
	return receipt, nil
}
