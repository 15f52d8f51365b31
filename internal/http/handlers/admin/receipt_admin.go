package admin

import (
	"errors"
	"strings"
	"time"

	"github.com/coinsettle/internal/http/handlers/shared"
	"github.com/coinsettle/internal/http/response"
	"github.com/coinsettle/internal/repository"
	"github.com/coinsettle/internal/service"

	"github.com/gin-gonic/gin"
)

// GetReceipts 获取 webhook 回执列表
func (h *Handler) GetReceipts(c *gin.Context) {
	if h.ReceiptService == nil {
		shared.RespondError(c, response.CodeInternal, "receipt store unavailable", nil)
		return
	}
	page, pageSize := shared.QueryPagination(c)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid created_from", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid created_to", err)
		return
	}

	receipts, total, err := h.ReceiptService.List(repository.WebhookReceiptListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      c.Query("status"),
		OrderID:     c.Query("order_id"),
		ChargeID:    c.Query("charge_id"),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "receipt fetch failed", err)
		return
	}
	response.SuccessWithPage(c, receipts, response.BuildPagination(page, pageSize, total))
}

// GetReceipt 按 charge id 获取单条回执
func (h *Handler) GetReceipt(c *gin.Context) {
	if h.ReceiptService == nil {
		shared.RespondError(c, response.CodeInternal, "receipt store unavailable", nil)
		return
	}
	receipt, err := h.ReceiptService.Get(c.Param("charge_id"))
	if err != nil {
		if errors.Is(err, service.ErrReceiptNotFound) {
			response.NotFound(c, "receipt not found")
			return
		}
		shared.RespondError(c, response.CodeInternal, "receipt fetch failed", err)
		return
	}
	response.Success(c, receipt)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
