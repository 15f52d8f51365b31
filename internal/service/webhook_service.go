package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coinsettle/internal/config"
	"github.com/coinsettle/internal/constants"
	"github.com/coinsettle/internal/payment/coinbase"
)

// WebhookInput webhook 请求，Body 为原始字节
type WebhookInput struct {
	Headers map[string]string
	Body    []byte
}

// WebhookResult 处理结果，HTTPStatus 直接作为响应状态码
type WebhookResult struct {
	HTTPStatus int
	Message    string
	EventType  string
	ChargeID   string
	OrderID    string
	Outcome    *ReconciliationOutcome
}

// OrderResolving 订单引用解析
type OrderResolving interface {
	Resolve(ctx context.Context, ref coinbase.OrderReference) (string, error)
}

// PaymentApplying 订单入账
type PaymentApplying interface {
	Apply(ctx context.Context, orderID string, event *coinbase.PaymentEvent) ReconciliationOutcome
}

// WebhookService Coinbase webhook 处理流水线：验签、解析、过滤、解析订单、入账
type WebhookService struct {
	cfg        *config.Config
	resolver   OrderResolving
	reconciler PaymentApplying
}

// NewWebhookService 创建 webhook 服务
func NewWebhookService(cfg *config.Config, resolver OrderResolving, reconciler PaymentApplying) *WebhookService {
	return &WebhookService{
		cfg:        cfg,
		resolver:   resolver,
		reconciler: reconciler,
	}
}

type resolutionErrorMapping struct {
	target  error
	status  int
	message string
}

var resolutionErrorMappings = []resolutionErrorMapping{
	{target: ErrOrderReferenceMissing, status: http.StatusBadRequest, message: constants.WebhookMessageMissingOrder},
	{target: ErrOrderNotFound, status: http.StatusBadGateway, message: constants.WebhookMessageOrderNotFound},
	{target: ErrCommerceUnreachable, status: http.StatusGatewayTimeout, message: constants.WebhookMessageCommerceUnreachable},
}

// HandleCoinbaseWebhook 处理一次 webhook 投递，任何错误都转换为结果而不向上抛出
func (s *WebhookService) HandleCoinbaseWebhook(ctx context.Context, input WebhookInput) WebhookResult {
	if ctx == nil {
		ctx = context.Background()
	}
	log := reconcileLogger("body_size", len(input.Body))

	if err := s.cfg.Validate(); err != nil {
		log.Errorw("coinbase_webhook_config_invalid", "error", err)
		return WebhookResult{HTTPStatus: http.StatusInternalServerError, Message: constants.WebhookMessageMisconfiguration}
	}
	if s.resolver == nil || s.reconciler == nil {
		log.Errorw("coinbase_webhook_pipeline_incomplete")
		return WebhookResult{HTTPStatus: http.StatusInternalServerError, Message: constants.WebhookMessageMisconfiguration}
	}

	if err := coinbase.VerifyRequest(input.Headers, s.cfg.Coinbase.SignatureHeader, input.Body, s.cfg.Coinbase.SharedSecret); err != nil {
		log.Warnw("coinbase_webhook_signature_rejected", "error", err)
		message := constants.WebhookMessageSignatureInvalid
		if errors.Is(err, coinbase.ErrSignatureMissing) {
			message = constants.WebhookMessageSignatureMissing
		}
		return WebhookResult{HTTPStatus: http.StatusBadRequest, Message: message}
	}

	event, err := coinbase.ParseEvent(input.Body, s.cfg.Reconcile.DefaultCurrency)
	if err != nil {
		log.Warnw("coinbase_webhook_payload_invalid", "error", err)
		return WebhookResult{HTTPStatus: http.StatusBadRequest, Message: constants.WebhookMessageMalformed}
	}
	result := WebhookResult{EventType: event.EventType, ChargeID: event.IdempotencyKey()}
	log = log.With(
		"event_type", event.EventType,
		"event_id", event.EventID,
		"charge_id", result.ChargeID,
		"order_ref", event.OrderReference.String(),
	)
	log.Infow("coinbase_webhook_event_parsed")

	if !event.IsPaymentConfirmed() {
		log.Infow("coinbase_webhook_event_ignored")
		result.HTTPStatus = http.StatusOK
		result.Message = constants.WebhookMessageIgnored
		return result
	}

	orderID, err := s.resolver.Resolve(ctx, event.OrderReference)
	if err != nil {
		result.HTTPStatus, result.Message = mapResolutionError(err)
		log.Warnw("coinbase_webhook_resolve_failed", "error", err, "http_status", result.HTTPStatus)
		return result
	}
	result.OrderID = orderID

	outcome := s.reconciler.Apply(ctx, orderID, event)
	result.Outcome = &outcome
	switch {
	case outcome.Applied:
		result.HTTPStatus = http.StatusOK
		result.Message = constants.WebhookMessageOK
	case outcome.HTTPStatus == http.StatusConflict:
		result.HTTPStatus = http.StatusConflict
		result.Message = constants.WebhookMessageInFlight
	default:
		// 入账失败统一返回 500 并附带后端响应，交由上游重投
		result.HTTPStatus = http.StatusInternalServerError
		result.Message = fmt.Sprintf("Shopify error: %s", outcome.Detail)
	}
	log.Infow("coinbase_webhook_processed",
		"order_id", orderID,
		"applied", outcome.Applied,
		"duplicate", outcome.Duplicate,
		"reconcile_status", outcome.HTTPStatus,
		"http_status", result.HTTPStatus,
	)
	return result
}

func mapResolutionError(err error) (int, string) {
	for _, mapping := range resolutionErrorMappings {
		if errors.Is(err, mapping.target) {
			return mapping.status, mapping.message
		}
	}
	var commerceErr *CommerceError
	if errors.As(err, &commerceErr) {
		return commerceErr.HTTPStatus(), fmt.Sprintf("Shopify error: %s", commerceErr.Detail())
	}
	return http.StatusInternalServerError, constants.WebhookMessageInternalError
}
