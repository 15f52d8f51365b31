package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/coinsettle/internal/commerce/shopify"
)

var (
	ErrOrderReferenceMissing = errors.New("order reference missing")
	ErrOrderNotFound         = errors.New("order not found")
	ErrCommerceUnreachable   = errors.New("commerce backend unreachable")
	ErrCommerceRejected      = errors.New("commerce backend rejected request")
	ErrDeliveryInFlight      = errors.New("delivery already in progress")
	ErrReceiptStoreFailed    = errors.New("receipt store failed")
	ErrReconcileInvalid      = errors.New("reconcile input invalid")
	ErrReceiptNotFound       = errors.New("receipt not found")
	ErrNotifyFailed          = errors.New("order notify failed")
)

// CommerceError 商城后端调用失败，Err 为 ErrCommerceRejected 或 ErrCommerceUnreachable
type CommerceError struct {
	Err        error
	StatusCode int
	Body       string
	Timeout    bool
	Cause      error
}

func (e *CommerceError) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d body=%s", e.Err, e.StatusCode, e.Body)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Err, e.Cause)
	default:
		return e.Err.Error()
	}
}

func (e *CommerceError) Unwrap() error {
	return e.Err
}

// HTTPStatus 网关类状态码：传输失败 504，其余 502
func (e *CommerceError) HTTPStatus() int {
	if errors.Is(e.Err, ErrCommerceUnreachable) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// Detail 返回给调用方的失败说明，拒绝时为后端响应体
func (e *CommerceError) Detail() string {
	if e.StatusCode > 0 {
		return e.Body
	}
	if e.Timeout {
		return "commerce backend timeout"
	}
	return e.Err.Error()
}

// classifyCommerceError 将客户端错误归类为拒绝或不可达
func classifyCommerceError(err error) *CommerceError {
	if err == nil {
		return nil
	}
	var commerceErr *CommerceError
	if errors.As(err, &commerceErr) {
		return commerceErr
	}
	if statusErr, ok := shopify.AsStatusError(err); ok {
		return &CommerceError{
			Err:        ErrCommerceRejected,
			StatusCode: statusErr.StatusCode,
			Body:       statusErr.Body,
			Cause:      err,
		}
	}
	if shopify.IsTransportFailure(err) || shopify.IsTimeout(err) {
		return &CommerceError{
			Err:     ErrCommerceUnreachable,
			Timeout: shopify.IsTimeout(err),
			Cause:   err,
		}
	}
	return &CommerceError{Err: ErrCommerceRejected, Cause: err}
}
