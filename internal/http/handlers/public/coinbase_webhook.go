package public

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/coinsettle/internal/constants"
	"github.com/coinsettle/internal/http/handlers/shared"
	"github.com/coinsettle/internal/http/response"
	"github.com/coinsettle/internal/service"

	"github.com/gin-gonic/gin"
)

const callbackLogValueLimit = 4096

// CoinbaseWebhook Coinbase Commerce webhook 回调。
// 原始请求体不做任何改写直接参与验签。
func (h *Handler) CoinbaseWebhook(c *gin.Context) {
	log := shared.RequestLog(c)
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		response.Status(c, http.StatusMethodNotAllowed, constants.WebhookMessageMethodNotAllowed)
		return
	}
	if h == nil || h.Container == nil || h.WebhookService == nil {
		log.Errorw("coinbase_webhook_service_missing")
		response.Status(c, http.StatusInternalServerError, constants.WebhookMessageMisconfiguration)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, constants.WebhookMaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warnw("coinbase_webhook_body_too_large", "limit", tooLarge.Limit)
			response.Status(c, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
			return
		}
		log.Warnw("coinbase_webhook_body_read_failed", "error", err)
		response.Status(c, http.StatusBadRequest, constants.WebhookMessageMalformed)
		return
	}
	log.Infow("coinbase_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"signature", truncateCallbackLogValue(c.GetHeader(constants.CoinbaseSignatureHeader)),
		"raw_body", truncateCallbackLogValue(string(body)),
	)

	result := h.WebhookService.HandleCoinbaseWebhook(c.Request.Context(), service.WebhookInput{
		Headers: flattenHeaders(c.Request.Header),
		Body:    body,
	})
	log.Infow("coinbase_webhook_responded",
		"http_status", result.HTTPStatus,
		"event_type", result.EventType,
		"charge_id", result.ChargeID,
		"order_id", result.OrderID,
	)
	response.Status(c, result.HTTPStatus, result.Message)
}

// flattenHeaders 每个请求头只保留首个值
func flattenHeaders(header http.Header) map[string]string {
	headers := make(map[string]string, len(header))
	for key, values := range header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}
	return headers
}

func truncateCallbackLogValue(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) <= callbackLogValueLimit {
		return raw
	}
	return raw[:callbackLogValueLimit] + "...(truncated)"
}
