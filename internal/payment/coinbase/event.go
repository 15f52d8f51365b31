package coinbase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/coinsettle/internal/constants"

	"github.com/shopspring/decimal"
)

const minAmountScale = 2

var orderReferenceKeys = []string{
	constants.MetadataKeyShopifyOrderID,
	constants.MetadataKeyOrderID,
	constants.MetadataKeyName,
}

// ParseEvent 解析 webhook 请求体，字段缺失时按默认值补齐，仅在无法解码时返回错误
func ParseEvent(body []byte, defaultCurrency string) (*PaymentEvent, error) {
	root, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}

	eventRaw := readMap(root, "event")
	if eventRaw == nil {
		eventRaw = root
	}
	dataRaw := readMap(eventRaw, "data")
	if dataRaw == nil {
		dataRaw = readMap(root, "data")
	}

	eventType := readString(eventRaw, "type")
	event := &PaymentEvent{
		EventID:    readString(eventRaw, "id"),
		EventType:  eventType,
		Kind:       classifyEventKind(eventType),
		ChargeCode: readString(dataRaw, "code"),
		OccurredAt: parseTime(readString(eventRaw, "created_at")),
		Raw:        root,
	}
	event.ChargeID = readString(dataRaw, "id")
	if event.ChargeID == "" {
		event.ChargeID = event.ChargeCode
	}
	event.OrderReference = extractOrderReference(readMap(dataRaw, "metadata"))

	local := readMap(readMap(dataRaw, "pricing"), "local")
	event.Amount = normalizeAmount(readString(local, "amount"))
	event.Currency = strings.ToUpper(readString(local, "currency"))
	if event.Currency == "" {
		event.Currency = strings.ToUpper(strings.TrimSpace(defaultCurrency))
	}
	return event, nil
}

func classifyEventKind(eventType string) EventKind {
	if eventType == constants.CoinbaseEventChargeConfirmed {
		return EventKindPaymentConfirmed
	}
	return EventKindOther
}

func extractOrderReference(metadata map[string]interface{}) OrderReference {
	for _, key := range orderReferenceKeys {
		ref := ClassifyOrderReference(readString(metadata, key))
		if !ref.IsMissing() {
			return ref
		}
	}
	return OrderReference{Kind: OrderReferenceMissing}
}

// normalizeAmount 金额仅作参考，无法解析或为负时按 0 处理
func normalizeAmount(raw string) string {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || amount.IsNegative() {
		return "0"
	}
	if amount.IsZero() {
		return "0"
	}
	scale := int32(minAmountScale)
	if exp := -amount.Exponent(); exp > scale {
		scale = exp
	}
	return amount.StringFixed(scale)
}

func parseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrPayloadMalformed)
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var raw interface{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode body failed", ErrPayloadMalformed)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after json body", ErrPayloadMalformed)
	}
	mapped, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: root is not an object", ErrPayloadMalformed)
	}
	return mapped, nil
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil || strings.TrimSpace(key) == "" {
		return ""
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case float64:
		return strings.TrimSpace(strconv.FormatFloat(typed, 'f', -1, 64))
	case int64:
		return strings.TrimSpace(strconv.FormatInt(typed, 10))
	case int:
		return strings.TrimSpace(strconv.Itoa(typed))
	default:
		return ""
	}
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	if raw == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return nil
	}
	mapped, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	return mapped
}
