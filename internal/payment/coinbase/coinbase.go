package coinbase

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrSignatureMissing = errors.New("coinbase signature missing")
	ErrSignatureInvalid = errors.New("coinbase signature invalid")
	ErrPayloadMalformed = errors.New("coinbase payload malformed")
)

// EventKind 事件类别
type EventKind string

const (
	EventKindPaymentConfirmed EventKind = "payment_confirmed"
	EventKindOther            EventKind = "other"
)

// OrderReferenceKind 订单引用类别
type OrderReferenceKind string

const (
	OrderReferenceNumericID   OrderReferenceKind = "numeric_id"
	OrderReferenceDisplayName OrderReferenceKind = "display_name"
	OrderReferenceMissing     OrderReferenceKind = "missing"
)

var numericIDPattern = regexp.MustCompile(`^\d+$`)

// OrderReference 事件中携带的订单引用，Kind 决定 Value 的含义
type OrderReference struct {
	Kind  OrderReferenceKind
	Value string
}

// ClassifyOrderReference 按纯数字正则对原始引用分类
func ClassifyOrderReference(raw string) OrderReference {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		return OrderReference{Kind: OrderReferenceMissing}
	case numericIDPattern.MatchString(value):
		return OrderReference{Kind: OrderReferenceNumericID, Value: value}
	default:
		return OrderReference{Kind: OrderReferenceDisplayName, Value: value}
	}
}

// IsNumeric 是否为可直接使用的订单 ID
func (r OrderReference) IsNumeric() bool {
	return r.Kind == OrderReferenceNumericID
}

// IsMissing 是否缺失订单引用
func (r OrderReference) IsMissing() bool {
	return r.Kind == OrderReferenceMissing || r.Kind == ""
}

func (r OrderReference) String() string {
	if r.IsMissing() {
		return string(OrderReferenceMissing)
	}
	return string(r.Kind) + ":" + r.Value
}

// PaymentEvent 验签后解析得到的支付事件
type PaymentEvent struct {
	EventID        string
	EventType      string
	Kind           EventKind
	OrderReference OrderReference
	Amount         string
	Currency       string
	ChargeID       string
	ChargeCode     string
	OccurredAt     *time.Time
	Raw            map[string]interface{}
}

// IsPaymentConfirmed 是否为支付确认事件
func (e *PaymentEvent) IsPaymentConfirmed() bool {
	return e != nil && e.Kind == EventKindPaymentConfirmed
}

// IdempotencyKey 幂等键，优先使用 charge id
func (e *PaymentEvent) IdempotencyKey() string {
	if e == nil {
		return ""
	}
	if e.ChargeID != "" {
		return e.ChargeID
	}
	return e.EventID
}
