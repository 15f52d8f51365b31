package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	amountMinScale = 2
	amountMaxScale = 8
)

// Amount 支付金额，至少保留 2 位小数，最多 8 位（兼容链上小额）
type Amount struct {
	decimal.Decimal
}

// ParseAmount 解析金额字符串，空串视为 0
func ParseAmount(raw string) (Amount, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Amount{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Amount{}, err
	}
	return NewAmount(d), nil
}

// NewAmount 从 decimal 创建金额
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Round(amountMaxScale)}
}

func (a Amount) scale() int32 {
	scale := -a.Decimal.Exponent()
	if scale < amountMinScale {
		return amountMinScale
	}
	if scale > amountMaxScale {
		return amountMaxScale
	}
	return scale
}

// String 返回规范化的金额字符串
func (a Amount) String() string {
	return a.Decimal.StringFixed(a.scale())
}

// MarshalJSON 以字符串输出
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON 解析金额（字符串或数字）
func (a *Amount) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value 用于数据库写入
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan 用于数据库读取
func (a *Amount) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*a = NewAmount(d)
	return nil
}
