package shopify

import (
	"encoding/json"
	"strings"

	"github.com/coinsettle/internal/constants"

	"github.com/shopspring/decimal"
)

// Order 订单查询结果，仅保留对账需要的字段
type Order struct {
	ID              json.Number `json:"id"`
	Name            string      `json:"name"`
	Currency        string      `json:"currency"`
	TotalPrice      string      `json:"total_price"`
	FinancialStatus string      `json:"financial_status"`
}

// Transaction 订单交易
type Transaction struct {
	ID            json.Number `json:"id,omitempty"`
	OrderID       json.Number `json:"order_id,omitempty"`
	Kind          string      `json:"kind"`
	Status        string      `json:"status"`
	Amount        string      `json:"amount"`
	Currency      string      `json:"currency"`
	Authorization string      `json:"authorization"`
	Gateway       string      `json:"gateway"`
}

// TransactionInput 创建交易的请求参数，空字段不发送
type TransactionInput struct {
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	Amount        string `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
	Authorization string `json:"authorization,omitempty"`
	Gateway       string `json:"gateway,omitempty"`
}

// IsSuccessfulPayment 是否为成功的收款类交易
func (t Transaction) IsSuccessfulPayment() bool {
	kind := strings.ToLower(strings.TrimSpace(t.Kind))
	if kind != constants.ShopifyTransactionCapture && kind != constants.ShopifyTransactionSale {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(t.Status), constants.ShopifyTransactionSuccess)
}

// MatchesAmount 金额与币种是否一致，金额按数值比较
func (t Transaction) MatchesAmount(amount string, currency string) bool {
	if !strings.EqualFold(strings.TrimSpace(t.Currency), strings.TrimSpace(currency)) {
		return false
	}
	left, err := decimal.NewFromString(strings.TrimSpace(t.Amount))
	if err != nil {
		return false
	}
	right, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return false
	}
	return left.Equal(right)
}

type ordersResponse struct {
	Orders []Order `json:"orders"`
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type transactionRequest struct {
	Transaction TransactionInput `json:"transaction"`
}

type transactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}
