package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coinsettle/internal/commerce/shopify"
	"github.com/coinsettle/internal/constants"
	"github.com/coinsettle/internal/models"
	"github.com/coinsettle/internal/payment/coinbase"
	"github.com/coinsettle/internal/repository"

	"github.com/shopspring/decimal"
)

const defaultProcessingStale = 2 * time.Minute

// ReceiptStore 幂等回执存储
type ReceiptStore interface {
	Claim(receipt *models.WebhookReceipt, now time.Time, staleAfter time.Duration) (*repository.ClaimResult, error)
	MarkApplied(chargeID, orderID, transactionID string, at time.Time) error
	MarkFailed(chargeID, orderID, reason string, at time.Time) error
}

// ReconcilerOptions 对账参数
type ReconcilerOptions struct {
	TransactionKind string
	Gateway         string
	NotifyEnabled   bool
	ProcessingStale time.Duration
	Now             func() time.Time
}

// ReconciliationOutcome 单次入账结果
type ReconciliationOutcome struct {
	Applied       bool
	HTTPStatus    int
	Detail        string
	TransactionID string
	Duplicate     bool
}

// PaymentReconciler 在订单上创建收款交易，保证同一 charge 只入账一次
type PaymentReconciler struct {
	backend  OrderTransactions
	receipts ReceiptStore
	notifier Notifier
	opts     ReconcilerOptions
}

// NewPaymentReconciler 创建对账器，receipts 与 notifier 可为 nil
func NewPaymentReconciler(backend OrderTransactions, receipts ReceiptStore, notifier Notifier, opts ReconcilerOptions) *PaymentReconciler {
	opts.TransactionKind = strings.ToLower(strings.TrimSpace(opts.TransactionKind))
	if opts.TransactionKind != constants.ShopifyTransactionSale {
		opts.TransactionKind = constants.ShopifyTransactionCapture
	}
	if opts.ProcessingStale <= 0 {
		opts.ProcessingStale = defaultProcessingStale
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PaymentReconciler{
		backend:  backend,
		receipts: receipts,
		notifier: notifier,
		opts:     opts,
	}
}

// Apply 为订单入账。
// 依次检查本地回执、后端已有交易，均未命中时才创建交易；通知失败只影响 Detail。
func (r *PaymentReconciler) Apply(ctx context.Context, orderID string, event *coinbase.PaymentEvent) ReconciliationOutcome {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" || event == nil || r.backend == nil {
		return ReconciliationOutcome{HTTPStatus: http.StatusInternalServerError, Detail: ErrReconcileInvalid.Error()}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	chargeID := event.IdempotencyKey()
	log := reconcileLogger(
		"order_id", orderID,
		"charge_id", chargeID,
		"amount", event.Amount,
		"currency", event.Currency,
	)

	if outcome, done := r.claim(orderID, chargeID, event); done {
		log.Infow("reconcile_short_circuit",
			"http_status", outcome.HTTPStatus,
			"duplicate", outcome.Duplicate,
		)
		return outcome
	}

	existing, err := r.backend.ListTransactions(ctx, orderID)
	if err != nil {
		commerceErr := classifyCommerceError(err)
		log.Warnw("reconcile_list_transactions_failed", "error", err)
		return r.fail(orderID, chargeID, commerceErr)
	}
	if match := findAppliedTransaction(existing, chargeID, event); match != nil {
		txnID := match.ID.String()
		log.Infow("reconcile_transaction_exists", "transaction_id", txnID)
		r.markApplied(orderID, chargeID, txnID)
		return ReconciliationOutcome{
			Applied:       true,
			HTTPStatus:    http.StatusOK,
			Detail:        "already applied",
			TransactionID: txnID,
			Duplicate:     true,
		}
	}

	created, err := r.backend.CreateTransaction(ctx, orderID, r.buildTransaction(chargeID, event))
	if err != nil {
		commerceErr := classifyCommerceError(err)
		log.Warnw("reconcile_create_transaction_failed",
			"error", err,
			"status_code", commerceErr.StatusCode,
		)
		return r.fail(orderID, chargeID, commerceErr)
	}
	txnID := ""
	if created != nil {
		txnID = created.ID.String()
	}
	r.markApplied(orderID, chargeID, txnID)
	log.Infow("reconcile_transaction_created", "transaction_id", txnID)

	outcome := ReconciliationOutcome{
		Applied:       true,
		HTTPStatus:    http.StatusOK,
		Detail:        constants.WebhookMessageOK,
		TransactionID: txnID,
	}
	if r.opts.NotifyEnabled && r.notifier != nil {
		if err := r.notifier.Notify(ctx, orderID, chargeID); err != nil {
			log.Warnw("reconcile_notify_failed", "error", err)
			outcome.Detail = "applied; notification failed: " + err.Error()
		}
	}
	return outcome
}

// claim 抢占本地回执，返回 done=true 表示无需继续处理
func (r *PaymentReconciler) claim(orderID, chargeID string, event *coinbase.PaymentEvent) (ReconciliationOutcome, bool) {
	if r.receipts == nil || chargeID == "" {
		return ReconciliationOutcome{}, false
	}
	amount, _ := models.ParseAmount(event.Amount)
	receipt := &models.WebhookReceipt{
		ChargeID:   chargeID,
		ChargeCode: event.ChargeCode,
		EventID:    event.EventID,
		EventType:  event.EventType,
		OrderRef:   event.OrderReference.Value,
		OrderID:    orderID,
		Amount:     amount,
		Currency:   event.Currency,
		Payload:    models.JSON(event.Raw),
	}
	result, err := r.receipts.Claim(receipt, r.opts.Now(), r.opts.ProcessingStale)
	if err != nil {
		reconcileLogger("charge_id", chargeID).Errorw("reconcile_receipt_claim_failed", "error", err)
		return ReconciliationOutcome{
			HTTPStatus: http.StatusInternalServerError,
			Detail:     ErrReceiptStoreFailed.Error(),
		}, true
	}
	switch result.State {
	case repository.ClaimAlreadyApplied:
		txnID := ""
		if result.Receipt != nil {
			txnID = result.Receipt.TransactionID
		}
		return ReconciliationOutcome{
			Applied:       true,
			HTTPStatus:    http.StatusOK,
			Detail:        "already applied",
			TransactionID: txnID,
			Duplicate:     true,
		}, true
	case repository.ClaimInFlight:
		return ReconciliationOutcome{
			HTTPStatus: http.StatusConflict,
			Detail:     ErrDeliveryInFlight.Error(),
		}, true
	}
	return ReconciliationOutcome{}, false
}

func (r *PaymentReconciler) buildTransaction(chargeID string, event *coinbase.PaymentEvent) shopify.TransactionInput {
	input := shopify.TransactionInput{
		Kind:          r.opts.TransactionKind,
		Status:        constants.ShopifyTransactionSuccess,
		Authorization: chargeID,
		Gateway:       r.opts.Gateway,
	}
	// 金额为 0 时不传，由后端按未结金额入账
	if amount, err := decimal.NewFromString(event.Amount); err == nil && amount.IsPositive() {
		input.Amount = event.Amount
		input.Currency = event.Currency
	}
	return input
}

func (r *PaymentReconciler) fail(orderID, chargeID string, commerceErr *CommerceError) ReconciliationOutcome {
	if r.receipts != nil && chargeID != "" {
		if err := r.receipts.MarkFailed(chargeID, orderID, commerceErr.Error(), r.opts.Now()); err != nil {
			reconcileLogger("charge_id", chargeID).Errorw("reconcile_receipt_mark_failed_failed", "error", err)
		}
	}
	return ReconciliationOutcome{
		HTTPStatus: commerceErr.HTTPStatus(),
		Detail:     commerceErr.Detail(),
	}
}

func (r *PaymentReconciler) markApplied(orderID, chargeID, txnID string) {
	if r.receipts == nil || chargeID == "" {
		return
	}
	if err := r.receipts.MarkApplied(chargeID, orderID, txnID, r.opts.Now()); err != nil {
		reconcileLogger("charge_id", chargeID).Errorw("reconcile_receipt_mark_applied_failed", "error", err)
	}
}

// findAppliedTransaction 查找同一 charge，或无授权号且同金额同币种的成功收款
func findAppliedTransaction(transactions []shopify.Transaction, chargeID string, event *coinbase.PaymentEvent) *shopify.Transaction {
	amount, err := decimal.NewFromString(event.Amount)
	amountKnown := err == nil && amount.IsPositive()
	for i := range transactions {
		txn := transactions[i]
		if !txn.IsSuccessfulPayment() {
			continue
		}
		authorization := strings.TrimSpace(txn.Authorization)
		if chargeID != "" && authorization == chargeID {
			return &transactions[i]
		}
		// 带有其他 charge 授权号的交易不参与金额匹配
		if authorization != "" && authorization != chargeID {
			continue
		}
		if amountKnown && txn.MatchesAmount(event.Amount, event.Currency) {
			return &transactions[i]
		}
	}
	return nil
}

