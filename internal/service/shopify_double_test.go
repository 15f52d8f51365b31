package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coinsettle/internal/commerce/shopify"
)

// shopifyDouble 记录调用次数与已创建交易的 Shopify 测试替身
type shopifyDouble struct {
	mu sync.Mutex

	ordersByName map[string][]int64
	transactions map[string][]shopify.Transaction
	nextTxnID    int64

	createStatus int
	createBody   string
	notifyStatus int

	lookups   int
	lists     int
	creates   int
	notifies  int
	lastName  string
	lastInput shopify.TransactionInput
}

func newShopifyDouble() *shopifyDouble {
	return &shopifyDouble{
		ordersByName: map[string][]int64{},
		transactions: map[string][]shopify.Transaction{},
		nextTxnID:    1000,
	}
}

func (d *shopifyDouble) start(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(d.serve))
	t.Cleanup(server.Close)
	return server
}

func (d *shopifyDouble) client(t *testing.T, baseURL string) *shopify.Client {
	t.Helper()
	client, err := shopify.NewClient(shopify.Config{BaseURL: baseURL, AccessToken: "shpat_test", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new shopify client failed: %v", err)
	}
	return client
}

func (d *shopifyDouble) totalCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookups + d.lists + d.creates + d.notifies
}

func (d *shopifyDouble) createdCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, txns := range d.transactions {
		total += len(txns)
	}
	return total
}

func (d *shopifyDouble) serve(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r.Header.Get("X-Shopify-Access-Token") != "shpat_test" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.URL.Path == "/orders.json" && r.Method == http.MethodGet {
		d.lookups++
		d.lastName = r.URL.Query().Get("name")
		orders := make([]map[string]interface{}, 0)
		for _, id := range d.ordersByName[d.lastName] {
			orders = append(orders, map[string]interface{}{"id": id, "name": d.lastName})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/orders/"), "/")
	if len(parts) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	orderID := parts[0]
	switch {
	case parts[1] == "transactions.json" && r.Method == http.MethodGet:
		d.lists++
		txns := d.transactions[orderID]
		if txns == nil {
			txns = []shopify.Transaction{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txns})
	case parts[1] == "transactions.json" && r.Method == http.MethodPost:
		d.creates++
		if d.createStatus != 0 {
			w.WriteHeader(d.createStatus)
			_, _ = w.Write([]byte(d.createBody))
			return
		}
		var req struct {
			Transaction shopify.TransactionInput `json:"transaction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		d.lastInput = req.Transaction
		d.nextTxnID++
		txn := shopify.Transaction{
			ID:            json.Number(fmt.Sprintf("%d", d.nextTxnID)),
			OrderID:       json.Number(orderID),
			Kind:          req.Transaction.Kind,
			Status:        req.Transaction.Status,
			Amount:        req.Transaction.Amount,
			Currency:      req.Transaction.Currency,
			Authorization: req.Transaction.Authorization,
			Gateway:       req.Transaction.Gateway,
		}
		d.transactions[orderID] = append(d.transactions[orderID], txn)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"transaction": txn})
	case parts[1] == "notify.json" && r.Method == http.MethodPost:
		d.notifies++
		if d.notifyStatus != 0 {
			w.WriteHeader(d.notifyStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
