package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClientDerivesBaseURL(t *testing.T) {
	client, err := NewClient(Config{Store: "demo.myshopify.com", AccessToken: "tok"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.BaseURL() != "https://demo.myshopify.com/admin/api/2024-04" {
		t.Fatalf("unexpected base url: %s", client.BaseURL())
	}
	if _, err := NewClient(Config{Store: "demo"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid without token, got %v", err)
	}
	if _, err := NewClient(Config{AccessToken: "tok"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid without store, got %v", err)
	}
}

func TestFindOrdersByNameEncodesName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Shopify-Access-Token") != "tok" {
			t.Errorf("missing access token header")
		}
		if r.URL.Path != "/orders.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.RawQuery != "name=%231003&status=any" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"orders":[{"id":9981,"name":"#1003"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, AccessToken: "tok"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	orders, err := client.FindOrdersByName(context.Background(), "#1003")
	if err != nil {
		t.Fatalf("find orders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].ID.String() != "9981" {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}

func TestCreateTransactionSendsPayload(t *testing.T) {
	var captured map[string]map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders/4004/transactions.json" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode body failed: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"transaction":{"id":555,"kind":"capture","status":"success","amount":"12.50","currency":"USD"}}`))
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL, AccessToken: "tok"})
	txn, err := client.CreateTransaction(context.Background(), "4004", TransactionInput{
		Kind:          "capture",
		Status:        "success",
		Amount:        "12.50",
		Currency:      "USD",
		Authorization: "charge-1",
	})
	if err != nil {
		t.Fatalf("create transaction failed: %v", err)
	}
	if txn.ID.String() != "555" {
		t.Fatalf("unexpected transaction id: %s", txn.ID)
	}
	payload := captured["transaction"]
	if payload["amount"] != "12.50" || payload["currency"] != "USD" || payload["authorization"] != "charge-1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if _, ok := payload["gateway"]; ok {
		t.Fatalf("empty gateway should be omitted: %+v", payload)
	}
}

func TestNonSuccessStatusCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"amount":["is invalid"]}}`))
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL, AccessToken: "tok"})
	err := client.NotifyOrder(context.Background(), "1")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
	statusErr, ok := AsStatusError(err)
	if !ok || statusErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status error 422, got %v", err)
	}
	if statusErr.Body != `{"errors":{"amount":["is invalid"]}}` {
		t.Fatalf("unexpected body: %s", statusErr.Body)
	}
	if IsTransportFailure(err) {
		t.Fatalf("status error should not be a transport failure")
	}
}

func TestTimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client, _ := NewClient(Config{BaseURL: server.URL, AccessToken: "tok", Timeout: 50 * time.Millisecond})
	_, err := client.ListTransactions(context.Background(), "1")
	if !IsTransportFailure(err) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestUndecodableBodyIsResponseInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL, AccessToken: "tok"})
	if _, err := client.FindOrdersByName(context.Background(), "#1"); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected ErrResponseInvalid, got %v", err)
	}
}

func TestTransactionMatchers(t *testing.T) {
	txn := Transaction{Kind: "Sale", Status: "success", Amount: "12.5", Currency: "usd"}
	if !txn.IsSuccessfulPayment() {
		t.Fatalf("sale/success should count as payment")
	}
	if !txn.MatchesAmount("12.50", "USD") {
		t.Fatalf("amount should match numerically")
	}
	if txn.MatchesAmount("12.51", "USD") {
		t.Fatalf("different amount should not match")
	}
	if (Transaction{Kind: "refund", Status: "success"}).IsSuccessfulPayment() {
		t.Fatalf("refund should not count as payment")
	}
}
