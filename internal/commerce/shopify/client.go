package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coinsettle/internal/constants"
)

var (
	ErrConfigInvalid    = errors.New("shopify config invalid")
	ErrRequestFailed    = errors.New("shopify request failed")
	ErrUnexpectedStatus = errors.New("shopify unexpected status")
	ErrResponseInvalid  = errors.New("shopify response invalid")
)

const (
	defaultTimeout      = 10 * time.Second
	maxResponseBodySize = 1 << 20
)

// Config Shopify Admin API 连接配置
type Config struct {
	Store       string
	AccessToken string
	APIVersion  string
	BaseURL     string
	Timeout     time.Duration
}

// StatusError 非 2xx 响应，携带响应体
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status=%d body=%s", ErrUnexpectedStatus, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Client Shopify Admin REST 客户端
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient 创建客户端，BaseURL 为空时按店铺名推导
func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, fmt.Errorf("%w: access_token is required", ErrConfigInvalid)
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		store := strings.TrimSuffix(strings.TrimSpace(cfg.Store), ".myshopify.com")
		if store == "" {
			return nil, fmt.Errorf("%w: store is required", ErrConfigInvalid)
		}
		version := strings.TrimSpace(cfg.APIVersion)
		if version == "" {
			version = constants.ShopifyAPIVersionDefault
		}
		baseURL = fmt.Sprintf("https://%s.myshopify.com/admin/api/%s", store, version)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: token,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL 返回实际请求地址前缀
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FindOrdersByName 按订单展示名查询订单
func (c *Client) FindOrdersByName(ctx context.Context, name string) ([]Order, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("status", "any")
	body, err := c.do(ctx, http.MethodGet, "/orders.json?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var resp ordersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode orders failed", ErrResponseInvalid)
	}
	return resp.Orders, nil
}

// ListTransactions 查询订单已有交易
func (c *Client) ListTransactions(ctx context.Context, orderID string) ([]Transaction, error) {
	body, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/transactions.json", nil)
	if err != nil {
		return nil, err
	}
	var resp transactionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode transactions failed", ErrResponseInvalid)
	}
	return resp.Transactions, nil
}

// CreateTransaction 为订单创建交易
func (c *Client) CreateTransaction(ctx context.Context, orderID string, input TransactionInput) (*Transaction, error) {
	payload, err := json.Marshal(transactionRequest{Transaction: input})
	if err != nil {
		return nil, fmt.Errorf("%w: encode transaction failed", ErrRequestFailed)
	}
	body, err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/transactions.json", payload)
	if err != nil {
		return nil, err
	}
	var resp transactionResponse
	if len(bytes.TrimSpace(body)) == 0 {
		return &Transaction{}, nil
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode transaction failed", ErrResponseInvalid)
	}
	if resp.Transaction == nil {
		return &Transaction{}, nil
	}
	return resp.Transaction, nil
}

// NotifyOrder 触发订单通知
func (c *Client) NotifyOrder(ctx context.Context, orderID string) error {
	_, err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/notify.json", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(constants.ShopifyAccessTokenHeader, c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed: %w", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}

// IsTimeout 判断错误是否由超时引起
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsTransportFailure 判断是否为传输层失败（含超时）
func IsTransportFailure(err error) bool {
	return errors.Is(err, ErrRequestFailed)
}

// AsStatusError 提取非 2xx 响应
func AsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}
