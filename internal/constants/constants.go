package constants

// Coinbase Commerce 事件类型常量
const (
	CoinbaseEventChargeConfirmed = "charge:confirmed"
	CoinbaseSignatureHeader      = "X-CC-Webhook-Signature"
)

// Coinbase 元数据中的订单引用字段，按优先级排列
const (
	MetadataKeyShopifyOrderID = "shopify_order_id"
	MetadataKeyOrderID        = "order_id"
	MetadataKeyName           = "name"
)

// Shopify 交易常量
const (
	ShopifyAccessTokenHeader  = "X-Shopify-Access-Token"
	ShopifyAPIVersionDefault  = "2024-04"
	ShopifyTransactionCapture = "capture"
	ShopifyTransactionSale    = "sale"
	ShopifyTransactionSuccess = "success"
)

// Webhook 回执状态常量
const (
	ReceiptStatusProcessing = "processing"
	ReceiptStatusApplied    = "applied"
	ReceiptStatusFailed     = "failed"
)

// Webhook 响应消息常量
const (
	WebhookMessageOK                  = "ok"
	WebhookMessageIgnored             = "Ignored"
	WebhookMessageMethodNotAllowed    = "Method Not Allowed"
	WebhookMessageMisconfiguration    = "Server Misconfiguration"
	WebhookMessageSignatureMissing    = "missing signature"
	WebhookMessageSignatureInvalid    = "Invalid signature"
	WebhookMessageMalformed           = "malformed payload"
	WebhookMessageMissingOrder        = "Missing order_id"
	WebhookMessageInFlight            = "delivery already in progress"
	WebhookMessageInternalError       = "Internal Server Error"
	WebhookMessageOrderNotFound       = "order not found"
	WebhookMessageCommerceUnreachable = "commerce backend unreachable"
)

// 队列常量
const (
	QueueDefault       = "default"
	TaskOrderNotify    = "order:notify"
	RedisPrefixDefault = "cs"
)

// Webhook 请求体上限
const (
	WebhookMaxBodyBytes = 1 << 20
)

// 币种常量
const (
	CurrencyDefault = "USD"
)
