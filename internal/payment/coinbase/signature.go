package coinbase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/coinsettle/internal/constants"
)

// ComputeSignature 计算原始请求体的 HMAC-SHA256 十六进制签名
func ComputeSignature(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify 常量时间逐字节比较小写十六进制签名，缺少签名或密钥时返回 false
func Verify(body []byte, signatureHeader string, secret string) bool {
	signature := strings.TrimSpace(signatureHeader)
	if signature == "" || secret == "" {
		return false
	}
	expected := ComputeSignature(secret, body)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// VerifyHeaders 从请求头中读取默认签名头并校验
func VerifyHeaders(headers map[string]string, body []byte, secret string) bool {
	return Verify(body, HeaderValue(headers, constants.CoinbaseSignatureHeader), secret)
}

// VerifyRequest 校验请求签名，区分签名缺失与签名错误
func VerifyRequest(headers map[string]string, headerName string, body []byte, secret string) error {
	if strings.TrimSpace(headerName) == "" {
		headerName = constants.CoinbaseSignatureHeader
	}
	signature := HeaderValue(headers, headerName)
	if signature == "" {
		return fmt.Errorf("%w: %s is required", ErrSignatureMissing, headerName)
	}
	if !Verify(body, signature, secret) {
		return fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}
	return nil
}

// HeaderValue 忽略大小写读取请求头
func HeaderValue(headers map[string]string, key string) string {
	if len(headers) == 0 || strings.TrimSpace(key) == "" {
		return ""
	}
	for h, value := range headers {
		if strings.EqualFold(strings.TrimSpace(h), key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
