package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/coinsettle/internal/config"
	"github.com/coinsettle/internal/service"
)

// admintoken 使用 admin.jwt_secret 签发管理端访问 Token
func main() {
	var operator string
	var ttlMinutes int
	flag.StringVar(&operator, "operator", "", "操作人标识（必填）")
	flag.IntVar(&ttlMinutes, "ttl", 0, "有效期（分钟），默认读取 admin.token_ttl_minutes")
	flag.Parse()

	cfg := config.Load()
	if ttlMinutes <= 0 {
		ttlMinutes = cfg.Admin.TokenTTLMin
	}
	token, expiresAt, err := service.GenerateAdminToken(
		cfg.Admin.JWTSecret,
		operator,
		time.Duration(ttlMinutes)*time.Minute,
		time.Now(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "签发失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "expires_at: %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
