package public

import "github.com/coinsettle/internal/provider"

// Handler 公开接口处理器入口
// 说明：该处理器仅承载第三方回调，不做用户鉴权。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
