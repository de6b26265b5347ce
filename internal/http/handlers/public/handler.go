package public

import "github.com/salonlink/internal/provider"

// Handler 发型师端与平台 webhook 接口处理器
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
