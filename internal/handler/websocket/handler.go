package websocket

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"prize-wheel/internal/hub"
	"prize-wheel/internal/service"
)

// WebSocketHandler 负责处理 WebSocket 升级请求和客户端注册
type WebSocketHandler struct {
	upgrader     websocket.Upgrader
	hub          *hub.Hub
	wheelService *service.WheelService
}

// NewWebSocketHandler 创建 WebSocketHandler 实例。
// allowedOrigin 为空时允许所有来源。
func NewWebSocketHandler(h *hub.Hub, wheelService *service.WheelService, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if wheelService == nil {
		panic("WheelService cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowedOrigin == "" || origin == "" || origin == allowedOrigin
		},
	}

	return &WebSocketHandler{
		upgrader:     upgrader,
		hub:          h,
		wheelService: wheelService,
	}
}

// HandleConnection 处理 /ws 连接，连接后通过 join 消息加入转盘
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	h.upgrade(c, "")
}

// HandleWheelConnection 处理 /ws/wheel/:slug 连接，校验转盘存在后自动加入
func (h *WebSocketHandler) HandleWheelConnection(c *gin.Context) {
	slug := c.Param("slug")
	logCtx := logrus.WithField("wheel_ref", slug)

	// 升级前校验，失败时还能返回普通 HTTP 错误
	if _, err := h.wheelService.FindByRef(c.Request.Context(), slug); err != nil {
		logCtx.WithError(err).Warn("WS Handler: Wheel validation failed")
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrWheelNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	h.upgrade(c, slug)
}

func (h *WebSocketHandler) upgrade(c *gin.Context, wheelRef string) {
	logCtx := logrus.WithField("remote_addr", c.ClientIP())

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了 HTTP 错误响应
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, wheelRef)
	logCtx = logCtx.WithField("conn_id", client.ID())

	if !h.hub.QueueMessage(hub.HubMessage{Type: "register", Client: client}) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		_ = conn.Close()
		return
	}

	client.Run()
	logCtx.Info("WS Handler: Client connected")
}
