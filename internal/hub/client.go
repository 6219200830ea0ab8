package hub

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client 代表一个连接到 Hub 的 WebSocket 客户端。
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	// 发送队列，由 WritePump 消费，只在 Hub.Disconnect 中关闭
	send chan []byte
	// closed 由 hub.mu 保护
	closed bool
	// 连接时通过 URL 指定的转盘，ReadPump 开始时自动加入
	initialWheel string
}

// NewClient 创建一个新的 Client 实例
func NewClient(hub *Hub, conn *websocket.Conn, initialWheel string) *Client {
	return &Client{
		id:           uuid.NewString(),
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, sendBufferSize),
		initialWheel: initialWheel,
	}
}

// ID 返回连接的唯一标识
func (c *Client) ID() string { return c.id }

// Run 启动客户端的读写 goroutine
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump 读取客户端消息并交给 Hub 处理，连接断开时请求 Hub 注销。
func (c *Client) ReadPump() {
	logCtx := logrus.WithField("conn_id", c.id)
	defer func() {
		if !c.hub.QueueMessage(HubMessage{Type: "unregister", Client: c}) {
			// Hub 队列满或已停止时直接注销
			c.hub.Disconnect(c)
		}
		c.conn.Close()
		logCtx.Info("readPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// 先完成 URL 指定的自动加入，再处理客户端消息
	c.joinInitialWheel()

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			logCtx.Debugf("Received non-text message type: %d", messageType)
			continue
		}
		c.hub.HandleInbound(context.Background(), c, message)
	}
}

// WritePump 将 send 队列中的消息写入 WebSocket 连接，并定期发送 Ping。
func (c *Client) WritePump() {
	logCtx := logrus.WithField("conn_id", c.id)
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logCtx.Info("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了发送队列
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logCtx.WithError(err).Warn("Failed to write message to websocket")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Warn("Failed to send ping message")
				return
			}
		}
	}
}

// joinInitialWheel 加入连接时通过 URL 指定的转盘，未指定时什么都不做。
// 只在 ReadPump 中调用，与该连接的入站消息串行。
func (c *Client) joinInitialWheel() {
	ref := c.initialWheel
	if ref == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), spinTimeout)
	defer cancel()
	if err := c.hub.Join(ctx, c, ref); err != nil {
		logrus.WithFields(logrus.Fields{"conn_id": c.id, "wheel_ref": ref}).WithError(err).Warn("Auto-join failed")
	}
}

// formatID 把转盘 ID 转成 Spin 接受的引用
func formatID(id uint) string { return strconv.FormatUint(uint64(id), 10) }
