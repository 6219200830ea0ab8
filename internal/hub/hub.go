package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/service"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// 每个连接的发送队列长度，队列满时丢弃广播
	sendBufferSize = 256

	// 单次抽奖请求的处理时限
	spinTimeout = 10 * time.Second
)

// HubMessage 定义了在 Hub 内部通道传递的生命周期消息
type HubMessage struct {
	Type   string // "register", "unregister"
	Client *Client
}

// Spinner 执行一次抽奖
type Spinner interface {
	Spin(ctx context.Context, wheelRef string) (*service.SpinResult, error)
}

// InventoryReader 读取转盘的完整状态
type InventoryReader interface {
	Inventory(ctx context.Context, ref string) (*service.WheelInventory, error)
	InventoryByID(ctx context.Context, wheelID uint) (*service.WheelInventory, error)
}

// RateLimiter 由 StateRepository 实现
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Options 是 Hub 的可选配置
type Options struct {
	// Limiter 为 nil 时不限制抽奖频率
	Limiter        RateLimiter
	SpinRateLimit  int
	SpinRateWindow time.Duration
}

// Hub 维护转盘房间与连接，负责把抽奖结果发给发起者并把库存变化广播给房间。
// 每个连接同一时间最多属于一个房间。
type Hub struct {
	messageChan chan HubMessage
	done        chan struct{}
	stopOnce    sync.Once

	// clients 是所有未断开的连接，rooms 按转盘 ID 组织连接，members 记录每个连接当前所在的转盘
	clients map[*Client]struct{}
	rooms   map[uint]map[*Client]struct{}
	members map[*Client]uint
	// 保护 clients、rooms、members 和 Client.closed
	mu sync.RWMutex

	spins    Spinner
	wheels   InventoryReader
	opts     Options
	validate *validator.Validate
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub(spins Spinner, wheels InventoryReader, opts Options) *Hub {
	if spins == nil {
		panic("Spinner cannot be nil for Hub")
	}
	if wheels == nil {
		panic("InventoryReader cannot be nil for Hub")
	}
	if opts.SpinRateLimit <= 0 {
		opts.SpinRateLimit = 5
	}
	if opts.SpinRateWindow <= 0 {
		opts.SpinRateWindow = time.Second
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		done:        make(chan struct{}),
		clients:     make(map[*Client]struct{}),
		rooms:       make(map[uint]map[*Client]struct{}),
		members:     make(map[*Client]uint),
		spins:       spins,
		wheels:      wheels,
		opts:        opts,
		validate:    validator.New(),
	}
}

// Run 启动 Hub 的主事件循环，处理连接注册与注销，直到 Stop 被调用。
// 它应该在一个单独的 goroutine 中运行。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for {
		select {
		case msg := <-h.messageChan:
			switch msg.Type {
			case "register":
				h.register(msg.Client)
			case "unregister":
				h.Disconnect(msg.Client)
			default:
				log.Warnf("Hub: Received unknown message type: %s", msg.Type)
			}
		case <-h.done:
			log.Info("Hub is shutting down...")
			h.disconnectAll()
			return
		}
	}
}

// Stop 停止 Run 循环并断开所有连接，可重复调用。
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// QueueMessage 将生命周期消息放入 Hub 的处理队列 (非阻塞)。
// 返回 false 表示队列已满或 Hub 已停止。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

// register 在连接建立后调用。连接时指定的转盘由 ReadPump 在读取第一条消息前加入，
// 这样自动加入与后续 join 消息按顺序处理。
func (h *Hub) register(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	h.mu.Lock()
	if !client.closed {
		h.clients[client] = struct{}{}
	}
	h.mu.Unlock()
	logrus.WithField("conn_id", client.ID()).Info("Client registered to Hub")
}

// Join 把连接移入 wheelRef 对应转盘的房间（离开之前的房间），并向它发送转盘完整状态。
func (h *Hub) Join(ctx context.Context, client *Client, wheelRef string) error {
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": client.ID(), "wheel_ref": wheelRef})

	// 1. 加载转盘及其奖品
	inv, err := h.wheels.Inventory(ctx, wheelRef)
	if err != nil {
		msg := "Failed to load wheel"
		if errors.Is(err, service.ErrWheelNotFound) {
			msg = "Wheel not found"
		}
		h.send(client, encode(ErrorMessage{Type: TypeError, Message: msg}))
		return err
	}

	// 2. 离开旧房间，加入新房间
	wheelID := inv.Wheel.ID
	h.mu.Lock()
	if client.closed {
		h.mu.Unlock()
		return nil
	}
	h.clients[client] = struct{}{}
	h.removeLocked(client)
	room, ok := h.rooms[wheelID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[wheelID] = room
	}
	room[client] = struct{}{}
	h.members[client] = wheelID
	h.mu.Unlock()

	// 3. 发送转盘完整状态
	logCtx.WithField("wheel_id", wheelID).Info("Client joined wheel room")
	h.send(client, encode(newWheelStateMessage(inv)))
	return nil
}

// Leave 让连接离开当前房间，连接本身保持打开。
func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	h.removeLocked(client)
	h.mu.Unlock()
}

// Disconnect 移除连接并关闭其发送队列。重复调用无副作用。
func (h *Hub) Disconnect(client *Client) {
	if client == nil {
		return
	}
	h.mu.Lock()
	if client.closed {
		h.mu.Unlock()
		return
	}
	h.removeLocked(client)
	delete(h.clients, client)
	client.closed = true
	close(client.send)
	h.mu.Unlock()
	logrus.WithField("conn_id", client.ID()).Info("Client unregistered from Hub")
}

func (h *Hub) disconnectAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.Disconnect(c)
	}
}

// removeLocked 调用方须持有写锁
func (h *Hub) removeLocked(client *Client) {
	wheelID, ok := h.members[client]
	if !ok {
		return
	}
	delete(h.members, client)
	if room, ok := h.rooms[wheelID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, wheelID)
		}
	}
}

// CurrentWheel 返回连接当前所在的转盘
func (h *Hub) CurrentWheel(client *Client) (uint, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.members[client]
	return id, ok
}

// RoomSize 返回房间内的连接数
func (h *Hub) RoomSize(wheelID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[wheelID])
}

// ActiveWheelIDs 返回当前有连接的转盘，按 ID 升序
func (h *Hub) ActiveWheelIDs() []uint {
	h.mu.RLock()
	ids := make([]uint, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RespondToSpinner 只向发起抽奖的连接发送结果。
func (h *Hub) RespondToSpinner(client *Client, msg SpinResultMessage) bool {
	return h.send(client, encode(msg))
}

// BroadcastInventoryChange 把奖品的最新库存推送给房间内的每个连接。
// 尽力而为：队列已满的连接会错过这次更新，等待下一次 wheel_state 校准。
func (h *Hub) BroadcastInventoryChange(wheelID uint, prize domain.Prize) {
	h.broadcast(wheelID, encode(InventoryUpdateMessage{
		Type:    TypeInventoryUpdate,
		WheelID: wheelID,
		Prize:   prize.View(),
	}))
}

// BroadcastWheelState 把转盘完整状态推送给房间。
func (h *Hub) BroadcastWheelState(inv *service.WheelInventory) {
	h.broadcast(inv.Wheel.ID, encode(newWheelStateMessage(inv)))
}

// broadcast 在读锁内完成所有非阻塞发送，Disconnect 持写锁关闭通道，因此不会向已关闭通道发送。
func (h *Hub) broadcast(wheelID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[wheelID]
	if len(room) == 0 {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"wheel_id":        wheelID,
		"message_size":    len(message),
		"recipient_count": len(room),
	})
	logCtx.Debug("Broadcasting message to room")

	for client := range room {
		select {
		case client.send <- message:
		default:
			logCtx.WithField("conn_id", client.ID()).Warn("Client send channel full during broadcast, skipping this client")
		}
	}
}

// send 向单个连接非阻塞发送；连接已断开或队列已满时返回 false。
func (h *Hub) send(client *Client, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if client.closed {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		logrus.WithField("conn_id", client.ID()).Warn("Client send channel full, message dropped")
		return false
	}
}

// HandleInbound 处理连接发来的一条原始消息。
// 由 ReadPump 调用，因此同一连接的消息按到达顺序处理。
func (h *Hub) HandleInbound(ctx context.Context, client *Client, raw []byte) {
	logCtx := logrus.WithField("conn_id", client.ID())

	// 1. 解析并校验消息
	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logCtx.WithError(err).Debug("Malformed inbound message")
		h.send(client, encode(ErrorMessage{Type: TypeError, Message: "Malformed message"}))
		return
	}
	if err := h.validate.Struct(msg); err != nil {
		logCtx.WithError(err).Debug("Invalid inbound message")
		h.send(client, encode(ErrorMessage{Type: TypeError, Message: "Invalid message"}))
		return
	}

	// 2. 按类型分发
	switch msg.Type {
	case TypeJoin:
		_ = h.Join(ctx, client, msg.Wheel)
	case TypeLeave:
		h.Leave(client)
	case TypeSpin:
		h.handleSpin(ctx, client, msg.Wheel)
	}
}

// handleSpin 执行抽奖，先把结果放入发起者队列，再开始广播库存变化。
func (h *Hub) handleSpin(ctx context.Context, client *Client, wheelRef string) {
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": client.ID(), "wheel_ref": wheelRef})

	// 1. 未指定转盘时使用当前房间
	if wheelRef == "" {
		wheelID, ok := h.CurrentWheel(client)
		if !ok {
			h.RespondToSpinner(client, SpinResultMessage{
				Type:   TypeSpinResult,
				Status: service.OutcomeWheelNotFound,
				Error:  "join a wheel before spinning",
			})
			return
		}
		wheelRef = formatID(wheelID)
	}

	// 2. 按连接限流
	if h.opts.Limiter != nil {
		key := "spin:" + client.ID()
		exceeded, err := h.opts.Limiter.CheckRateLimit(ctx, key, h.opts.SpinRateLimit, h.opts.SpinRateWindow)
		if err != nil {
			// 限流存储不可用时放行
			logCtx.WithError(err).Warn("Spin rate limit check failed")
		} else if exceeded {
			h.RespondToSpinner(client, SpinResultMessage{
				Type:      TypeSpinResult,
				Status:    service.OutcomeRetry,
				Retryable: true,
				Error:     "too many spins, slow down",
			})
			return
		}
	}

	// 3. 执行抽奖事务
	spinCtx, cancel := context.WithTimeout(ctx, spinTimeout)
	defer cancel()
	result, err := h.spins.Spin(spinCtx, wheelRef)
	if err != nil {
		logCtx.WithError(err).Debug("Spin did not produce a win")
	}

	// 4. 先回复发起者，再广播库存变化
	h.RespondToSpinner(client, newSpinResultMessage(result, err))
	if err == nil {
		h.BroadcastInventoryChange(result.WheelID, result.Prize)
	}
}
