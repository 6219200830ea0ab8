package hub

import (
	"encoding/json"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/service"
)

// 客户端 -> 服务端
const (
	TypeJoin  = "join"
	TypeLeave = "leave"
	TypeSpin  = "spin"
)

// 服务端 -> 客户端
const (
	TypeSpinResult      = "spin_result"
	TypeInventoryUpdate = "inventory_update"
	TypeWheelState      = "wheel_state"
	TypeError           = "error"
)

// InboundMessage 是客户端发来的消息。spin 的 wheel 为空时使用当前房间的转盘。
type InboundMessage struct {
	Type  string `json:"type" validate:"required,oneof=join leave spin"`
	Wheel string `json:"wheel" validate:"required_if=Type join,max=191"`
}

// SpinResultMessage 只发给发起抽奖的连接
type SpinResultMessage struct {
	Type        string            `json:"type"`
	Success     bool              `json:"success"`
	Status      string            `json:"status"`
	Error       string            `json:"error,omitempty"`
	Retryable   bool              `json:"retryable"`
	Prize       *domain.PrizeView `json:"prize,omitempty"`
	WinRecordID uint              `json:"win_record_id,omitempty"`
	ClaimToken  string            `json:"claim_token,omitempty"`
	WheelID     uint              `json:"wheel_id,omitempty"`
}

// InventoryUpdateMessage 广播给房间内所有连接，携带单个奖品的最新库存
type InventoryUpdateMessage struct {
	Type    string           `json:"type"`
	WheelID uint             `json:"wheel_id"`
	Prize   domain.PrizeView `json:"prize"`
}

// WheelInfo 是转盘的公开字段
type WheelInfo struct {
	ID      uint   `json:"id"`
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// WheelStateMessage 是转盘的完整状态，加入房间和定期校准时发送
type WheelStateMessage struct {
	Type   string             `json:"type"`
	Wheel  WheelInfo          `json:"wheel"`
	Prizes []domain.PrizeView `json:"prizes"`
}

// ErrorMessage 用于格式错误的输入或加入失败
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newSpinResultMessage(result *service.SpinResult, err error) SpinResultMessage {
	msg := SpinResultMessage{
		Type:      TypeSpinResult,
		Success:   err == nil,
		Status:    service.Outcome(err),
		Retryable: service.Retryable(err),
	}
	if err != nil {
		msg.Error = publicError(err)
		return msg
	}
	view := result.Prize.View()
	msg.Prize = &view
	msg.WinRecordID = result.WinRecordID
	msg.ClaimToken = result.ClaimToken
	msg.WheelID = result.WheelID
	return msg
}

func newWheelStateMessage(inv *service.WheelInventory) WheelStateMessage {
	prizes := make([]domain.PrizeView, 0, len(inv.Prizes))
	for _, p := range inv.Prizes {
		prizes = append(prizes, p.View())
	}
	return WheelStateMessage{
		Type: TypeWheelState,
		Wheel: WheelInfo{
			ID:      inv.Wheel.ID,
			Slug:    inv.Wheel.Slug,
			Name:    inv.Wheel.Name,
			Enabled: inv.Wheel.Enabled,
		},
		Prizes: prizes,
	}
}

// publicError 隐藏内部错误细节
func publicError(err error) string {
	if service.Outcome(err) == service.OutcomeError {
		return service.ErrInternalServer.Error()
	}
	return err.Error()
}

func encode(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}
