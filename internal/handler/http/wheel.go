package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/service"
)

// WheelStatePublisher 把转盘完整状态推送给在线连接，由 hub.Hub 实现
type WheelStatePublisher interface {
	BroadcastWheelState(inv *service.WheelInventory)
}

// WheelHandler 封装了转盘查询与启停的 HTTP 处理逻辑
type WheelHandler struct {
	wheelService *service.WheelService
	publisher    WheelStatePublisher
}

// NewWheelHandler 创建 WheelHandler 实例。publisher 可以为 nil。
func NewWheelHandler(wheelService *service.WheelService, publisher WheelStatePublisher) *WheelHandler {
	if wheelService == nil {
		panic("WheelService cannot be nil for WheelHandler")
	}
	return &WheelHandler{wheelService: wheelService, publisher: publisher}
}

// WheelResponse 是转盘及其奖品的公开视图
type WheelResponse struct {
	ID      uint               `json:"id"`
	Name    string             `json:"name"`
	Slug    string             `json:"slug"`
	Enabled bool               `json:"enabled"`
	Prizes  []domain.PrizeView `json:"prizes"`
}

func newWheelResponse(inv *service.WheelInventory) WheelResponse {
	return WheelResponse{
		ID:      inv.Wheel.ID,
		Name:    inv.Wheel.Name,
		Slug:    inv.Wheel.Slug,
		Enabled: inv.Wheel.Enabled,
		Prizes:  lo.Map(inv.Prizes, func(p domain.Prize, _ int) domain.PrizeView { return p.View() }),
	}
}

// GetWheel 返回转盘（按 slug 或 ID）及其全部奖品
func (h *WheelHandler) GetWheel(c *gin.Context) {
	inv, err := h.wheelService.Inventory(c.Request.Context(), c.Param("slug"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, newWheelResponse(inv))
}

// SetEnabledRequest 定义启停请求的结构体
type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetEnabled 启用或停用转盘，并把新状态推送给该转盘的房间
func (h *WheelHandler) SetEnabled(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid wheel ID format")
		return
	}
	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: enabled is required")
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"wheel_id": id, "enabled": *req.Enabled, "admin_id": c.GetUint("admin_id")})

	if _, err := h.wheelService.SetEnabled(c.Request.Context(), uint(id), *req.Enabled); err != nil {
		HandleServiceError(c, err)
		return
	}
	inv, err := h.wheelService.InventoryByID(c.Request.Context(), uint(id))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if h.publisher != nil {
		h.publisher.BroadcastWheelState(inv)
	}
	logCtx.Info("Handler.SetEnabled: Wheel status changed")
	SuccessResponse(c, http.StatusOK, newWheelResponse(inv))
}
