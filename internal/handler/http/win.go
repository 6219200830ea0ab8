package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"prize-wheel/internal/service"
)

// WinHandler 封装了领奖和中奖记录查询的 HTTP 处理逻辑
type WinHandler struct {
	winService *service.WinRecordService
}

// NewWinHandler 创建 WinHandler 实例
func NewWinHandler(winService *service.WinRecordService) *WinHandler {
	if winService == nil {
		panic("WinRecordService cannot be nil for WinHandler")
	}
	return &WinHandler{winService: winService}
}

// Claim 凭抽奖结果中的领奖凭证提交领奖人信息
func (h *WinHandler) Claim(c *gin.Context) {
	// 1. 绑定路径凭证和请求体
	token := c.Param("token")
	var req service.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	// 2. 调用 Service 领奖
	record, err := h.winService.Claim(c.Request.Context(), token, req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, record)
}

// List 返回最近的中奖记录，可用 ?limit= 指定条数
func (h *WinHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			ErrorResponse(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.winService.List(c.Request.Context(), limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"wins": entries})
}
