package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/carbarn/fleetd/internal/service"
	"github.com/carbarn/fleetd/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger     *zap.Logger
	fleet      *service.FleetService
	wsHub      *ws.Hub
	adminToken string
	upgrader   websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	fleet *service.FleetService,
	wsHub *ws.Hub,
	adminToken string,
) *Handler {
	return &Handler{
		logger:     logger,
		fleet:      fleet,
		wsHub:      wsHub,
		adminToken: adminToken,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// respondError 将业务错误映射为 HTTP 状态码并输出统一错误结构。
// 非业务错误（持久化失败等）记录日志后仅返回笼统的 500。
func (h *Handler) respondError(c *gin.Context, err error) {
	var bizErr *service.Error
	if errors.As(err, &bizErr) {
		c.JSON(httpStatus(bizErr.Code), gin.H{"error": bizErr})
		return
	}

	h.logger.Error("Request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{"code": "INTERNAL_ERROR", "message": "internal error"},
	})
}

// httpStatus 业务错误码到 HTTP 状态码的映射
func httpStatus(code string) int {
	switch code {
	case service.CodeLicensePlateRequired,
		service.CodeModelRequired,
		service.CodeInvalidLicensePlate,
		service.CodeInvalidStatus:
		return http.StatusBadRequest
	case service.CodeVehicleNotFound:
		return http.StatusNotFound
	case service.CodeDuplicateLicensePlate,
		service.CodeIllegalStatusTransition,
		service.CodeMaintenanceCapExceeded,
		service.CodeNotAllowedStatusForDelete:
		return http.StatusConflict
	case service.CodeAdminApprovalRequired:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"vehicles":   len(h.fleet.List()),
		"ws_clients": h.wsHub.ClientCount(),
	})
}
