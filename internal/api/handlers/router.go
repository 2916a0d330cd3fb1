package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes 注册路由。
// 车辆路由共用路径参数名 :key，状态路由中为车牌号，
// 其余路由中为车辆 ID（gin 同一位置只允许一个通配名）。
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// API 路由
	api := r.Group("/api")
	{
		// 车辆
		api.GET("/vehicles", h.ListVehicles)
		api.POST("/vehicles", h.CreateVehicle)
		api.GET("/vehicles/:key", h.GetVehicle)
		api.PATCH("/vehicles/:key/status", h.EditVehicleStatus) // :key 车牌号
		api.PATCH("/vehicles/:key/plate", h.EditVehiclePlate)   // :key 车辆 ID
		api.DELETE("/vehicles/:key", h.AdminRequired(), h.DeleteVehicle)

		// 车队统计
		api.GET("/fleet/stats", h.FleetStats)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}
