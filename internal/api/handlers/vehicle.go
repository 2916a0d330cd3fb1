package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carbarn/fleetd/internal/models"
	"github.com/carbarn/fleetd/internal/service"
)

// createVehicleRequest 登记车辆请求体
type createVehicleRequest struct {
	LicensePlate string `json:"license_plate"`
	Model        string `json:"model"`
}

// editStatusRequest 调整状态请求体
type editStatusRequest struct {
	Status string `json:"status"`
}

// editPlateRequest 更换车牌请求体
type editPlateRequest struct {
	LicensePlate string `json:"license_plate"`
}

// ListVehicles 获取车辆列表
// GET /api/vehicles
func (h *Handler) ListVehicles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.fleet.List()})
}

// GetVehicle 获取车辆详情
// GET /api/vehicles/:key（:key 为车辆 ID）
func (h *Handler) GetVehicle(c *gin.Context) {
	v, err := h.fleet.Get(c.Param("key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": v})
}

// CreateVehicle 登记新车辆
// POST /api/vehicles
func (h *Handler) CreateVehicle(c *gin.Context) {
	var req createVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, service.NewError(service.CodeLicensePlateRequired, "license plate is required"))
		return
	}

	v, err := h.fleet.Create(req.LicensePlate, req.Model)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": v})
}

// EditVehicleStatus 调整车辆状态
// PATCH /api/vehicles/:key/status（:key 为车牌号）
func (h *Handler) EditVehicleStatus(c *gin.Context) {
	var req editStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, service.NewError(service.CodeInvalidStatus, "status is required"))
		return
	}

	v, err := h.fleet.EditStatus(c.Param("key"), models.Status(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": v})
}

// EditVehiclePlate 更换车牌
// PATCH /api/vehicles/:key/plate（:key 为车辆 ID）
func (h *Handler) EditVehiclePlate(c *gin.Context) {
	var req editPlateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, service.NewError(service.CodeInvalidLicensePlate, "license plate is required"))
		return
	}

	v, err := h.fleet.EditPlate(c.Param("key"), req.LicensePlate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": v})
}

// DeleteVehicle 删除车辆
// DELETE /api/vehicles/:key（:key 为车辆 ID，需管理口令）
func (h *Handler) DeleteVehicle(c *gin.Context) {
	id, err := h.fleet.Delete(c.Param("key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id}})
}

// FleetStats 获取车队统计
// GET /api/fleet/stats
func (h *Handler) FleetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.fleet.Stats()})
}
