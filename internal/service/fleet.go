package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carbarn/fleetd/internal/models"
	"github.com/carbarn/fleetd/internal/repository"
	"github.com/carbarn/fleetd/internal/state"
	"github.com/carbarn/fleetd/pkg/ws"
)

// 维保容量比例：同时维保的车辆不得超过车队总数的 5%，至少 1 辆
const maintenanceCapRatio = 0.05

// 车队变更广播动作
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// FleetService 车队服务，承载全部车辆业务规则。
// 所有操作经由内部互斥锁串行化：同一时刻只有一个逻辑写入者。
type FleetService struct {
	mu     sync.RWMutex
	store  *repository.Store
	logger *zap.Logger
	hub    *ws.Hub // 可为 nil（测试场景）
}

// NewFleetService 创建车队服务，存储由调用方注入
func NewFleetService(store *repository.Store, logger *zap.Logger, hub *ws.Hub) *FleetService {
	return &FleetService{
		store:  store,
		logger: logger,
		hub:    hub,
	}
}

// Create 登记新车辆，初始状态为 Available
func (s *FleetService) Create(rawPlate, model string) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. 必填项
	if rawPlate == "" {
		return nil, NewError(CodeLicensePlateRequired, "license plate is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, NewError(CodeModelRequired, "model is required")
	}

	// 2. 车牌规范化与格式校验
	plate := NormalizePlate(rawPlate)
	if !ValidPlate(plate) {
		return nil, Errorf(CodeInvalidLicensePlate, "invalid license plate %q", rawPlate)
	}

	// 3. 车牌唯一性
	if s.store.FindByPlate(plate) != nil {
		return nil, Errorf(CodeDuplicateLicensePlate, "license plate %s already registered", plate)
	}

	v := &models.Vehicle{
		ID:           uuid.NewString(),
		LicensePlate: plate,
		Model:        model,
		Status:       models.StatusAvailable,
		CreatedAt:    time.Now(),
	}
	s.store.Append(v)
	if err := s.store.Save(); err != nil {
		return nil, fmt.Errorf("persist fleet: %w", err)
	}

	s.logger.Info("Vehicle registered",
		zap.String("id", v.ID),
		zap.String("plate", v.LicensePlate),
		zap.String("model", v.Model))
	s.broadcast(ActionCreated, v)
	return v, nil
}

// List 返回全部车辆的副本（插入顺序，不过滤），
// 调用方可在锁外安全读取或序列化
func (s *FleetService) List() []*models.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Vehicles()
}

// Get 按 ID 查询车辆，返回记录副本
func (s *FleetService) Get(id string) (*models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.store.FindByID(id)
	if v == nil {
		return nil, Errorf(CodeVehicleNotFound, "vehicle %s not found", id)
	}
	return v, nil
}

// EditStatus 按车牌调整车辆状态。目标状态等于当前状态时为空操作，
// 直接返回当前记录且不触发持久化。
func (s *FleetService) EditStatus(rawPlate string, target models.Status) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. 目标状态合法性
	if !target.Valid() {
		return nil, Errorf(CodeInvalidStatus, "invalid status %q", target)
	}

	// 2. 定位车辆
	plate := NormalizePlate(rawPlate)
	v := s.store.FindByPlate(plate)
	if v == nil {
		return nil, Errorf(CodeVehicleNotFound, "vehicle with plate %s not found", plate)
	}

	// 3. 同状态空操作
	if v.Status == target {
		return v, nil
	}

	// 4. 状态机流转校验
	machine := state.NewMachine(v.Status)
	if !machine.CanTransition(target) {
		return nil, Errorf(CodeIllegalStatusTransition, "cannot transition from %s to %s", v.Status, target)
	}

	// 5. 维保容量：max(1, floor(总数 * 5%))
	if target == models.StatusMaintenance {
		limit := s.maintenanceCap()
		current := s.store.CountByStatus(models.StatusMaintenance)
		if current+1 > limit {
			return nil, Errorf(CodeMaintenanceCapExceeded, "maintenance capacity reached (%d of %d)", current, limit)
		}
	}

	if err := machine.Transition(target); err != nil {
		return nil, Errorf(CodeIllegalStatusTransition, "cannot transition from %s to %s", v.Status, target)
	}
	from := v.Status
	v.Status = machine.Current()
	s.store.Update(v)
	if err := s.store.Save(); err != nil {
		return nil, fmt.Errorf("persist fleet: %w", err)
	}

	s.logger.Info("Vehicle status changed",
		zap.String("plate", v.LicensePlate),
		zap.String("from", string(from)),
		zap.String("to", string(v.Status)))
	s.broadcast(ActionUpdated, v)
	return v, nil
}

// EditPlate 按 ID 更换车牌。新车牌规范化后等于当前车牌时为空操作，
// 直接返回当前记录且不触发持久化。
func (s *FleetService) EditPlate(id, rawPlate string) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.store.FindByID(id)
	if v == nil {
		return nil, Errorf(CodeVehicleNotFound, "vehicle %s not found", id)
	}

	plate := NormalizePlate(rawPlate)
	if !ValidPlate(plate) {
		return nil, Errorf(CodeInvalidLicensePlate, "invalid license plate %q", rawPlate)
	}

	if v.LicensePlate == plate {
		return v, nil
	}

	if other := s.store.FindByPlate(plate); other != nil {
		return nil, Errorf(CodeDuplicateLicensePlate, "license plate %s already registered", plate)
	}

	from := v.LicensePlate
	v.LicensePlate = plate
	s.store.Update(v)
	if err := s.store.Save(); err != nil {
		return nil, fmt.Errorf("persist fleet: %w", err)
	}

	s.logger.Info("Vehicle plate changed",
		zap.String("id", v.ID),
		zap.String("from", from),
		zap.String("to", plate))
	s.broadcast(ActionUpdated, v)
	return v, nil
}

// Delete 删除车辆，仅允许删除 Available 状态的车辆，返回被删除的 ID
func (s *FleetService) Delete(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.store.FindByID(id)
	if v == nil {
		return "", Errorf(CodeVehicleNotFound, "vehicle %s not found", id)
	}
	if v.Status != models.StatusAvailable {
		return "", Errorf(CodeNotAllowedStatusForDelete, "vehicle in status %s cannot be deleted", v.Status)
	}

	s.store.Remove(id)
	if err := s.store.Save(); err != nil {
		return "", fmt.Errorf("persist fleet: %w", err)
	}

	s.logger.Info("Vehicle deleted",
		zap.String("id", id),
		zap.String("plate", v.LicensePlate))
	s.broadcast(ActionDeleted, v)
	return id, nil
}

// FleetStats 车队统计
type FleetStats struct {
	Total          int   `json:"total"`
	Available      int   `json:"available"`
	InUse          int   `json:"in_use"`
	Maintenance    int   `json:"maintenance"`
	MaintenanceCap int   `json:"maintenance_cap"`
	Writes         int64 `json:"writes"`
}

// Stats 返回车队统计信息
func (s *FleetService) Stats() *FleetStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &FleetStats{
		Total:          s.store.Len(),
		Available:      s.store.CountByStatus(models.StatusAvailable),
		InUse:          s.store.CountByStatus(models.StatusInUse),
		Maintenance:    s.store.CountByStatus(models.StatusMaintenance),
		MaintenanceCap: s.maintenanceCap(),
		Writes:         s.store.Writes(),
	}
}

// maintenanceCap 计算当前维保容量上限
func (s *FleetService) maintenanceCap() int {
	limit := int(float64(s.store.Len()) * maintenanceCapRatio)
	if limit < 1 {
		return 1
	}
	return limit
}

// fleetEvent 车队变更广播消息体
type fleetEvent struct {
	Action  string          `json:"action"`
	Vehicle *models.Vehicle `json:"vehicle"`
}

// broadcast 将车队变更推送给 WebSocket 客户端
func (s *FleetService) broadcast(action string, v *models.Vehicle) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastFleetUpdate(fleetEvent{Action: action, Vehicle: v})
}
