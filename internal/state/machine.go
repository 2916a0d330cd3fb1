package state

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/carbarn/fleetd/internal/models"
)

// 状态流转事件常量
const (
	EventDispatch          = "dispatch"           // Available -> InUse
	EventReturn            = "return"             // InUse -> Available
	EventStartMaintenance  = "start_maintenance"  // Available/InUse -> Maintenance
	EventFinishMaintenance = "finish_maintenance" // Maintenance -> Available
)

// Machine 车辆状态机，以某辆车的当前状态为起点构建。
// 维保中的车辆只能转回 Available，其余流转关系见事件定义。
type Machine struct {
	fsm *fsm.FSM
}

// NewMachine 创建状态机
func NewMachine(current models.Status) *Machine {
	return &Machine{
		fsm: fsm.NewFSM(
			string(current),
			fsm.Events{
				{Name: EventDispatch, Src: []string{string(models.StatusAvailable)}, Dst: string(models.StatusInUse)},
				{Name: EventReturn, Src: []string{string(models.StatusInUse)}, Dst: string(models.StatusAvailable)},
				{Name: EventStartMaintenance, Src: []string{string(models.StatusAvailable), string(models.StatusInUse)}, Dst: string(models.StatusMaintenance)},
				{Name: EventFinishMaintenance, Src: []string{string(models.StatusMaintenance)}, Dst: string(models.StatusAvailable)},
			},
			fsm.Callbacks{},
		),
	}
}

// Current 获取当前状态
func (m *Machine) Current() models.Status {
	return models.Status(m.fsm.Current())
}

// CanTransition 判断能否转换到目标状态。
// 同状态不属于流转，返回 false，由调用方按空操作处理。
func (m *Machine) CanTransition(target models.Status) bool {
	event := m.eventFor(target)
	if event == "" {
		return false
	}
	return m.fsm.Can(event)
}

// Transition 执行到目标状态的转换
func (m *Machine) Transition(target models.Status) error {
	event := m.eventFor(target)
	if event == "" {
		return fmt.Errorf("no event for target status %s", target)
	}
	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}
	return nil
}

// eventFor 根据当前状态与目标状态解析触发事件，无对应事件时返回空串
func (m *Machine) eventFor(target models.Status) string {
	switch target {
	case models.StatusInUse:
		return EventDispatch
	case models.StatusMaintenance:
		return EventStartMaintenance
	case models.StatusAvailable:
		if m.Current() == models.StatusMaintenance {
			return EventFinishMaintenance
		}
		return EventReturn
	}
	return ""
}
