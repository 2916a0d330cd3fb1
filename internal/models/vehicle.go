package models

import "time"

// Status 车辆状态
type Status string

// 车辆状态常量
const (
	StatusAvailable   Status = "Available"   // 可用
	StatusInUse       Status = "InUse"       // 使用中
	StatusMaintenance Status = "Maintenance" // 维保中
)

// Valid 判断是否为合法的车辆状态
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance:
		return true
	}
	return false
}

// Vehicle 车辆信息
type Vehicle struct {
	ID           string    `json:"id"`
	LicensePlate string    `json:"license_plate"`
	Model        string    `json:"model"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
