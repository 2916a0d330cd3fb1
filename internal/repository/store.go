package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/carbarn/fleetd/internal/models"
)

// Store 车辆数据存储。启动时将单个 JSON 文档整体载入内存，
// 此后内存集合即唯一数据源，每次成功变更后全量重写文档。
// 所有读取都返回记录副本，变更经由 Append/Update/Remove 写回，
// 调用方持有的副本不随后续变更改变。Store 自身不加锁，
// 由持有它的服务层串行化访问。
type Store struct {
	path     string
	vehicles []*models.Vehicle
	writes   int64
}

// Open 打开存储并载入车辆数据。文件不存在时视为空车队，
// 文档无法解析时返回错误（启动期致命）。
func Open(path string) (*Store, error) {
	s := &Store{
		path:     path,
		vehicles: []*models.Vehicle{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read fleet file: %w", err)
	}

	if err := json.Unmarshal(data, &s.vehicles); err != nil {
		return nil, fmt.Errorf("parse fleet file %s: %w", path, err)
	}
	return s, nil
}

// Save 将全部车辆序列化并覆盖写入文档
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.vehicles, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fleet: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write fleet file: %w", err)
	}
	s.writes++
	return nil
}

// clone 返回记录副本
func clone(v *models.Vehicle) *models.Vehicle {
	c := *v
	return &c
}

// Vehicles 返回全部车辆的副本（插入顺序）
func (s *Store) Vehicles() []*models.Vehicle {
	out := make([]*models.Vehicle, len(s.vehicles))
	for i, v := range s.vehicles {
		out[i] = clone(v)
	}
	return out
}

// Len 车辆总数
func (s *Store) Len() int {
	return len(s.vehicles)
}

// FindByID 按 ID 查找车辆，返回副本，未找到返回 nil
func (s *Store) FindByID(id string) *models.Vehicle {
	for _, v := range s.vehicles {
		if v.ID == id {
			return clone(v)
		}
	}
	return nil
}

// FindByPlate 按车牌查找车辆，入参须为规范化车牌，返回副本，未找到返回 nil
func (s *Store) FindByPlate(plate string) *models.Vehicle {
	for _, v := range s.vehicles {
		if v.LicensePlate == plate {
			return clone(v)
		}
	}
	return nil
}

// CountByStatus 统计处于指定状态的车辆数
func (s *Store) CountByStatus(status models.Status) int {
	n := 0
	for _, v := range s.vehicles {
		if v.Status == status {
			n++
		}
	}
	return n
}

// Append 追加车辆，存入副本
func (s *Store) Append(v *models.Vehicle) {
	s.vehicles = append(s.vehicles, clone(v))
}

// Update 按 ID 覆盖已有记录，返回记录是否存在
func (s *Store) Update(v *models.Vehicle) bool {
	for i, cur := range s.vehicles {
		if cur.ID == v.ID {
			s.vehicles[i] = clone(v)
			return true
		}
	}
	return false
}

// Remove 按 ID 移除车辆，返回车辆是否存在
func (s *Store) Remove(id string) bool {
	for i, v := range s.vehicles {
		if v.ID == id {
			s.vehicles = append(s.vehicles[:i], s.vehicles[i+1:]...)
			return true
		}
	}
	return false
}

// Writes 已完成的持久化写入次数
func (s *Store) Writes() int64 {
	return s.writes
}
