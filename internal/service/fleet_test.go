package service

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carbarn/fleetd/internal/models"
	"github.com/carbarn/fleetd/internal/repository"
)

func newTestFleet(t *testing.T) (*FleetService, *repository.Store) {
	t.Helper()
	store, err := repository.Open(filepath.Join(t.TempDir(), "fleet.json"))
	require.NoError(t, err)
	return NewFleetService(store, zap.NewNop(), nil), store
}

func mustCreate(t *testing.T, s *FleetService, plate, model string) *models.Vehicle {
	t.Helper()
	v, err := s.Create(plate, model)
	require.NoError(t, err)
	return v
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var bizErr *Error
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, code, bizErr.Code)
}

func TestCreate(t *testing.T) {
	t.Run("registers vehicle with normalized plate", func(t *testing.T) {
		svc, store := newTestFleet(t)

		v := mustCreate(t, svc, "11-aaa-11", "Model 3")
		assert.NotEmpty(t, v.ID)
		assert.Equal(t, "11AAA11", v.LicensePlate)
		assert.Equal(t, "Model 3", v.Model)
		assert.Equal(t, models.StatusAvailable, v.Status)
		assert.WithinDuration(t, time.Now(), v.CreatedAt, 5*time.Second)

		// 成功创建恰好触发一次持久化
		assert.Equal(t, int64(1), store.Writes())
	})

	t.Run("trims model", func(t *testing.T) {
		svc, _ := newTestFleet(t)
		v := mustCreate(t, svc, "11-aaa-11", "  Model 3  ")
		assert.Equal(t, "Model 3", v.Model)
	})

	t.Run("requires license plate", func(t *testing.T) {
		svc, store := newTestFleet(t)
		_, err := svc.Create("", "Model 3")
		assertCode(t, err, CodeLicensePlateRequired)
		assert.Equal(t, int64(0), store.Writes())
	})

	t.Run("requires model", func(t *testing.T) {
		svc, _ := newTestFleet(t)
		_, err := svc.Create("11-aaa-11", "")
		assertCode(t, err, CodeModelRequired)

		_, err = svc.Create("11-aaa-11", "   ")
		assertCode(t, err, CodeModelRequired)
	})

	t.Run("rejects plate too short after normalization", func(t *testing.T) {
		svc, store := newTestFleet(t)
		_, err := svc.Create("a-1!", "Model 3")
		assertCode(t, err, CodeInvalidLicensePlate)
		assert.Equal(t, 0, store.Len())
		assert.Equal(t, int64(0), store.Writes())
	})

	t.Run("rejects plate too long after normalization", func(t *testing.T) {
		svc, _ := newTestFleet(t)
		_, err := svc.Create("ABCD-1234-567", "Model 3")
		assertCode(t, err, CodeInvalidLicensePlate)
	})

	t.Run("rejects duplicate plate regardless of raw form", func(t *testing.T) {
		svc, store := newTestFleet(t)
		mustCreate(t, svc, "11-aaa-11", "Model 3")

		for _, raw := range []string{"11AAA11", "11-aaa-11", "11 aAa 11"} {
			_, err := svc.Create(raw, "Model Y")
			assertCode(t, err, CodeDuplicateLicensePlate)
		}
		assert.Equal(t, 1, store.Len())
		assert.Equal(t, int64(1), store.Writes())
	})
}

func TestListAndGet(t *testing.T) {
	svc, _ := newTestFleet(t)

	v1 := mustCreate(t, svc, "11-aaa-11", "Model 3")
	v2 := mustCreate(t, svc, "22-bbb-22", "Model Y")
	v3 := mustCreate(t, svc, "33-ccc-33", "Model S")

	t.Run("list keeps insertion order", func(t *testing.T) {
		got := svc.List()
		require.Len(t, got, 3)
		assert.Equal(t, v1.ID, got[0].ID)
		assert.Equal(t, v2.ID, got[1].ID)
		assert.Equal(t, v3.ID, got[2].ID)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := svc.Get(v2.ID)
		require.NoError(t, err)
		assert.Equal(t, "22BBB22", got.LicensePlate)
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := svc.Get("missing")
		assertCode(t, err, CodeVehicleNotFound)
	})
}

func TestReturnedRecordsAreSnapshots(t *testing.T) {
	svc, _ := newTestFleet(t)
	v := mustCreate(t, svc, "11-aaa-11", "Model 3")

	// 篡改返回的副本不影响服务内状态
	svc.List()[0].Status = models.StatusMaintenance
	got, err := svc.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, got.Status)

	got.LicensePlate = "99ZZZ99"
	again, err := svc.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "11AAA11", again.LicensePlate)
}

func TestConcurrentListAndMutate(t *testing.T) {
	svc, _ := newTestFleet(t)
	mustCreate(t, svc, "11-aaa-11", "Model 3")

	// 读取方在锁外序列化快照，写入方同时翻转状态
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_, err := svc.EditStatus("11AAA11", models.StatusInUse)
			assert.NoError(t, err)
			_, err = svc.EditStatus("11AAA11", models.StatusAvailable)
			assert.NoError(t, err)
		}
	}()

	for i := 0; i < 200; i++ {
		data, err := json.Marshal(svc.List())
		require.NoError(t, err)
		require.NotEmpty(t, data)
	}
	<-done
}

func TestEditStatus(t *testing.T) {
	t.Run("invalid status rejected before lookup", func(t *testing.T) {
		svc, _ := newTestFleet(t)
		_, err := svc.EditStatus("no-such-plate", models.Status("Broken"))
		assertCode(t, err, CodeInvalidStatus)
	})

	t.Run("unknown plate", func(t *testing.T) {
		svc, _ := newTestFleet(t)
		_, err := svc.EditStatus("99-zzz-99", models.StatusInUse)
		assertCode(t, err, CodeVehicleNotFound)
	})

	t.Run("dispatch and return", func(t *testing.T) {
		svc, store := newTestFleet(t)
		mustCreate(t, svc, "11-aaa-11", "Model 3")

		v, err := svc.EditStatus("11AAA11", models.StatusInUse)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInUse, v.Status)
		assert.Equal(t, int64(2), store.Writes())

		v, err = svc.EditStatus("11AAA11", models.StatusAvailable)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAvailable, v.Status)
		assert.Equal(t, int64(3), store.Writes())
	})

	t.Run("raw plate is normalized before lookup", func(t *testing.T) {
		svc, _ := newTestFleet(t)
		mustCreate(t, svc, "11-aaa-11", "Model 3")

		v, err := svc.EditStatus("11-AAA-11", models.StatusInUse)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInUse, v.Status)
	})

	t.Run("same status is a no-op without persisting", func(t *testing.T) {
		svc, store := newTestFleet(t)
		created := mustCreate(t, svc, "11-aaa-11", "Model 3")
		before := store.Writes()

		v, err := svc.EditStatus("11AAA11", models.StatusAvailable)
		require.NoError(t, err)

		// 返回记录与原记录逐字段一致
		assert.Equal(t, *created, *v)
		assert.Equal(t, before, store.Writes())
	})

	t.Run("maintenance cannot go straight to in use", func(t *testing.T) {
		svc, store := newTestFleet(t)
		mustCreate(t, svc, "11-aaa-11", "Model 3")

		_, err := svc.EditStatus("11AAA11", models.StatusMaintenance)
		require.NoError(t, err)
		before := store.Writes()

		_, err = svc.EditStatus("11AAA11", models.StatusInUse)
		assertCode(t, err, CodeIllegalStatusTransition)
		assert.Equal(t, before, store.Writes())

		// 先回到 Available 才能再投入使用
		_, err = svc.EditStatus("11AAA11", models.StatusAvailable)
		require.NoError(t, err)
		v, err := svc.EditStatus("11AAA11", models.StatusInUse)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInUse, v.Status)
	})
}

func TestMaintenanceCap(t *testing.T) {
	// 构造 n 辆车的车队，车牌形如 CAP0001
	seedFleet := func(t *testing.T, n int) (*FleetService, *repository.Store) {
		t.Helper()
		svc, store := newTestFleet(t)
		for i := 0; i < n; i++ {
			mustCreate(t, svc, fmt.Sprintf("CAP%04d", i), "Model 3")
		}
		return svc, store
	}

	t.Run("cap is five percent with floor of one", func(t *testing.T) {
		for _, tt := range []struct {
			total int
			cap   int
		}{
			{1, 1}, {19, 1}, {20, 1}, {21, 1}, {39, 1}, {40, 2}, {100, 5},
		} {
			svc, _ := seedFleet(t, tt.total)
			assert.Equal(t, tt.cap, svc.Stats().MaintenanceCap, "fleet of %d", tt.total)
		}
	})

	t.Run("single vehicle fleet still allows one in maintenance", func(t *testing.T) {
		svc, _ := seedFleet(t, 1)
		v, err := svc.EditStatus("CAP0000", models.StatusMaintenance)
		require.NoError(t, err)
		assert.Equal(t, models.StatusMaintenance, v.Status)
	})

	t.Run("fleet of twenty rejects a second vehicle", func(t *testing.T) {
		svc, store := seedFleet(t, 20)

		_, err := svc.EditStatus("CAP0000", models.StatusMaintenance)
		require.NoError(t, err)
		before := store.Writes()

		_, err = svc.EditStatus("CAP0001", models.StatusMaintenance)
		assertCode(t, err, CodeMaintenanceCapExceeded)
		assert.Equal(t, before, store.Writes())
	})

	t.Run("slot opens again once a vehicle leaves maintenance", func(t *testing.T) {
		svc, _ := seedFleet(t, 20)

		_, err := svc.EditStatus("CAP0000", models.StatusMaintenance)
		require.NoError(t, err)
		_, err = svc.EditStatus("CAP0001", models.StatusMaintenance)
		assertCode(t, err, CodeMaintenanceCapExceeded)

		_, err = svc.EditStatus("CAP0000", models.StatusAvailable)
		require.NoError(t, err)
		_, err = svc.EditStatus("CAP0001", models.StatusMaintenance)
		assert.NoError(t, err)
	})

	t.Run("fleet of forty allows two", func(t *testing.T) {
		svc, _ := seedFleet(t, 40)

		_, err := svc.EditStatus("CAP0000", models.StatusMaintenance)
		require.NoError(t, err)
		_, err = svc.EditStatus("CAP0001", models.StatusMaintenance)
		require.NoError(t, err)
		_, err = svc.EditStatus("CAP0002", models.StatusMaintenance)
		assertCode(t, err, CodeMaintenanceCapExceeded)
	})

	t.Run("cap also gates vehicles entering from in use", func(t *testing.T) {
		svc, _ := seedFleet(t, 20)

		_, err := svc.EditStatus("CAP0000", models.StatusInUse)
		require.NoError(t, err)
		_, err = svc.EditStatus("CAP0001", models.StatusMaintenance)
		require.NoError(t, err)

		// InUse -> Maintenance 流转合法，但容量已满
		_, err = svc.EditStatus("CAP0000", models.StatusMaintenance)
		assertCode(t, err, CodeMaintenanceCapExceeded)
	})
}

func TestEditPlate(t *testing.T) {
	t.Run("unknown id checked before plate validity", func(t *testing.T) {
		svc, _ := newTestFleet(t)
		_, err := svc.EditPlate("missing", "!!")
		assertCode(t, err, CodeVehicleNotFound)
	})

	t.Run("invalid new plate", func(t *testing.T) {
		svc, store := newTestFleet(t)
		v := mustCreate(t, svc, "11-aaa-11", "Model 3")
		before := store.Writes()

		_, err := svc.EditPlate(v.ID, "a!")
		assertCode(t, err, CodeInvalidLicensePlate)
		assert.Equal(t, before, store.Writes())
	})

	t.Run("same canonical plate is a no-op", func(t *testing.T) {
		svc, store := newTestFleet(t)
		v := mustCreate(t, svc, "11-aaa-11", "Model 3")
		before := store.Writes()

		got, err := svc.EditPlate(v.ID, "11-aaa-11")
		require.NoError(t, err)
		assert.Equal(t, *v, *got)
		assert.Equal(t, before, store.Writes())
	})

	t.Run("rejects plate held by another vehicle", func(t *testing.T) {
		svc, _ := newTestFleet(t)
		v1 := mustCreate(t, svc, "11-aaa-11", "Model 3")
		mustCreate(t, svc, "22-bbb-22", "Model Y")

		_, err := svc.EditPlate(v1.ID, "22-bbb-22")
		assertCode(t, err, CodeDuplicateLicensePlate)

		// 冲突后车牌保持原值
		got, err := svc.Get(v1.ID)
		require.NoError(t, err)
		assert.Equal(t, "11AAA11", got.LicensePlate)
	})

	t.Run("renames and frees the old plate", func(t *testing.T) {
		svc, store := newTestFleet(t)
		v := mustCreate(t, svc, "11-aaa-11", "Model 3")

		got, err := svc.EditPlate(v.ID, "33-ccc-33")
		require.NoError(t, err)
		assert.Equal(t, "33CCC33", got.LicensePlate)
		assert.Equal(t, int64(2), store.Writes())

		// 旧车牌可被重新登记
		_, err = svc.Create("11AAA11", "Model Y")
		assert.NoError(t, err)
	})
}

func TestDelete(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		svc, _ := newTestFleet(t)
		_, err := svc.Delete("missing")
		assertCode(t, err, CodeVehicleNotFound)
	})

	t.Run("only available vehicles can be deleted", func(t *testing.T) {
		svc, store := newTestFleet(t)
		v1 := mustCreate(t, svc, "11-aaa-11", "Model 3")
		v2 := mustCreate(t, svc, "22-bbb-22", "Model Y")

		_, err := svc.EditStatus("11AAA11", models.StatusInUse)
		require.NoError(t, err)
		_, err = svc.EditStatus("22BBB22", models.StatusMaintenance)
		require.NoError(t, err)
		before := store.Writes()

		_, err = svc.Delete(v1.ID)
		assertCode(t, err, CodeNotAllowedStatusForDelete)
		_, err = svc.Delete(v2.ID)
		assertCode(t, err, CodeNotAllowedStatusForDelete)

		assert.Equal(t, 2, store.Len())
		assert.Equal(t, before, store.Writes())
	})

	t.Run("deletes available vehicle and frees its plate", func(t *testing.T) {
		svc, store := newTestFleet(t)
		v := mustCreate(t, svc, "11-aaa-11", "Model 3")

		id, err := svc.Delete(v.ID)
		require.NoError(t, err)
		assert.Equal(t, v.ID, id)
		assert.Equal(t, 0, store.Len())
		assert.Equal(t, int64(2), store.Writes())

		_, err = svc.Create("11-aaa-11", "Model Y")
		assert.NoError(t, err)
	})
}

func TestStats(t *testing.T) {
	svc, _ := newTestFleet(t)

	mustCreate(t, svc, "11-aaa-11", "Model 3")
	mustCreate(t, svc, "22-bbb-22", "Model Y")
	mustCreate(t, svc, "33-ccc-33", "Model S")

	_, err := svc.EditStatus("22BBB22", models.StatusInUse)
	require.NoError(t, err)
	_, err = svc.EditStatus("33CCC33", models.StatusMaintenance)
	require.NoError(t, err)

	stats := svc.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Available)
	assert.Equal(t, 1, stats.InUse)
	assert.Equal(t, 1, stats.Maintenance)
	assert.Equal(t, 1, stats.MaintenanceCap)

	// 3 次创建 + 2 次状态变更
	assert.Equal(t, int64(5), stats.Writes)
}

func TestPersistenceAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.json")

	store, err := repository.Open(path)
	require.NoError(t, err)
	svc := NewFleetService(store, zap.NewNop(), nil)

	v1 := mustCreate(t, svc, "11-aaa-11", "Model 3")
	mustCreate(t, svc, "22-bbb-22", "Model Y")
	_, err = svc.EditStatus("11AAA11", models.StatusInUse)
	require.NoError(t, err)

	// 重新打开同一文档，相当于服务重启
	reopened, err := repository.Open(path)
	require.NoError(t, err)
	restarted := NewFleetService(reopened, zap.NewNop(), nil)

	got := restarted.List()
	require.Len(t, got, 2)
	assert.Equal(t, v1.ID, got[0].ID)
	assert.Equal(t, models.StatusInUse, got[0].Status)
	assert.Equal(t, "22BBB22", got[1].LicensePlate)
}
