package cache

import (
	"sync"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tsawler/folio/internal/flog"
)

// Capacity bounds for the native artifact cache.
const (
	// MinCapacity is the smallest capacity the sizer will target.
	MinCapacity int64 = 32 << 20 // 32 MiB

	// MaxCapacity is the largest capacity the sizer will target.
	MaxCapacity int64 = 256 << 20 // 256 MiB

	// floorCapacity is the hard floor applied after clamping. It can
	// only take effect if the clamp bounds are changed to bypass
	// MinCapacity.
	floorCapacity int64 = 8 << 20 // 8 MiB

	// memoryFraction is the share of free memory the cache may claim.
	memoryFraction = 0.25
)

// freeMemory reports available system memory. Overridable in tests.
var freeMemory = func() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// ComputeCapacity derives a cache capacity from currently available
// memory: a quarter of free memory, clamped to [MinCapacity, MaxCapacity]
// with an 8 MiB floor. If the memory probe fails, MinCapacity is used.
func ComputeCapacity() int64 {
	free, err := freeMemory()
	if err != nil {
		flog.Logger().Warn("memory probe failed, using minimum cache capacity",
			"error", err, "capacity", MinCapacity)
		return MinCapacity
	}

	capacity := int64(float64(free) * memoryFraction)
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	if capacity > MaxCapacity {
		capacity = MaxCapacity
	}
	if capacity < floorCapacity {
		capacity = floorCapacity
	}
	return capacity
}

var (
	capacityOnce sync.Once
	capacityVal  int64
)

// Capacity returns the process-wide cache capacity, computed once on
// first use and reused for the process lifetime.
func Capacity() int64 {
	capacityOnce.Do(func() {
		capacityVal = ComputeCapacity()
		flog.Logger().Debug("native cache capacity computed",
			"bytes", capacityVal)
	})
	return capacityVal
}
