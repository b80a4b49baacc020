package dispatch

import (
	"log/slog"
	"runtime"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
)

// Host describes the machine a transform runs on.
type Host struct {
	Brand          string `json:"brand"`
	PhysicalCores  int    `json:"physicalCores"`
	LogicalCores   int    `json:"logicalCores"`
	ThreadsPerCore int    `json:"threadsPerCore"`
	NumCPU         int    `json:"numCPU"`
	TotalMemory    uint64 `json:"totalMemory"`
	FreeMemory     uint64 `json:"freeMemory"`
}

// DetectHost reads the CPU and memory inventory.
func DetectHost() Host {
	return Host{
		Brand:          cpuid.CPU.BrandName,
		PhysicalCores:  cpuid.CPU.PhysicalCores,
		LogicalCores:   cpuid.CPU.LogicalCores,
		ThreadsPerCore: cpuid.CPU.ThreadsPerCore,
		NumCPU:         runtime.NumCPU(),
		TotalMemory:    memory.TotalMemory(),
		FreeMemory:     memory.FreeMemory(),
	}
}

func (h Host) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("cpu", h.Brand),
		slog.Int("physicalCores", h.PhysicalCores),
		slog.Int("logicalCores", h.LogicalCores),
		slog.Int("numCPU", h.NumCPU),
		slog.Uint64("totalMemory", h.TotalMemory),
		slog.Uint64("freeMemory", h.FreeMemory),
	)
}

// EstimateBytes approximates the peak memory of a run: the four result
// movies, their per block copies and the block inputs.
func EstimateBytes(frames, height, width int) uint64 {
	voxels := uint64(frames) * uint64(height) * uint64(width)
	return 8 * voxels * (4 + 4 + 1)
}

// CheckMemory warns when the estimate exceeds the physical memory. Hosts
// reporting zero memory are skipped.
func CheckMemory(h Host, need uint64, logger *slog.Logger) bool {
	if h.TotalMemory == 0 || need <= h.TotalMemory {
		return true
	}
	if logger != nil {
		logger.Warn("transform may not fit into physical memory",
			"estimate", need, "totalMemory", h.TotalMemory)
	}
	return false
}
