package util

import (
	"fmt"
	"runtime"
)

// MemStats is the subset of runtime memory statistics shown in health
// reports.
type MemStats struct {
	HeapAllocMB uint64 `json:"heap_alloc_mb"`
	HeapObjects uint64 `json:"heap_objects"`
	NumGC       uint32 `json:"num_gc"`
}

func ReadMemStats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemStats{
		HeapAllocMB: m.HeapAlloc / 1024 / 1024,
		HeapObjects: m.HeapObjects,
		NumGC:       m.NumGC,
	}
}

func (m MemStats) String() string {
	return fmt.Sprintf("%d MB heap, %d objects, %d GCs", m.HeapAllocMB, m.HeapObjects, m.NumGC)
}
