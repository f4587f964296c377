package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// frameBudget is the share of available memory in-flight frames may occupy.
const frameBudget = 0.25

// RenderWorkers picks how many overlay frames may be rendered at once.
// A positive requested value wins. Otherwise the logical CPU count is used,
// capped so that in-flight w×h RGBA frames stay within a quarter of the
// currently available memory. Always returns at least 1.
func RenderWorkers(requested, w, h int) int {
	if requested > 0 {
		return requested
	}

	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}

	frameBytes := uint64(w) * uint64(h) * 4
	if vm, err := mem.VirtualMemory(); err == nil && frameBytes > 0 {
		// Каждый воркер держит кадр в работе и кадр в очереди
		limit := int(float64(vm.Available) * frameBudget / float64(2*frameBytes))
		if limit < n {
			n = limit
		}
	}

	if n < 1 {
		n = 1
	}
	return n
}
