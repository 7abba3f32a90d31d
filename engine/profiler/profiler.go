package profiler

import (
	"runtime"
	"time"

	"github.com/charmbracelet/log"
)

// Stage is the cost of one named step of a load.
type Stage struct {
	// Name identifies the step, e.g. "parse" or "materials".
	Name string

	// Duration is the wall time spent in the step.
	Duration time.Duration

	// AllocBytes is the heap allocated during the step, across all goroutines.
	AllocBytes uint64
}

// Profiler tracks per-stage timing and memory statistics for one load.
// Outputs a summary to the logger when the load finishes.
//
// All methods are safe to call on a nil *Profiler, which records nothing.
type Profiler struct {
	logger *log.Logger

	start      time.Time
	stageStart time.Time
	stages     []Stage

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	startAlloc     uint64
}

// NewProfiler creates a Profiler and starts its clock.
//
// Parameters:
//   - logger: receives the summary written by Finish
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *log.Logger) *Profiler {
	p := &Profiler{
		logger: logger,
		start:  time.Now(),
	}
	runtime.ReadMemStats(&p.memStats)
	p.stageStart = p.start
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.startAlloc = p.memStats.TotalAlloc
	return p
}

// Mark closes the stage that began at the previous Mark (or at creation) under name.
//
// Parameters:
//   - name: the name of the stage that just finished
func (p *Profiler) Mark(name string) {
	if p == nil {
		return
	}
	now := time.Now()
	runtime.ReadMemStats(&p.memStats)

	p.stages = append(p.stages, Stage{
		Name:       name,
		Duration:   now.Sub(p.stageStart),
		AllocBytes: p.memStats.TotalAlloc - p.lastTotalAlloc,
	})
	p.stageStart = now
	p.lastTotalAlloc = p.memStats.TotalAlloc
}

// Stages returns the stages recorded so far, in order.
//
// Returns:
//   - []Stage: a copy of the recorded stages
func (p *Profiler) Stages() []Stage {
	if p == nil {
		return nil
	}
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// Finish logs the per-stage breakdown and a summary line for the load of uri.
// Statistics include: total time, bytes allocated, heap in use, GC count and max pause.
//
// Parameters:
//   - uri: the document that was loaded
//
// Returns:
//   - time.Duration: the time since the profiler was created
func (p *Profiler) Finish(uri string) time.Duration {
	if p == nil {
		return 0
	}
	total := time.Since(p.start)
	runtime.ReadMemStats(&p.memStats)

	if p.logger == nil {
		return total
	}

	for _, s := range p.stages {
		p.logger.Debug("load stage", "uri", uri, "stage", s.Name, "took", s.Duration, "alloc_kb", s.AllocBytes/1024)
	}

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
			maxPauseUs = pause
		}
	}

	p.logger.Info("load profile",
		"uri", uri,
		"took", total,
		"alloc_mb", float64(p.memStats.TotalAlloc-p.startAlloc)/1024/1024,
		"heap_mb", float64(p.memStats.Alloc)/1024/1024,
		"gc", gcCount-p.lastGCCount,
		"max_pause_us", maxPauseUs,
	)
	return total
}
