package vsearch

import "sync/atomic"

// ProgressBar is an atomically-updated "queries processed" counter:
// Increment is safe to call from any worker goroutine, ClearAndDisplay
// is meant to be called only from the coordinating goroutine.
type ProgressBar struct {
	Label   string
	Total   uint64
	Current uint64
}

func (bar *ProgressBar) Increment() {
	atomic.AddUint64(&bar.Current, 1)
}

func (bar *ProgressBar) ClearAndDisplay() {
	if bar.Total == 0 {
		return
	}
	Vprint("\r")
	barWidth := uint64(80 - len(bar.Label))
	current := atomic.LoadUint64(&bar.Current)
	ticks := (barWidth * current) / bar.Total
	Vprintf("%s [", bar.Label)
	for i := uint64(0); i < ticks; i++ {
		Vprint("=")
	}
	for i := uint64(0); i < barWidth-ticks; i++ {
		Vprint(" ")
	}
	Vprint("] ")
	Vprintf("%d / %d", current, bar.Total)
}
