// Package autotune implements the block-size autotuning state machine each
// kernel launch brackets itself with. It is owned per Traverser instance,
// never process-global.
package autotune

import "time"

const (
	startParam   uint32 = 32
	endParam     uint32 = 1024
	stepParam    uint32 = 32
	samplesParam int    = 5
	defaultPeriod uint32 = 100000
)

// Tuner selects the best-performing block size for a single kernel by
// sampling each candidate samplesParam consecutive times, one candidate
// after another in ascending order, then sticking
// with the minimum-mean candidate until the next sweep begins.
type Tuner struct {
	enabled bool
	period  uint32

	params      []uint32
	sampleCount []int
	meanNanos   []float64

	callsSinceSweep uint32
	sweeping        bool
	paramIndex      int
	best            uint32

	launchStart time.Time
}

// New creates a Tuner with the fixed parameter set {32,64,...,1024},
// 5 samples per parameter, and a 100000-call sweep period, matching the
// protocol's defaults.
func New() *Tuner {
	var params []uint32
	for p := startParam; p <= endParam; p += stepParam {
		params = append(params, p)
	}
	t := &Tuner{
		enabled:     true,
		period:      defaultPeriod,
		params:      params,
		sampleCount: make([]int, len(params)),
		meanNanos:   make([]float64, len(params)),
		best:        params[0],
		sweeping:    true,
	}
	return t
}

// SetEnabled toggles autotuning; while disabled, Begin always returns Best.
func (t *Tuner) SetEnabled(enabled bool) { t.enabled = enabled }

// SetPeriod changes the number of calls between sweeps.
func (t *Tuner) SetPeriod(period uint32) { t.period = period }

// Best returns the current best-known block size.
func (t *Tuner) Best() uint32 { return t.best }

// Begin selects the block size to use for the next launch and starts its
// timer.
func (t *Tuner) Begin() uint32 {
	if !t.enabled || !t.sweeping {
		t.launchStart = time.Now()
		return t.best
	}
	param := t.params[t.paramIndex]
	t.launchStart = time.Now()
	return param
}

// End closes the measurement started by Begin, updating the running mean
// for the parameter under test. Once every parameter has samplesParam
// measurements, the minimum-mean parameter becomes Best and the sweep
// ends until the next period elapses.
func (t *Tuner) End() {
	elapsed := time.Since(t.launchStart)

	t.callsSinceSweep++
	if !t.enabled || !t.sweeping {
		if t.callsSinceSweep >= t.period {
			t.beginSweep()
		}
		return
	}

	i := t.paramIndex
	n := t.sampleCount[i]
	t.meanNanos[i] = (t.meanNanos[i]*float64(n) + float64(elapsed.Nanoseconds())) / float64(n+1)
	t.sampleCount[i]++

	if t.sampleCount[i] >= samplesParam {
		t.paramIndex++
		if t.paramIndex >= len(t.params) {
			t.finishSweep()
		}
	}
}

func (t *Tuner) beginSweep() {
	t.sweeping = true
	t.paramIndex = 0
	t.callsSinceSweep = 0
	for i := range t.sampleCount {
		t.sampleCount[i] = 0
		t.meanNanos[i] = 0
	}
}

func (t *Tuner) finishSweep() {
	bestIdx := 0
	for i := 1; i < len(t.meanNanos); i++ {
		if t.meanNanos[i] < t.meanNanos[bestIdx] {
			bestIdx = i
		}
	}
	t.best = t.params[bestIdx]
	t.sweeping = false
	t.callsSinceSweep = 0
}
