package mapping

import "sync"

// Table holds the latest intensity and active flag of every dot.
// Each array has its own lock. Set and Snapshot take intensityMu before
// activeMu, so a write lands whole in exactly one snapshot.
// It is shared by pointer between the receiver and the sender.
type Table struct {
	intensityMu sync.Mutex
	intensity   [NumDots]float32

	activeMu sync.Mutex
	active   [NumDots]bool
}

// NewTable конструктор.
func NewTable() *Table {
	return &Table{}
}

// Set stores v for dot i and marks it active when v > 0.
func (t *Table) Set(i int, v float32) {
	t.intensityMu.Lock()
	defer t.intensityMu.Unlock()
	t.intensity[i] = v

	t.activeMu.Lock()
	t.active[i] = v > 0
	t.activeMu.Unlock()
}

// Snapshot copies both arrays, clearing them when reset is set.
func (t *Table) Snapshot(reset bool) ([NumDots]float32, [NumDots]bool) {
	t.intensityMu.Lock()
	defer t.intensityMu.Unlock()
	t.activeMu.Lock()
	defer t.activeMu.Unlock()

	intensity, active := t.intensity, t.active
	if reset {
		t.intensity = [NumDots]float32{}
		t.active = [NumDots]bool{}
	}
	return intensity, active
}

// Intensities copies the intensity array.
func (t *Table) Intensities() [NumDots]float32 {
	t.intensityMu.Lock()
	defer t.intensityMu.Unlock()
	return t.intensity
}

// Active copies the active array.
func (t *Table) Active() [NumDots]bool {
	t.activeMu.Lock()
	defer t.activeMu.Unlock()
	return t.active
}
