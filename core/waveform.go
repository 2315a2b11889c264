package core

// Triangle produces a symmetric ramp between 0 and Max, moving Step counts
// per call. It is the test pattern the firmware drives the DAC with.
type Triangle struct {
	Max  uint16
	Step uint16

	value uint16
	down  bool
}

// NewTriangle returns a ramp starting at 0 and rising. A zero step is
// treated as 1.
func NewTriangle(max, step uint16) *Triangle {
	if step == 0 {
		step = 1
	}
	return &Triangle{Max: max, Step: step}
}

// Next returns the current sample and moves the ramp one step, turning
// around at either end.
func (w *Triangle) Next() uint16 {
	v := w.value
	if w.down {
		if w.value <= w.Step {
			w.value = 0
			w.down = false
		} else {
			w.value -= w.Step
		}
	} else {
		if w.value >= w.Max || w.Max-w.value <= w.Step {
			w.value = w.Max
			w.down = true
		} else {
			w.value += w.Step
		}
	}
	return v
}

// Reset returns the ramp to 0, rising
func (w *Triangle) Reset() {
	w.value = 0
	w.down = false
}
