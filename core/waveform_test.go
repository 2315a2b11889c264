package core

import "testing"

func TestTriangleSequence(t *testing.T) {
	w := NewTriangle(4, 1)
	expected := []uint16{0, 1, 2, 3, 4, 3, 2, 1, 0, 1, 2}
	for i, want := range expected {
		if got := w.Next(); got != want {
			t.Errorf("Sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestTriangleStepOvershoot(t *testing.T) {
	w := NewTriangle(10, 4)
	expected := []uint16{0, 4, 8, 10, 6, 2, 0, 4}
	for i, want := range expected {
		if got := w.Next(); got != want {
			t.Errorf("Sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestTriangleStaysInRange(t *testing.T) {
	w := NewTriangle(DAC_MAX_12BIT, 37)
	for i := 0; i < 1000; i++ {
		if v := w.Next(); v > DAC_MAX_12BIT {
			t.Fatalf("Sample %d out of range: %d", i, v)
		}
	}
}

func TestTriangleZeroStep(t *testing.T) {
	w := NewTriangle(3, 0)
	if w.Step != 1 {
		t.Errorf("Expected zero step to become 1, got %d", w.Step)
	}
}

func TestTriangleReset(t *testing.T) {
	w := NewTriangle(4, 1)
	for i := 0; i < 6; i++ {
		w.Next()
	}
	w.Reset()
	if got := w.Next(); got != 0 {
		t.Errorf("Expected 0 after reset, got %d", got)
	}
	if got := w.Next(); got != 1 {
		t.Errorf("Expected ramp to rise after reset, got %d", got)
	}
}
