package engine

import (
	"errors"
	"testing"
)

func TestPhaseMidCycle(t *testing.T) {
	const ref = int64(1_000_000)
	const cycle = int64(10_000)

	got, err := Phase(ref+cycle+cycle/2, ref, cycle)
	if err != nil {
		t.Fatalf("phase: %v", err)
	}
	if got != 0.5 {
		t.Fatalf("expected phase 0.5 at 1.5 cycles, got %v", got)
	}
}

func TestPhaseRange(t *testing.T) {
	const ref = int64(0)
	const cycle = int64(7_919)
	for _, now := range []int64{0, 1, cycle - 1, cycle, cycle * 3, cycle*5 + 13} {
		got, err := Phase(now, ref, cycle)
		if err != nil {
			t.Fatalf("phase(%d): %v", now, err)
		}
		if got < 0 || got >= 1 {
			t.Fatalf("phase(%d) out of [0,1): %v", now, got)
		}
	}
}

func TestPhaseBeforeReference(t *testing.T) {
	got, err := Phase(-2_500, 0, 10_000)
	if err != nil {
		t.Fatalf("phase: %v", err)
	}
	if got != 0.75 {
		t.Fatalf("expected wrapped phase 0.75, got %v", got)
	}
}

func TestPhaseInvalidCycle(t *testing.T) {
	var arg *InvalidArgumentError
	if _, err := Phase(1, 0, 0); !errors.As(err, &arg) {
		t.Fatalf("expected InvalidArgumentError for zero cycle, got %v", err)
	}
	if _, err := Phase(1, 0, -5); !errors.As(err, &arg) {
		t.Fatalf("expected InvalidArgumentError for negative cycle, got %v", err)
	}
}
