package app

import (
	"testing"
	"time"
)

func TestNewOperation(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	op := NewOperation("analyze", start)

	if op.ID != "20240301T110000Z" {
		t.Errorf("ID = %q, want UTC timestamp", op.ID)
	}
	if op.Status != StatusSuccess || op.Mutating() {
		t.Errorf("new operation = %+v", op)
	}

	op.MarkMutating()
	op.Fail()
	if !op.Mutating() || op.Status != StatusError {
		t.Errorf("operation = %+v", op)
	}
	if got := op.Elapsed(start.Add(1500 * time.Millisecond)); got != 1500*time.Millisecond {
		t.Errorf("Elapsed() = %v", got)
	}
}
