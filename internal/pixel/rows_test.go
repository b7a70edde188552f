package pixel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestForEachRowVisitsEveryRowOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		const height = 37
		var visits [height]atomic.Int32

		err := ForEachRow(context.Background(), height, workers, func(y int) {
			visits[y].Add(1)
		})
		if err != nil {
			t.Fatalf("workers=%d: unexpected error %v", workers, err)
		}
		for y := range visits {
			if got := visits[y].Load(); got != 1 {
				t.Fatalf("workers=%d: row %d visited %d times", workers, y, got)
			}
		}
	}
}

func TestForEachRowStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := ForEachRow(ctx, 100, 4, func(int) { calls.Add(1) })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no rows after cancellation, got %d", calls.Load())
	}
}
