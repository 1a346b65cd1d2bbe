package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestEachRunsAllTasks(t *testing.T) {
	var ran int64
	errs := New(4).Each(context.Background(), 50, func(ctx context.Context, i int) error {
		atomic.AddInt64(&ran, 1)
		return nil
	})
	if ran != 50 {
		t.Fatalf("expected 50 tasks, ran %d", ran)
	}
	for i, err := range errs {
		if err != nil {
			t.Fatalf("task %d: unexpected error %v", i, err)
		}
	}
}

func TestEachIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	errs := New(2).Each(context.Background(), 10, func(ctx context.Context, i int) error {
		if i == 3 {
			return boom
		}
		if i == 7 {
			panic("seven")
		}
		return nil
	})
	if !errors.Is(errs[3], boom) {
		t.Fatalf("expected task 3 error, got %v", errs[3])
	}
	if errs[7] == nil {
		t.Fatalf("expected recovered panic error for task 7")
	}
	for _, i := range []int{0, 1, 2, 4, 5, 6, 8, 9} {
		if errs[i] != nil {
			t.Fatalf("task %d should not fail: %v", i, errs[i])
		}
	}
}

func TestEachZeroTasks(t *testing.T) {
	if errs := New(3).Each(context.Background(), 0, nil); errs != nil {
		t.Fatalf("expected nil errors for zero tasks, got %v", errs)
	}
}

func TestEachSingleWorkerOrderIndependent(t *testing.T) {
	seen := make([]bool, 8)
	New(1).Each(context.Background(), 8, func(ctx context.Context, i int) error {
		seen[i] = true
		return nil
	})
	for i, ok := range seen {
		if !ok {
			t.Fatalf("task %d never ran", i)
		}
	}
}
