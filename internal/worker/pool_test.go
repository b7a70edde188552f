package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// mockJob simulates image processing for testing
type mockJob struct {
	delay     time.Duration
	failFiles map[string]bool // inputs that should fail
	callCount atomic.Int32
}

func (m *mockJob) Process(ctx context.Context, task Task) (string, error) {
	m.callCount.Add(1)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(m.delay):
	}

	if m.failFiles != nil && m.failFiles[task.Input] {
		return "", errors.New("simulated failure")
	}

	return task.Output, nil
}

func makeTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{
			Input:  fmt.Sprintf("in/img%02d.png", i),
			Output: filepath.Join("out", fmt.Sprintf("img%02d.png", i)),
		}
	}
	return tasks
}

func TestPool_BasicExecution(t *testing.T) {
	job := &mockJob{delay: 10 * time.Millisecond}

	pool := New(Config{
		Workers: 2,
		Job:     job,
	})

	tasks := makeTasks(3)
	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}

	for _, r := range results {
		if r.Err != nil {
			t.Errorf("Unexpected error for %s: %v", r.Task.Input, r.Err)
		}
		if r.Output != r.Task.Output {
			t.Errorf("Expected output %s, got %q", r.Task.Output, r.Output)
		}
	}

	if job.callCount.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d job calls, got %d", len(tasks), job.callCount.Load())
	}
}

func TestPool_Parallelism(t *testing.T) {
	job := &mockJob{delay: 50 * time.Millisecond}

	pool := New(Config{
		Workers: 4,
		Job:     job,
	})

	tasks := makeTasks(8)

	start := time.Now()
	results := pool.Run(context.Background(), tasks)
	elapsed := time.Since(start)

	// With 4 workers and 8 tasks at 50ms each, should take ~100ms (2 batches)
	maxExpected := 200 * time.Millisecond
	if elapsed > maxExpected {
		t.Errorf("Expected parallel execution in ~100ms, took %v", elapsed)
	}

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	tasks := makeTasks(3)
	failFile := tasks[1].Input
	job := &mockJob{
		delay:     10 * time.Millisecond,
		failFiles: map[string]bool{failFile: true},
	}

	pool := New(Config{
		Workers: 2,
		Job:     job,
	})

	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}

	var successCount, failCount int
	for _, r := range results {
		if r.Err != nil {
			failCount++
			if r.Task.Input != failFile {
				t.Errorf("Unexpected failure for %s", r.Task.Input)
			}
		} else {
			successCount++
		}
	}

	if successCount != 2 {
		t.Errorf("Expected 2 successes, got %d", successCount)
	}
	if failCount != 1 {
		t.Errorf("Expected 1 failure, got %d", failCount)
	}
}

func TestPool_Cancellation(t *testing.T) {
	job := &mockJob{delay: 100 * time.Millisecond}

	pool := New(Config{
		Workers: 2,
		Job:     job,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, makeTasks(10))
	elapsed := time.Since(start)

	if elapsed > 200*time.Millisecond {
		t.Errorf("Expected early cancellation, took %v", elapsed)
	}

	var cancelledCount int
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			cancelledCount++
		}
	}
	if cancelledCount == 0 {
		t.Error("Expected at least one cancelled result")
	}
}

func TestPool_ProgressCallback(t *testing.T) {
	job := &mockJob{delay: 10 * time.Millisecond}

	var progressCalls atomic.Int32
	var lastCompleted, lastTotal int

	pool := New(Config{
		Workers: 2,
		Job:     job,
		OnProgress: func(completed, total, failed int) {
			progressCalls.Add(1)
			lastCompleted = completed
			lastTotal = total
		},
	})

	tasks := makeTasks(3)
	pool.Run(context.Background(), tasks)

	if progressCalls.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d progress callbacks, got %d", len(tasks), progressCalls.Load())
	}
	if lastCompleted != len(tasks) {
		t.Errorf("Expected lastCompleted=%d, got %d", len(tasks), lastCompleted)
	}
	if lastTotal != len(tasks) {
		t.Errorf("Expected lastTotal=%d, got %d", len(tasks), lastTotal)
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	job := &mockJob{}

	pool := New(Config{
		Workers: 2,
		Job:     job,
	})

	results := pool.Run(context.Background(), nil)

	if len(results) != 0 {
		t.Errorf("Expected 0 results for empty tasks, got %d", len(results))
	}
	if job.callCount.Load() != 0 {
		t.Errorf("Expected 0 job calls for empty tasks, got %d", job.callCount.Load())
	}
}
