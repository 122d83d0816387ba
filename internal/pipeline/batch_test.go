package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/a11yreport/internal/model"
)

func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []BatchOption
		want int
	}{
		{name: "default concurrency", want: DefaultConcurrency},
		{name: "custom concurrency", opts: []BatchOption{WithConcurrency(2)}, want: 2},
		{name: "ignores non-positive concurrency", opts: []BatchOption{WithConcurrency(0)}, want: DefaultConcurrency},
		{name: "nil logger falls back", opts: []BatchOption{WithBatchLogger(nil)}, want: DefaultConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bp := NewBatchProcessor(func() *Pipeline { return New() }, tt.opts...)
			if bp.concurrency != tt.want {
				t.Errorf("concurrency = %d, want %d", bp.concurrency, tt.want)
			}
			if bp.logger == nil {
				t.Error("expected non-nil logger")
			}
		})
	}
}

// runBatch collects the jobs of a batch by source index.
func runBatch(ctx context.Context, bp *BatchProcessor, sources []string) ([]*model.Job, error) {
	jobs := make([]*model.Job, len(sources))
	err := bp.ProcessBatchWithCallback(ctx, sources, func(job *model.Job, index int) {
		jobs[index] = job
	})
	return jobs, err
}

func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order", func(t *testing.T) {
		t.Parallel()

		sources := []string{"c.json", "a.json", "b.json", "d.json"}
		bp := NewBatchProcessor(func() *Pipeline {
			p := New(WithLogger(quietLogger()))
			p.AddStep(&mockStep{name: "slow", fn: func(_ context.Context, job *model.Job) error {
				// Earlier files finish later.
				if job.Source == "c.json" {
					time.Sleep(20 * time.Millisecond)
				}
				job.Slug = strings.TrimSuffix(job.Source, ".json")
				return nil
			}})
			return p
		}, WithConcurrency(4), WithBatchLogger(quietLogger()))

		jobs, err := runBatch(context.Background(), bp, sources)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(jobs) != len(sources) {
			t.Fatalf("expected %d jobs, got %d", len(sources), len(jobs))
		}
		for i, job := range jobs {
			if job.Source != sources[i] {
				t.Errorf("jobs[%d].Source = %q, want %q", i, job.Source, sources[i])
			}
		}
	})

	t.Run("limits concurrency", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		bp := NewBatchProcessor(func() *Pipeline {
			p := New(WithLogger(quietLogger()))
			p.AddStep(&mockStep{name: "count", fn: func(context.Context, *model.Job) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			}})
			return p
		}, WithConcurrency(2), WithBatchLogger(quietLogger()))

		sources := make([]string, 10)
		for i := range sources {
			sources[i] = "file.json"
		}
		if _, err := runBatch(context.Background(), bp, sources); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("peak concurrency %d exceeds limit 2", peak.Load())
		}
	})

	t.Run("failed jobs do not stop the batch", func(t *testing.T) {
		t.Parallel()

		errBad := errors.New("bad file")
		bp := NewBatchProcessor(func() *Pipeline {
			p := New(WithLogger(quietLogger()))
			p.AddStep(&mockStep{name: "check", fn: func(_ context.Context, job *model.Job) error {
				if job.Source == "bad.json" {
					return errBad
				}
				return nil
			}})
			return p
		}, WithBatchLogger(quietLogger()))

		jobs, err := runBatch(context.Background(), bp, []string{"good.json", "bad.json", "good2.json"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(jobs[1].Err, errBad) {
			t.Errorf("expected bad.json to carry errBad, got %v", jobs[1].Err)
		}
		if jobs[0].Failed() || jobs[2].Failed() {
			t.Error("good files should not fail")
		}
	})

	t.Run("cancelled batch", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(func() *Pipeline {
			p := New(WithLogger(quietLogger()))
			p.AddStep(&mockStep{name: "noop"})
			return p
		}, WithBatchLogger(quietLogger()))

		_, err := runBatch(ctx, bp, []string{"a.json", "b.json"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestBatchProcessorCallbackIndex(t *testing.T) {
	t.Parallel()

	bp := NewBatchProcessor(func() *Pipeline {
		p := New(WithLogger(quietLogger()))
		p.AddStep(&mockStep{name: "noop"})
		return p
	}, WithBatchLogger(quietLogger()))

	sources := []string{"a.json", "b.json", "c.json"}
	var mu sync.Mutex
	seen := make(map[int]string)

	err := bp.ProcessBatchWithCallback(context.Background(), sources, func(job *model.Job, index int) {
		mu.Lock()
		defer mu.Unlock()
		seen[index] = job.Source
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, src := range sources {
		if seen[i] != src {
			t.Errorf("callback index %d got %q, want %q", i, seen[i], src)
		}
	}
}
