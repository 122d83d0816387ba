package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/a11yreport/internal/model"
)

// DefaultConcurrency is the number of jobs run at once when not configured.
const DefaultConcurrency = 4

// BatchProcessor runs the pipeline over many results files concurrently.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each job.
	pipelineFactory func() *Pipeline

	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jobs.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatchWithCallback runs one job per source, at most concurrency
// at a time, and calls callback with each finished job and the index of
// its source. Failed jobs are passed too. The callback is called from the
// goroutine that ran the job, so it must be safe for concurrent use. The
// error is non-nil only when the batch was cancelled; sources that never
// started get no callback.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sources []string,
	callback func(job *model.Job, index int),
) error {
	bp.logger.Debug("starting batch processing",
		"total", len(sources),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	err := bp.run(ctx, sources, callback)

	bp.logger.Debug("batch processing complete",
		"total", len(sources),
		"elapsed", time.Since(startTime),
	)
	return err
}

func (bp *BatchProcessor) run(ctx context.Context, sources []string, done func(*model.Job, int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Debug("processing results file",
				"source", source,
				"index", i+1,
				"total", len(sources),
			)

			job := model.NewJob(source)
			// Step errors stay in the job so other files keep going.
			if err := bp.pipelineFactory().Execute(ctx, job); err != nil {
				bp.logger.Warn("results file failed",
					"source", source,
					"error", err,
				)
			}

			done(job, i)
			return nil
		})
	}

	return g.Wait()
}
