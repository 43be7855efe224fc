// Package downloader runs several track downloads through one client.
// The client's limiter still paces every request; workers only let one
// file stream while the next track's page is being resolved.
package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lucidaflow/pkg/logger"
	"lucidaflow/pkg/lucida"
)

// Job is a single track to download
type Job struct {
	Index      int
	TrackURL   string
	OutputPath string
}

// Result is the outcome of a Job
type Result struct {
	Job      Job
	Download *lucida.DownloadResult
	Err      error
	Duration time.Duration
}

// TrackDownloader is satisfied by *lucida.Client
type TrackDownloader interface {
	Download(ctx context.Context, trackURL, outputPath string) (*lucida.DownloadResult, error)
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	client      TrackDownloader
	logger      logger.Logger
}

// NewWorkerPool creates a pool of numWorkers workers; values below 1 mean one worker
func NewWorkerPool(numWorkers int, client TrackDownloader, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		client:      client,
		logger:      log,
	}
}

// Start launches the workers. They stop when ctx is done or the queue is closed.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Stop closes the queue, waits for the workers and closes Results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.logger.Info("Worker pool stopped")
}

// Submit queues job, blocking while the queue is full
func (wp *WorkerPool) Submit(ctx context.Context, job Job) error {
	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
			"track_url": job.TrackURL,
		})
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", ctx.Err())
	}
}

// Results returns the result channel; it is closed by Stop
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		result := wp.processJob(ctx, job, id)

		select {
		case wp.resultQueue <- result:
		case <-ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(ctx context.Context, job Job, workerID int) Result {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{Job: job, Err: err}
	}

	download, err := wp.client.Download(ctx, job.TrackURL, job.OutputPath)
	result := Result{Job: job, Download: download, Err: err, Duration: time.Since(start)}

	fields := map[string]interface{}{
		"worker_id": workerID,
		"track_url": job.TrackURL,
		"duration":  result.Duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		wp.logger.WarnWithFields("Worker failed to download track", fields)
		return result
	}
	fields["size"] = download.Size
	wp.logger.DebugWithFields("Worker completed job", fields)
	return result
}

// Run downloads every URL into the client's download directory with workers
// workers and returns the results in input order
func Run(ctx context.Context, client TrackDownloader, trackURLs []string, workers int, log logger.Logger) []Result {
	wp := NewWorkerPool(workers, client, log)
	wp.Start(ctx)

	go func() {
		defer wp.Stop()
		for i, u := range trackURLs {
			if err := wp.Submit(ctx, Job{Index: i, TrackURL: u}); err != nil {
				return
			}
		}
	}()

	results := make([]Result, len(trackURLs))
	for i, u := range trackURLs {
		results[i] = Result{Job: Job{Index: i, TrackURL: u}, Err: context.Canceled}
	}
	for r := range wp.Results() {
		results[r.Job.Index] = r
	}
	if err := ctx.Err(); err != nil {
		for i := range results {
			if results[i].Download == nil && results[i].Err == context.Canceled {
				results[i].Err = err
			}
		}
	}
	return results
}
