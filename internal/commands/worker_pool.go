package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// TransferTask is one file transfer (upload or download) submitted to a
// WorkerPool.
type TransferTask struct {
	RelativePath string
	Run          func(ctx context.Context) error
}

// TransferStats accumulates outcomes across a pool's lifetime.
type TransferStats struct {
	Completed int64
	Failed    int64
	Errors    []TransferError
	mu        sync.Mutex
}

type TransferError struct {
	Path  string
	Error string
}

func (s *TransferStats) addCompleted() {
	atomic.AddInt64(&s.Completed, 1)
}

func (s *TransferStats) addFailed(path, errMsg string) {
	atomic.AddInt64(&s.Failed, 1)
	s.mu.Lock()
	s.Errors = append(s.Errors, TransferError{Path: path, Error: errMsg})
	s.mu.Unlock()
}

// WorkerPool bounds the concurrency of directory-tree transfers (§4.7's
// "traverse directories when -r is given; each file transfer is a single
// read/write"). Reads already retry internally (agfsapi's doWithRetry);
// writes are issued once per task, matching §4.10's no-retry-on-write rule.
type WorkerPool struct {
	ctx    context.Context
	tasks  chan TransferTask
	stats  *TransferStats
	onFile func(path string, ok bool, errMsg string)
	wg     sync.WaitGroup
	n      int
}

const defaultTransferConcurrency = 6

func NewWorkerPool(ctx context.Context, concurrency int) *WorkerPool {
	if concurrency <= 0 {
		concurrency = defaultTransferConcurrency
	}
	return &WorkerPool{
		ctx:   ctx,
		n:     concurrency,
		tasks: make(chan TransferTask, concurrency*2),
		stats: &TransferStats{},
	}
}

func (wp *WorkerPool) SetOnFile(onFile func(path string, ok bool, errMsg string)) {
	wp.onFile = onFile
}

func (wp *WorkerPool) Start() {
	for i := 0; i < wp.n; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) Submit(task TransferTask) {
	wp.tasks <- task
}

func (wp *WorkerPool) Close() *TransferStats {
	close(wp.tasks)
	wp.wg.Wait()
	return wp.stats
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		err := task.Run(wp.ctx)
		if err != nil {
			wp.stats.addFailed(task.RelativePath, err.Error())
			if wp.onFile != nil {
				wp.onFile(task.RelativePath, false, err.Error())
			}
		} else {
			wp.stats.addCompleted()
			if wp.onFile != nil {
				wp.onFile(task.RelativePath, true, "")
			}
		}
	}
}

// ProgressPrinter gives simple console feedback for a directory transfer.
type ProgressPrinter struct {
	mu sync.Mutex
}

func NewProgressPrinter() *ProgressPrinter {
	return &ProgressPrinter{}
}

func (pp *ProgressPrinter) OnFile(relativePath string, success bool, errMsg string) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if success {
		fmt.Printf("  %s\n", relativePath)
	} else {
		fmt.Printf("  ✗ %s: %s\n", relativePath, errMsg)
	}
}

func summarizeTransfer(stats *TransferStats) string {
	if stats.Failed == 0 {
		return fmt.Sprintf("%d files transferred", stats.Completed)
	}
	var lines []string
	for _, e := range stats.Errors {
		lines = append(lines, fmt.Sprintf("  - %s: %s", e.Path, e.Error))
	}
	return fmt.Sprintf("%d files transferred, %d failed\n%s", stats.Completed, stats.Failed, strings.Join(lines, "\n"))
}
