// Package parallel runs index ranges and indexed jobs across a bounded set
// of goroutines.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// DefaultWorkers returns the worker count used when a caller passes n_jobs <= 0.
// Physical cores are preferred; SMT siblings add little to tree fitting.
func DefaultWorkers() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Resolve maps an n_jobs style setting onto a concrete worker count.
func Resolve(nJobs int) int {
	if nJobs <= 0 {
		return DefaultWorkers()
	}
	return nJobs
}

// Parallelize divides the specified total number (items) according to the number of CPU cores,
// and executes the specified function (fn) in parallel for each range (start, end)
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeWithWorkers(items, DefaultWorkers(), fn)
}

// ParallelizeWithWorkers is Parallelize with an explicit worker count.
func ParallelizeWithWorkers(items, workers int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > items {
		workers = items
	}

	// ceiling division
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// Run executes fn for every index in [0, n) on at most workers goroutines.
// Every job runs to completion; the returned error is the one from the lowest
// failing index, so the outcome does not depend on scheduling. A panic inside
// fn is converted into a PanicError for that index.
func Run(n, workers int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	errs := make([]error, n)
	ParallelizeWithWorkers(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			idx := i
			errs[idx] = errors.SafeExecute("parallel.Run", func() error {
				return fn(idx)
			})
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
