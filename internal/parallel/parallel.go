// Package parallel runs independent jobs on a bounded set of goroutines.
package parallel

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Upper bound on concurrent jobs.
}

// DefaultConfig uses one worker per CPU.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
	}
}

// Workers returns a config limited to n workers. n <= 0 means one per CPU.
func Workers(n int) Config {
	if n <= 0 {
		return DefaultConfig()
	}
	return Config{Enabled: n > 1, NumWorkers: n}
}

// For executes f(i) for i in [0, n) and returns every error, joined.
// A failing job does not stop the others. Runs sequentially when parallelism
// is disabled or there is a single job.
func For(n int, f func(i int) error, cfg Config) error {
	errs := make([]error, n)
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < 2 {
		for i := 0; i < n; i++ {
			errs[i] = run(i, f)
		}
		return errors.Join(errs...)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(cfg.NumWorkers, n); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = run(i, f)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return errors.Join(errs...)
}

// run turns a panicking job into an error.
func run(i int, f func(i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parallel: job %d panicked: %v", i, r)
		}
	}()
	return f(i)
}
