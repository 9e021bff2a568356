package segmentation

import (
	"fmt"
	"sync"
)

// forEachParallel runs fn for every index in [0, n) on up to nJobs
// goroutines. Each invocation owns its index exclusively; callers collect
// per-index results into pre-sized slots so the outcome does not depend on
// scheduling. If any invocation fails the whole batch fails, and the error
// of the smallest failing index is returned.
func forEachParallel(n, nJobs int, fn func(i int) error) error {
	if nJobs <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	if nJobs > n {
		nJobs = n
	}
	errs := make([]error, n)
	sem := make(chan struct{}, nJobs)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("worker panic: %v", r)
				}
				<-sem
			}()
			errs[i] = fn(i)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
