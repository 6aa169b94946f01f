package train

import (
	"runtime"
	"sync"
)

// numWorkers decides how many goroutines to use for n
// items, given a limit where 0 means GOMAXPROCS.
func numWorkers(n, maxGos int) int {
	if maxGos <= 0 {
		maxGos = runtime.GOMAXPROCS(0)
	}
	return max(1, min(maxGos, n))
}

// forEach calls f for every index in [0, n) on the given
// number of goroutines.
// Each goroutine passes its own worker ID to f, so f may
// use per-worker state without locking.
func forEach(n, workers int, f func(worker, idx int)) {
	idxChan := make(chan int, n)
	for i := 0; i < n; i++ {
		idxChan <- i
	}
	close(idxChan)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for idx := range idxChan {
				f(worker, idx)
			}
		}(i)
	}
	wg.Wait()
}
