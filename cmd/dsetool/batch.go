package main

import (
	"bufio"
	"context"
	"os"
	"sync"

	"github.com/remeh/sizedwaitgroup"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func readList(file *os.File) <-chan string {
	out := make(chan string)

	scanner := bufio.NewScanner(file)
	scanner.Split(bufio.ScanLines)

	go func() {
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				out <- line
			}
		}
		close(out)
	}()

	return out
}

func sliceList(names []string) <-chan string {
	out := make(chan string)
	go func() {
		for _, name := range names {
			out <- name
		}
		close(out)
	}()
	return out
}

// runBatch calls job for every path, at most cntRoutines at a time, and
// returns the combined errors of all failed jobs. Paths still queued when
// ctx is cancelled are skipped.
func runBatch(ctx context.Context, paths <-chan string, cntRoutines int, job func(string) error) (int, error) {
	log := batchLog.Named("runBatch")

	var (
		mu   sync.Mutex
		errs error
		n    int
	)
	wg := sizedwaitgroup.New(cntRoutines)

	for path := range paths {
		if ctx.Err() != nil || wg.AddWithContext(ctx) != nil {
			log.Debug("context done", zap.String("next", path))
			break
		}
		n++
		go func(path string) {
			defer wg.Done()

			err := job(path)
			if err != nil {
				log.Debug("failed", zap.String("path", path), zap.Error(err))
			}
			mu.Lock()
			errs = multierr.Append(errs, err)
			mu.Unlock()
		}(path)
	}
	wg.Wait()

	// drain so the list reader can exit
	go func() {
		for range paths {
		}
	}()
	return n, errs
}
