package main

import (
	"bufio"
	"context"
	"os"
	"sync"

	"github.com/Garik-/dse/pkg/container"
	"go.uber.org/zap"
)

type result struct {
	name       string
	container  *container.Container
	mismatches int
	err        error
}

func decodeFile(name string) *result {
	out := &result{name: name}
	f, err := os.Open(name)
	if err != nil {
		out.err = err
		return out
	}

	defer f.Close()

	decoder := container.NewDecoder(f)
	err = decoder.Decode()
	if err != nil {
		out.err = err
		return out
	}

	out.container = decoder.Container
	out.mismatches = len(decoder.Mismatches)
	return out
}

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

func decodeWorker(ctx context.Context, paths <-chan string, cntRoutines int) (<-chan *result, <-chan struct{}) {
	log := decoderLog.Named("decodeWorker")
	out := make(chan *result)
	done := make(chan struct{}, 1)

	go func() {
		var wg sync.WaitGroup
		goroutines := make(chan struct{}, cntRoutines)

	loop:
		for path := range paths {
			select {
			case goroutines <- struct{}{}:
			case <-ctx.Done():
				log.Debug("context done")
				break loop
			}
			wg.Add(1)
			go func(ctx context.Context, path string, goroutines <-chan struct{}, out chan<- *result, wg *sync.WaitGroup) {
				defer wg.Done()

				select {
				case out <- decodeFile(path):
				case <-ctx.Done():
					log.Debug("decodeFile context done", zap.String("path", path))
				}
				<-goroutines

			}(ctx, path, goroutines, out, &wg)
		}

		wg.Wait()
		close(goroutines)
		close(out)

		done <- struct{}{}
		close(done)
	}()

	return out, done
}
