package main

import (
	"bytes"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/Garik-/dse/pkg/container"
	"github.com/Garik-/dse/pkg/stream"
	"github.com/Garik-/dse/pkg/velocity"
	"go.uber.org/zap"
)

var (
	databaseFlag = flag.String("d", "", "The path to the database json file, see survey -velocity")
	inFlag       = flag.String("i", "", "Input smd file")
	outFlag      = flag.String("o", "", "Output smd file")
	minFlag      = flag.Int("min", 0, "Min velocity")
	maxFlag      = flag.Int("max", 127, "Max velocity")
	seedFlag     = flag.Int64("seed", 0, "Random seed, 0 picks one from the clock")
	verboseFlag  = flag.Bool("v", false, "Debug logging")
)

// humanize rewrites the note velocities of every track and returns the
// re-encoded sequence.
func humanize(data []byte, h *velocity.Humanizer, log *zap.Logger) ([]byte, error) {
	decoder := container.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(); err != nil {
		return nil, err
	}
	c := decoder.Container
	if c.Format != container.SMDL {
		return nil, fmt.Errorf("%w - %s file has no tracks", container.ErrBadSignature, c.Format)
	}

	for _, trk := range stream.Tracks(c) {
		n, err := h.Apply(trk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", trk.Chunk(), err)
		}
		log.Debug("track", zap.Int("chunk", trk.Chunk()), zap.Int("events", trk.Len()), zap.Int("notes", n))
	}
	return container.Encode(c)
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s \n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *databaseFlag == "" || *inFlag == "" || *outFlag == "" {
		flag.Usage()
		return
	}

	logger, err := zap.NewProduction()
	if *verboseFlag {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	container.EnableDebugLogging(logger)

	data, err := velocity.Import(*databaseFlag)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}

	in, err := ioutil.ReadFile(*inFlag)
	if err != nil {
		logger.Fatal("input", zap.Error(err))
	}

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}
	out, err := humanize(in, velocity.NewHumanizer(data, *minFlag, *maxFlag, seed), logger.Named("humanize"))
	if err != nil {
		logger.Fatal("humanize", zap.String("file", *inFlag), zap.Error(err))
	}

	if err := ioutil.WriteFile(*outFlag, out, 0644); err != nil {
		logger.Fatal("output", zap.Error(err))
	}
	logger.Info("done", zap.String("in", *inFlag), zap.String("out", *outFlag), zap.Int64("seed", seed))
}
