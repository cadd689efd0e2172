package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/Garik-/dse/pkg/registry"
	"github.com/Garik-/dse/pkg/velocity"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	maxGoroutines = 10
)

var (
	listFlag     = flag.String("l", "", "The path to the list of smd/swd files,\nfind . -type f -name \"*.sw?\" -o -name \"*.smd\" > dse_list.txt")
	maxFlag      = flag.Int("p", maxGoroutines, "Number of files processed in parallel, must be > 0")
	outFlag      = flag.String("o", "", "Output registry JSON file, defaults to stdout")
	versionFlag  = flag.String("version", "survey", "Version string stored in the registry")
	shareFlag    = flag.Float64("share", 0.9, "Minimum share of observations a default must cover to be strippable")
	velocityFlag = flag.String("velocity", "", "Also write the velocity database JSON used by humanize to this file")
	verboseFlag  = flag.Bool("v", false, "Debug logging")
)

func writeRegistry(reg *registry.Registry, name string) error {
	if name == "" {
		return reg.Save(os.Stdout)
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	return saveAndClose(f, reg.Save)
}

func saveAndClose(f *os.File, save func(io.Writer) error) (err error) {
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return save(f)
}

func writeVelocity(m velocity.Map, name string) error {
	bytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(name, bytes, 0644)
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s \n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *listFlag == "" {
		flag.Usage()
		return
	}

	if *maxFlag <= 0 || *shareFlag <= 0 || *shareFlag > 1 {
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
	enableDebugLogging(logger)

	f, err := os.Open(*listFlag)
	if err != nil {
		logger.Fatal("list", zap.Error(err))
	}
	defer f.Close()

	s := registry.NewSurvey()
	var vel *velocity.Collector
	if *velocityFlag != "" {
		vel = velocity.NewCollector()
	}

	start := time.Now()
	st, err := runSurvey(context.Background(), readList(f), *maxFlag, s, vel)
	if err != nil {
		logger.Fatal("survey", zap.Error(err))
	}

	reg := s.Build(*versionFlag, *shareFlag)
	if err := writeRegistry(reg, *outFlag); err != nil {
		logger.Fatal("registry", zap.Error(err))
	}
	if vel != nil {
		if err := writeVelocity(vel.Map(), *velocityFlag); err != nil {
			logger.Fatal("velocity", zap.Error(err))
		}
	}

	logger.Info("done",
		zap.Int("files", st.files),
		zap.String("size", humanize.Bytes(st.bytes)),
		zap.Int("mismatches", st.mismatches),
		zap.Int("skipped", len(multierr.Errors(st.failed))),
		zap.Int("entries", reg.Len()),
		zap.String("elapsed", durafmt.Parse(time.Since(start)).LimitFirstN(2).String()),
	)
}
