package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Garik-/dse/pkg/registry"
	"github.com/Garik-/dse/pkg/textform"
	"github.com/hako/durafmt"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	maxGoroutines = 10
)

var (
	commandFlag  = flag.String("c", "", "Command: to-xml, from-xml or check")
	listFlag     = flag.String("l", "", "The path to a list of files, one per line,\nfind . -type f -name \"*.sw?\" > list.txt")
	outFlag      = flag.String("o", "", "Output directory, defaults to the directory of each input")
	compactFlag  = flag.Bool("compact", false, "Leave out derived fields and opaque fields equal to their default")
	registryFlag = flag.String("r", "", "Registry JSON file replacing the built-in defaults")
	maxFlag      = flag.Int("p", maxGoroutines, "Number of files processed in parallel, must be > 0")
	verboseFlag  = flag.Bool("v", false, "Debug logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -c to-xml|from-xml|check [flags] [file ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *maxFlag <= 0 || (*listFlag == "" && flag.NArg() == 0) {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := newLogger(*verboseFlag)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	enableDebugLogging(logger)

	cv := &converter{mode: textform.Full, reg: registry.Default(), outDir: *outFlag}
	if *compactFlag {
		cv.mode = textform.Compact
	}
	if *registryFlag != "" {
		if cv.reg, err = registry.LoadFile(*registryFlag); err != nil {
			logger.Fatal("registry", zap.String("file", *registryFlag), zap.Error(err))
		}
	}

	var job func(string) error
	switch *commandFlag {
	case "to-xml":
		job = cv.toText
	case "from-xml":
		job = cv.fromText
	case "check":
		job = cv.check
	default:
		flag.Usage()
		os.Exit(2)
	}

	paths := sliceList(flag.Args())
	if *listFlag != "" {
		f, err := os.Open(*listFlag)
		if err != nil {
			logger.Fatal("list", zap.Error(err))
		}
		defer f.Close()
		paths = readList(f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	n, err := runBatch(ctx, paths, *maxFlag, job)
	failed := multierr.Errors(err)
	for _, e := range failed {
		logger.Error("failed", zap.Error(e))
	}
	logger.Info("done",
		zap.String("command", *commandFlag),
		zap.Stringer("mode", cv.mode),
		zap.String("registry", cv.reg.Version()),
		zap.Int("files", n),
		zap.Int("failed", len(failed)),
		zap.String("elapsed", durafmt.Parse(time.Since(start)).LimitFirstN(2).String()),
	)
	if len(failed) > 0 {
		logger.Sync()
		os.Exit(1)
	}
}
