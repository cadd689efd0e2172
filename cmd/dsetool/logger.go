package main

import (
	"github.com/Garik-/dse/pkg/container"
	"github.com/Garik-/dse/pkg/textform"
	"go.uber.org/zap"
)

var batchLog = zap.NewNop()
var convertLog = zap.NewNop()

func enableDebugLogging(l *zap.Logger) {
	batchLog = l
	convertLog = l
	container.EnableDebugLogging(l)
	textform.EnableDebugLogging(l)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
