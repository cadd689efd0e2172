package main

import (
	"github.com/Garik-/dse/pkg/container"
	"go.uber.org/zap"
)

var decoderLog = zap.NewNop()
var surveyLog = zap.NewNop()

func enableDebugLogging(l *zap.Logger) {
	decoderLog = l
	surveyLog = l
	container.EnableDebugLogging(l)
}
