package container

import "go.uber.org/zap"

var decoderLog = zap.NewNop()
var encoderLog = zap.NewNop()

// EnableDebugLogging routes parse and encode diagnostics to l.
func EnableDebugLogging(l *zap.Logger) {
	decoderLog = l
	encoderLog = l
}
