// Package logtest provides loggers for tests that assert on what was logged.
package logtest

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// NewObservedLogger returns a Debug logger whose entries are kept in memory.
func NewObservedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core).Sugar(), logs
}
