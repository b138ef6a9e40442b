// Package logx bridges the module's zap logger into the plain
// func(msg string, fatal bool) error-log callback shape used throughout
// ctree and rcp (spec §7), so every component logs through the same
// structured sink without importing zap directly.
package logx

import (
	"go.uber.org/zap"
)

// New builds a production zap logger, the same default fox's examples and
// the rest of the pack reach for rather than the bare development config.
func New() (*zap.Logger, error) {
	return zap.NewProduction()
}

// ErrorLog adapts a *zap.Logger into the ErrorLog callback shape consumed
// by ctree.Tree.SetErrorLog and rcp.WithErrorLog. fatal=true logs at Error
// level with a "fatal" field rather than calling zap's own Fatal, since the
// tree and protocol layers are expected to keep running after logging a
// failed operation — nothing here should actually terminate the process.
func ErrorLog(logger *zap.Logger) func(msg string, fatal bool) {
	return func(msg string, fatal bool) {
		logger.Error(msg, zap.Bool("fatal", fatal))
	}
}

// Sync flushes any buffered log entries. Callers should defer it after New
// succeeds; zap.Sync commonly returns an error on stderr/stdout descriptors
// that don't support fsync, which is safe to ignore.
func Sync(logger *zap.Logger) {
	_ = logger.Sync()
}
