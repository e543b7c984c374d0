package vfat

import (
	"context"
	"log/slog"
)

// slogLevelTrace sits below slog.LevelDebug; Mount's summary record is
// emitted at this level.
const slogLevelTrace = slog.LevelDebug - 2

func (fsys *Fs) logattrs(level slog.Level, msg string, attrs ...slog.Attr) {
	if fsys.log != nil {
		fsys.log.LogAttrs(context.Background(), level, msg, attrs...)
	}
}

func (fsys *Fs) trace(msg string, attrs ...slog.Attr) { fsys.logattrs(slogLevelTrace, msg, attrs...) }
func (fsys *Fs) debug(msg string, attrs ...slog.Attr)  { fsys.logattrs(slog.LevelDebug, msg, attrs...) }
func (fsys *Fs) info(msg string, attrs ...slog.Attr)   { fsys.logattrs(slog.LevelInfo, msg, attrs...) }
func (fsys *Fs) warn(msg string, attrs ...slog.Attr)   { fsys.logattrs(slog.LevelWarn, msg, attrs...) }
func (fsys *Fs) logerror(msg string, attrs ...slog.Attr) {
	fsys.logattrs(slog.LevelError, msg, attrs...)
}
