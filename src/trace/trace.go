/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace wraps logrus with the scan's structured logging
// conventions: one entry per scan context, tagged with the scan's
// correlation id and, where relevant, the element or worker a message
// concerns.
package trace

import (
	"github.com/sirupsen/logrus"
)

// Logger is a thin façade over a *logrus.Entry scoped to one scan.
type Logger struct {
	entry *logrus.Entry
}

// New builds a Logger tagged with scanID for every line it emits.
func New(scanID string) *Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.WarnLevel)
	return &Logger{entry: l.WithField("scan", scanID)}
}

// WithElement returns a child logger tagged with the classpath element
// path currently being processed.
func (l *Logger) WithElement(path string) *Logger {
	return &Logger{entry: l.entry.WithField("element", path)}
}

// WithWorker returns a child logger tagged with a worker index, used by
// discovery and parser pool workers.
func (l *Logger) WithWorker(phase string, idx int) *Logger {
	return &Logger{entry: l.entry.WithField("phase", phase).WithField("worker", idx)}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// SetLevel adjusts verbosity; scans default to logrus.WarnLevel, so
// Debugf and Infof lines are dropped unless the level is lowered.
func (l *Logger) SetLevel(level logrus.Level) {
	l.entry.Logger.SetLevel(level)
}
