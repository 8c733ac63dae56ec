// Package logging provides the fire-and-forget async log sink described in
// spec.md §9: a producer (the event loop, the dispatcher) enqueues records
// and returns immediately; one worker goroutine drains the queue and writes
// through a structured logger. It must never sit on the reply path.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

// Level mirrors AsyncLog::LogLevel from the original asynclog.h.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

type record struct {
	level Level
	msg   string
	args  []any
}

// Logger is a bounded-queue, single-worker async log sink, structurally
// the Go rendering of asynclog.h's AsyncLog: one mutex-protected queue plus
// a condition variable is a buffered channel of 4096 records here, and the
// worker thread is a single goroutine. When the channel is full, new records
// are dropped. Unlike the C++ original it is not a process-wide
// singleton — it is a value owned by the service entry point and passed by
// reference into the dispatcher and event loop, per the "singletons to
// explicit ownership" design note.
type Logger struct {
	sugar *zap.SugaredLogger
	queue chan record
	done  chan struct{}
	once  sync.Once
}

// New builds a Logger backed by a zap SugaredLogger. If jsonFormat is true,
// records are encoded as JSON; otherwise a human-readable console encoding
// is used.
func New(levelName string, jsonFormat bool) (*Logger, error) {
	zapLevel := zap.InfoLevel
	_ = zapLevel.UnmarshalText([]byte(levelName))

	cfg := zap.NewProductionConfig()
	if !jsonFormat {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	core, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	l := &Logger{
		sugar: core.Sugar(),
		queue: make(chan record, 4096),
		done:  make(chan struct{}),
	}
	go l.run()
	return l, nil
}

func (l *Logger) run() {
	defer close(l.done)
	for rec := range l.queue {
		switch rec.level {
		case Debug:
			l.sugar.Debugw(rec.msg, rec.args...)
		case Info:
			l.sugar.Infow(rec.msg, rec.args...)
		case Warn:
			l.sugar.Warnw(rec.msg, rec.args...)
		case Error:
			l.sugar.Errorw(rec.msg, rec.args...)
		}
	}
}

func (l *Logger) enqueue(level Level, msg string, args ...any) {
	select {
	case l.queue <- record{level: level, msg: msg, args: args}:
	default:
		// Queue is saturated; drop rather than block the caller. The
		// loop/dispatcher must never wait on logging.
	}
}

// Debugw enqueues a debug-level structured log record. Never blocks.
func (l *Logger) Debugw(msg string, args ...any) { l.enqueue(Debug, msg, args...) }

// Infow enqueues an info-level structured log record. Never blocks.
func (l *Logger) Infow(msg string, args ...any) { l.enqueue(Info, msg, args...) }

// Warnw enqueues a warn-level structured log record. Never blocks.
func (l *Logger) Warnw(msg string, args ...any) { l.enqueue(Warn, msg, args...) }

// Errorw enqueues an error-level structured log record. Never blocks.
func (l *Logger) Errorw(msg string, args ...any) { l.enqueue(Error, msg, args...) }

// Close drains the queue and joins the worker goroutine, mirroring the C++
// destructor's Close(); log_thread.join(). Safe to call more than once.
func (l *Logger) Close() {
	l.once.Do(func() {
		close(l.queue)
	})
	<-l.done
	_ = l.sugar.Sync()
}
