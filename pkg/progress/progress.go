// Package progress provides the default Logger and ProgressSink
// implementations used by cmd/msreader and available to any other
// caller that doesn't want to write its own.
package progress

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ChrisMcGann/msreader/pkg/msformat"
)

// LogrusLogger adapts logrus's package-level logger to the single-method
// msformat.Logger interface the core package consumes, so msformat never
// imports logrus directly.
type LogrusLogger struct{}

func (LogrusLogger) Log(line string) { logrus.Info(line) }

// ConsoleProgress reports percent-complete via logrus at debug level and
// exposes a cooperative abort flag a caller can set from a signal
// handler, so a long read can be told to stop rather than killed
// outright.
type ConsoleProgress struct {
	task    string
	aborted int32
}

// NewConsoleProgress returns a ConsoleProgress ready for use.
func NewConsoleProgress() *ConsoleProgress { return &ConsoleProgress{} }

func (p *ConsoleProgress) SetTask(task string) {
	p.task = task
	logrus.Debugf("%s: starting", task)
}

func (p *ConsoleProgress) SetPercent(percent float32) {
	logrus.Debugf("%s: %s", p.task, fmt.Sprintf("%.1f%%", percent))
}

// RequestAbort marks the current operation for cooperative cancellation.
// Safe to call from a different goroutine than the reader's.
func (p *ConsoleProgress) RequestAbort() { atomic.StoreInt32(&p.aborted, 1) }

func (p *ConsoleProgress) Aborted() bool { return atomic.LoadInt32(&p.aborted) != 0 }

var (
	_ msformat.Logger       = LogrusLogger{}
	_ msformat.ProgressSink = (*ConsoleProgress)(nil)
)
