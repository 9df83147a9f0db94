// pkg/progress/display.go
//
// "Still working" feedback for operations that give no intermediate output,
// such as an overwrite that flushes hundreds of megabytes to a slow stick.

package progress

import (
	"context"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Operation represents a long-running operation that needs progress feedback
type Operation struct {
	Name     string // Operation name (e.g., "Overwriting free space on /media/usb")
	Estimate string // Estimated duration (e.g., "1-5 minutes")
	Note     string // Optional note shown once at start
	Interval time.Duration

	logger   otelzap.LoggerWithCtx
	done     chan struct{}
	stopOnce sync.Once
	ticks    int
	mu       sync.Mutex
}

// NewOperation creates a new progress operation
func NewOperation(ctx context.Context, name, estimate string) *Operation {
	return &Operation{
		Name:     name,
		Estimate: estimate,
		Interval: 10 * time.Second,
		logger:   otelzap.Ctx(ctx),
		done:     make(chan struct{}),
	}
}

// WithNote adds an optional note to the operation
func (op *Operation) WithNote(note string) *Operation {
	op.Note = note
	return op
}

// WithInterval sets how often "still working" is shown.
func (op *Operation) WithInterval(d time.Duration) *Operation {
	if d > 0 {
		op.Interval = d
	}
	return op
}

// Start begins showing progress
// Call Done() when operation completes
func (op *Operation) Start() {
	op.logger.Info(op.Name, zap.String("estimated_duration", op.Estimate))
	if op.Note != "" {
		op.logger.Info("Note: " + op.Note)
	}
	go op.ticker()
}

func (op *Operation) ticker() {
	t := time.NewTicker(op.Interval)
	defer t.Stop()

	start := time.Now()
	for {
		select {
		case <-op.done:
			return
		case <-t.C:
			op.mu.Lock()
			op.ticks++
			op.mu.Unlock()
			op.logger.Info("Progress update",
				zap.String("status", "still working"),
				zap.Duration("elapsed", time.Since(start).Round(time.Second)),
				zap.String("operation", op.Name))
		}
	}
}

// Ticks returns how many progress updates have been shown.
func (op *Operation) Ticks() int {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.ticks
}

// Done stops the progress display. err is the operation's result.
func (op *Operation) Done(err error) {
	op.stopOnce.Do(func() { close(op.done) })
	if err != nil {
		op.logger.Warn("Operation did not complete",
			zap.String("operation", op.Name), zap.Error(err))
		return
	}
	op.logger.Info("Operation completed", zap.String("operation", op.Name))
}
