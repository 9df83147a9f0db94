// pkg/eos_cli/signals.go
//
// Signal handling for long-running commands. The first Ctrl-C cancels the
// command context so in-flight work can unwind and remove what it created;
// a second one runs registered cleanups and exits.

package eos_cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// CleanupFunc is a function that performs cleanup operations
type CleanupFunc func() error

// SignalHandler turns SIGINT/SIGTERM into context cancellation.
type SignalHandler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	sigChan  chan os.Signal
	doneChan chan struct{}

	mu           sync.Mutex
	cleanupFuncs []CleanupFunc
	stopOnce     sync.Once

	// exit is os.Exit outside tests.
	exit func(code int)
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(ctx context.Context) *SignalHandler {
	ctx, cancel := context.WithCancel(ctx)

	h := &SignalHandler{
		cancel:   cancel,
		sigChan:  make(chan os.Signal, 2),
		doneChan: make(chan struct{}),
		exit:     os.Exit,
	}
	h.ctx = context.WithValue(ctx, handlerKey{}, h)

	signal.Notify(h.sigChan, os.Interrupt, syscall.SIGTERM)
	go h.handleSignals()

	return h
}

// RegisterCleanup adds a cleanup function to be called on forced shutdown.
// Cleanup functions are called in REVERSE order (LIFO)
func (h *SignalHandler) RegisterCleanup(cleanup CleanupFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanupFuncs = append(h.cleanupFuncs, cleanup)
}

type handlerKey struct{}

// RegisterCleanup attaches fn to the signal handler carried by ctx, if any.
// It reports whether a handler was found.
func RegisterCleanup(ctx context.Context, fn CleanupFunc) bool {
	h, ok := ctx.Value(handlerKey{}).(*SignalHandler)
	if !ok {
		return false
	}
	h.RegisterCleanup(fn)
	return true
}

// Context returns the cancellable context
func (h *SignalHandler) Context() context.Context {
	return h.ctx
}

func (h *SignalHandler) handleSignals() {
	logger := otelzap.Ctx(h.ctx)

	select {
	case sig := <-h.sigChan:
		logger.Warn("Received signal, cancelling operation", zap.String("signal", sig.String()))
		fmt.Fprintf(os.Stderr, "\nReceived %v, stopping. Press Ctrl-C again to force exit.\n", sig)
		h.cancel()
	case <-h.doneChan:
		return
	}

	select {
	case sig := <-h.sigChan:
		logger.Error("Received second signal, forcing exit", zap.String("signal", sig.String()))
		if err := h.runCleanup(); err != nil {
			fmt.Fprintf(os.Stderr, "Cleanup completed with errors: %v\n", err)
		}
		h.exit(130)
	case <-h.doneChan:
	}
}

func (h *SignalHandler) runCleanup() error {
	logger := otelzap.Ctx(h.ctx)

	h.mu.Lock()
	funcs := append([]CleanupFunc(nil), h.cleanupFuncs...)
	h.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		var lastErr error
		for i := len(funcs) - 1; i >= 0; i-- {
			if err := funcs[i](); err != nil {
				logger.Warn("Cleanup function failed", zap.Int("index", i), zap.Error(err))
				lastErr = err
			}
		}
		done <- lastErr
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		logger.Error("Cleanup timed out after 5 seconds")
		return fmt.Errorf("cleanup timed out")
	}
}

// Stop detaches from the signal stream and releases the context.
func (h *SignalHandler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.doneChan)
		h.cancel()
	})
}
