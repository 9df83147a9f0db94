// pkg/overwrite/engine.go

package overwrite

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/config"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/telemetry"
	units "github.com/docker/go-units"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const (
	// Passes is the number of sweeps over the scratch region.
	Passes = 3

	// Method names the pass sequence for summaries and journals.
	Method = "3-pass overwrite (zeros, ones, random)"
)

// Failure steps reported in IO errors.
const (
	OpCreate = "create"
	OpWrite  = "write"
	OpFlush  = "flush"
	OpClose  = "close"
	OpDelete = "delete"
)

type pattern struct {
	name string
	// fill prepares buf before each write; constant patterns only fill once.
	fill     func(buf []byte, rng *rand.ChaCha8)
	perWrite bool
}

var patterns = [Passes]pattern{
	{name: "zeros", fill: func(buf []byte, _ *rand.ChaCha8) { clear(buf) }},
	{name: "ones", fill: func(buf []byte, _ *rand.ChaCha8) {
		for i := range buf {
			buf[i] = 0xFF
		}
	}},
	{name: "random", perWrite: true, fill: func(buf []byte, rng *rand.ChaCha8) {
		_, _ = rng.Read(buf)
	}},
}

// Engine fills a volume's free space through a single scratch file and
// removes it again. It never addresses a raw device.
type Engine struct {
	blockSize     int
	maxIterations int
	policy        string
	scratchName   string
	seed          *[32]byte

	// afterPass runs once a pass is flushed; tests use it to inspect the file.
	afterPass func(pass int, path string)
}

// Option customises an Engine.
type Option func(*Engine)

// WithSeed makes the random pass reproducible.
func WithSeed(seed [32]byte) Option {
	return func(e *Engine) {
		s := seed
		e.seed = &s
	}
}

// NewEngine builds an engine from validated overwrite settings.
func NewEngine(cfg config.OverwriteConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		blockSize:     int(cfg.BlockSize.Bytes()),
		maxIterations: cfg.MaxIterations,
		policy:        cfg.IterationPolicy,
		scratchName:   cfg.ScratchName,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// BlockSize returns the size of each write.
func (e *Engine) BlockSize() int { return e.blockSize }

// ScratchPath returns where the scratch file is placed on volumePath.
func (e *Engine) ScratchPath(volumePath string) string {
	return filepath.Join(volumePath, e.scratchName)
}

// Iterations returns how many blocks each pass writes for a volume of the
// given capacity. A zero capacity means unknown.
func (e *Engine) Iterations(capacityHint uint64) int {
	if e.policy != config.PolicyCapacity || capacityHint == 0 {
		return e.maxIterations
	}
	fit := capacityHint / uint64(e.blockSize)
	if fit < 1 {
		return 1
	}
	if fit < uint64(e.maxIterations) {
		return int(fit)
	}
	return e.maxIterations
}

// Overwrite runs the three passes against volumePath and returns the total
// number of bytes written across all passes.
func (e *Engine) Overwrite(rc *eos_io.RuntimeContext, volumePath string, capacityHint uint64) (written int64, err error) {
	logger := otelzap.Ctx(rc.Ctx)
	start := time.Now()

	// ASSESS
	info, err := os.Stat(volumePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return 0, eos_err.VolumeNotFound(volumePath)
	case err != nil:
		return 0, eos_err.IOFailure(volumePath, OpCreate, err)
	case !info.IsDir():
		return 0, eos_err.IOFailure(volumePath, OpCreate, fmt.Errorf("%s is not a directory", volumePath))
	}

	iterations := e.Iterations(capacityHint)
	path := e.ScratchPath(volumePath)
	logger.Info("Assessed overwrite target",
		zap.String("path", path),
		zap.Int("iterations", iterations),
		zap.String("block_size", units.BytesSize(float64(e.blockSize))),
		zap.String("per_pass", units.BytesSize(float64(iterations*e.blockSize))))

	// INTERVENE
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, shared.FilePermOwnerReadWrite)
	if err != nil {
		return 0, eos_err.IOFailure(volumePath, OpCreate, err)
	}
	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = f.Close()
		}
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logger.Warn("Scratch file left behind after failure",
				zap.String("path", path), zap.Error(rmErr))
		}
	}()

	rng, err := e.newRNG()
	if err != nil {
		return 0, eos_err.IOFailure(volumePath, OpWrite, err)
	}
	buf := make([]byte, e.blockSize)

	for p, pat := range patterns {
		passStart := time.Now()
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return 0, eos_err.IOFailure(volumePath, OpWrite, err)
		}
		if !pat.perWrite {
			pat.fill(buf, rng)
		}
		for i := 0; i < iterations; i++ {
			if pat.perWrite {
				pat.fill(buf, rng)
			}
			if _, err := f.Write(buf); err != nil {
				return 0, eos_err.IOFailure(volumePath, OpWrite, err)
			}
		}
		if err := f.Sync(); err != nil {
			return 0, eos_err.IOFailure(volumePath, OpFlush, err)
		}
		logger.Debug("Overwrite pass flushed",
			zap.Int("pass", p+1),
			zap.String("pattern", pat.name),
			zap.Duration("duration", time.Since(passStart)))
		if e.afterPass != nil {
			e.afterPass(p, path)
		}
	}

	closed = true
	if err := f.Close(); err != nil {
		return 0, eos_err.IOFailure(volumePath, OpClose, err)
	}
	if err := os.Remove(path); err != nil {
		return 0, eos_err.IOFailure(volumePath, OpDelete, err)
	}

	// EVALUATE
	written = int64(Passes) * int64(iterations) * int64(e.blockSize)
	telemetry.RecordOverwrite(rc.Ctx, volumePath, written, Passes)
	logger.Info("Overwrite completed",
		zap.String("path", volumePath),
		zap.Int64("bytes_written", written),
		zap.Duration("duration", time.Since(start)))

	return written, nil
}

// newRNG returns a generator owned by one invocation.
func (e *Engine) newRNG() (*rand.ChaCha8, error) {
	if e.seed != nil {
		return rand.NewChaCha8(*e.seed), nil
	}
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("seed random pattern: %w", err)
	}
	return rand.NewChaCha8(seed), nil
}
