// pkg/interaction/reader.go

package interaction

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// IsInteractive reports whether stdin is a terminal an operator can answer on.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ReadLine shows label as a terminal prompt and returns a trimmed line of input.
// A final line without a newline is accepted.
func ReadLine(ctx context.Context, reader *bufio.Reader, label string) (string, error) {
	log := otelzap.Ctx(ctx)
	log.Info(logger.TerminalPrompt + " " + label)

	text, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && text != "") {
		log.Debug("Failed to read user input", zap.Error(err))
		return "", err
	}
	return strings.TrimSpace(text), nil
}
