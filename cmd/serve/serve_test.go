package serve

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/app/apptest"
	"github.com/stretchr/testify/assert"
)

func TestServeStopsWithContext(t *testing.T) {
	h := apptest.Install(t)
	h.Config.API.Listen = "127.0.0.1:0"

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	cmd := NewServeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)
	assert.NoError(t, cmd.ExecuteContext(ctx))
}
