package httpapi

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpc180222/messagely/internal/logging"
)

func TestServerRun_StopsOnContextCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	s := NewServer("127.0.0.1:0", logger, &fakeUserService{}, &fakeMessageService{}, testSecret)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// let the listener come up before asking it to stop
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}

	assert.Contains(t, buf.String(), "Stopping HTTP server")
}
