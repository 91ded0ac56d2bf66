package httpserver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"guardian/internal/platform/config"
)

func TestServe(t *testing.T) {
	defer goleak.VerifyNone(t)
	cfg := config.HTTPConfig{ReadHeaderTimeout: time.Second, WriteTimeout: 2 * time.Second}

	t.Run("stops cleanly when the context ends", func(t *testing.T) {
		srv := New("127.0.0.1:0", http.NotFoundHandler(), cfg)
		assert.Equal(t, 2*time.Second, srv.WriteTimeout)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- Serve(ctx, srv, time.Second) }()

		time.Sleep(20 * time.Millisecond)
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("server did not stop")
		}
	})

	t.Run("reports listen errors", func(t *testing.T) {
		srv := New("127.0.0.1:-1", http.NotFoundHandler(), cfg)
		err := Serve(context.Background(), srv, time.Second)
		require.Error(t, err)
	})
}
