package server_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/folio/internal/server"
)

func TestListenServeShutdown(t *testing.T) {
	s, err := server.Listen("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "up")
	}))
	require.NoError(t, err)
	require.NotZero(t, s.Port())

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	resp, err := http.Get(fmt.Sprintf("http://%s/", s.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "up", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-done)
}

func TestListenPortInUse(t *testing.T) {
	first, err := server.Listen("127.0.0.1:0", http.NotFoundHandler())
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	_, err = server.Listen(first.Addr().String(), http.NotFoundHandler())
	assert.Error(t, err)
}
