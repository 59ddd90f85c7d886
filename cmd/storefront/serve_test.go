package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
	httpapi "github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/http"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/slot"
)

func TestShutdownWithOpenCartStream(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := newHTTPServer(ln.Addr().String(), httpapi.Deps{
		Logger:          zerolog.Nop(),
		Carts:           cart.NewRegistry(slot.NewMemory(), cart.DefaultKey),
		StreamKeepAlive: time.Hour,
	})
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/me/cart/stream?session=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	require.True(t, errors.Is(<-served, http.ErrServerClosed))
}
