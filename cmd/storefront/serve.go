package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
	httpapi "github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/http"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront HTTP server and cart sync",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	ev, err := openEvents(cfg, logger)
	if err != nil {
		return err
	}
	defer ev.Close()

	up, err := newUpstreams(cfg, logger)
	if err != nil {
		return err
	}

	registry := newRegistry(b, ev, cfg, logger)

	feeds := b.feeds
	if ev != nil {
		feeds = append(feeds, ev.consumer)
	}
	var feed cart.Feed
	if len(feeds) > 0 {
		feed = cart.MergeFeeds(feeds...)
	}
	syncer := cart.NewSyncer(registry, feed, cfg.PollInterval, logger)

	srv := newHTTPServer(":"+cfg.Port, httpapi.Deps{
		Logger:           logger,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		DefaultCategory:  cfg.DefaultCategory,
		Catalog:          up.catalog,
		Roster:           up.roster,
		Carts:            registry,
		HealthProbes:     up.probes,
		StreamKeepAlive:  cfg.StreamKeepAlive,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("storefront listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return syncer.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newHTTPServer builds the server and closes open cart streams once Shutdown
// starts, so graceful shutdown does not wait on them.
func newHTTPServer(addr string, deps httpapi.Deps) *http.Server {
	closing := make(chan struct{})
	deps.Closing = closing

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// no WriteTimeout: /me/cart/stream is long-lived
	}
	var once sync.Once
	srv.RegisterOnShutdown(func() { once.Do(func() { close(closing) }) })
	return srv
}
