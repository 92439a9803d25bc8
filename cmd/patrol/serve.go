package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/drewmcarthur/guard-patrol/internal/middleware"
)

func (app *application) serve(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	server := &http.Server{
		Addr: addr,
		Handler: middleware.Wrap(app.Router(),
			middleware.Logging(app.log),
			middleware.Cors(),
		),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	app.log.Infof("ready to serve @ %s", addr)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		sCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(sCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	app.log.Info("server stopped")
	return nil
}
