// Command router fronts a set of game server instances, rotating requests
// across the ones that look alive.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fourinarow/internal/config"
	"fourinarow/internal/router"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config.LoadRouter()

	cmd := &cli.Command{
		Name:  "router",
		Usage: "health-aware round-robin router for game servers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Value: cfg.Port, Usage: "listen port"},
			&cli.StringSliceFlag{Name: "backend", Usage: "game server base URL (repeatable, overrides BACKENDS)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.Port = cmd.String("port")
			if bs := cmd.StringSlice("backend"); len(bs) > 0 {
				cfg.Backends = bs
			}
			return run(ctx, cfg, log)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal("router exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Router, log *zap.Logger) error {
	if len(cfg.Backends) == 0 {
		return errors.New("no backends configured")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := router.NewPool(cfg.Backends, cfg.ProbeTimeout, log.Named("pool"))
	proxy := router.NewProxy(pool, cfg.ForwardTimeout, log.Named("proxy"))
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: proxy.Routes(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("router listening",
			zap.String("port", cfg.Port),
			zap.Strings("backends", cfg.Backends))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.SweepInterval > 0 {
		g.Go(func() error {
			pool.Sweep(ctx, cfg.SweepInterval)
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	return g.Wait()
}
