// Command gameserver runs one room coordination instance. Instances are
// interchangeable as long as they share a store: point STORE at redis or
// postgres and put any number of them behind the router.
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
	"fourinarow/internal/httpapi"
	"fourinarow/internal/service"
	"fourinarow/internal/store"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config.LoadServer()

	cmd := &cli.Command{
		Name:  "gameserver",
		Usage: "connect-four room coordination server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Value: cfg.Port, Usage: "listen port"},
			&cli.StringFlag{Name: "store", Value: cfg.Store, Usage: "room store: memory, redis or postgres"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.Port = cmd.String("port")
			cfg.Store = cmd.String("store")
			return run(ctx, cfg, log)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Server, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	svc := service.New(st, log.Named("service"))
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpapi.SetupRoutes(svc, log.Named("http")),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("game server listening",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Server) (store.Store, error) {
	switch cfg.Store {
	case "redis":
		return store.NewRedis(cfg.RedisURL, cfg.RoomTTL)
	case "postgres":
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	case "memory", "":
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
