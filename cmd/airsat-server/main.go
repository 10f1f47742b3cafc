// airsat-server 加载最近一次训练产物并提供 POST /predict/satisfaction。
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rushteam/airsat/api"
	"github.com/rushteam/airsat/config"
	"github.com/rushteam/airsat/logging"
	"github.com/rushteam/airsat/service"
	"github.com/rushteam/airsat/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Err(err).Msg("failed to load config")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Caller: cfg.Log.Caller})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg); err != nil {
		logging.Err(err).Msg("server failed")
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	s, err := config.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	var opts []service.LoadOption
	if cfg.Model.Threshold != nil {
		opts = append(opts, service.WithThreshold(*cfg.Model.Threshold))
	}
	predictor, err := service.LoadPredictor(ctx, store.NewCatalog(s), opts...)
	if err != nil {
		return err
	}
	defer predictor.Close()
	logging.Info().
		Str("run_id", predictor.RunID()).
		Strs("features", predictor.Features()).
		Float64("threshold", predictor.Threshold()).
		Msg("model loaded")

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewServer(predictor, api.WithMaxBodyBytes(cfg.Server.MaxBodyBytes)).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
