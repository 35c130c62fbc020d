package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	httpadapter "svw.info/advent/internal/adapters/http"
	"svw.info/advent/internal/catalog"
	"svw.info/advent/internal/domain"
	"svw.info/advent/internal/infrastructure/storage"
	"svw.info/advent/internal/progress"
	"svw.info/advent/internal/usecase"
	"svw.info/advent/internal/validator"
)

var (
	addrFlag    string
	catalogFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the puzzle API, event stream and metrics",
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (env ADVENT_ADDR)")
	serveCmd.Flags().StringVar(&catalogFlag, "catalog", "", "puzzle catalog YAML (env ADVENT_CATALOG)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stdout)

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("close store", "err", err)
		}
	}()

	// Wire store → engine → use cases → HTTP adapter
	keys := domain.DefaultKeys()
	engine := progress.New(st.store,
		progress.WithKeys(keys),
		progress.WithLogger(logger),
	)
	uc := usecase.NewService(engine, cat, validator.New(), engine.Events(), st.store, keys, logger)
	limiter := rate.NewLimiter(rate.Limit(cfg.SubmitRate), cfg.SubmitBurst)
	h := httpadapter.New(uc, limiter, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	h.Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpadapter.RequestLogger(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Addr, "store", cfg.Store, "data", cfg.DataDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		engine.WatchRollover(gctx, cfg.RolloverInterval)
		return nil
	})
	if st.fs != nil {
		g.Go(func() error {
			return st.fs.Watch(gctx, storage.DefaultWatchDebounce, logger, engine.NotifyStoreChanged)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		return err
	}
	logger.Info("stopped")
	return nil
}
