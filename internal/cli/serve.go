package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	httpapi "flashtans/internal/http"
	"flashtans/internal/service"
	"flashtans/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	log.Info("service_starting", "store", cfg.Store.Driver)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error("store_close_error", "error", err)
		}
	}()

	products := service.NewProductService(store.Products())
	if cfg.Seed.SampleProducts {
		n, err := products.SeedIfEmpty(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		if n > 0 {
			log.Info("catalog_seeded", "count", n)
		}
	}
	orders := service.NewOrderService(store, log)

	gin.SetMode(gin.ReleaseMode)
	api, err := httpapi.NewServer(products, orders, store, log)
	if err != nil {
		return err
	}

	addr := cfg.Server.ListenAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Engine(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	select {
	case s := <-sigc:
		log.Info("shutdown_signal", "signal", s.String())
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		log.Error("http_shutdown_error", "error", err)
	}
	log.Info("service_stopped")
	return nil
}
