package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/fundtrader/internal/api"
	"github.com/rustyeddy/fundtrader/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve fund histories and the portfolio over HTTP",
	Long: `Serve the JSON API used by the web frontend.

Example:
  fundtrader serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr    string
	serveRelease bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveRelease, "release", false, "run gin in release mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveRelease {
		gin.SetMode(gin.ReleaseMode)
	}

	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	actions, closeLog, err := openActionLog(cfg.Data.ActionLog)
	if err != nil {
		return err
	}
	defer closeLog()
	l.SetActionLog(actions)

	srv := api.NewServer(store.New(cfg.Data.FundsDir), l,
		api.WithFundNames(fundNames(cfg)),
		api.WithRateLimit(cfg.Server.RequestsPerSecond),
	)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serving %s on %s", cfg.Data.FundsDir, cfg.Server.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
