package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"brasa/backend/internal/config"
	"brasa/backend/internal/httpapi"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the register HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if err := validateSecurityConfig(a.cfg); err != nil {
		return fmt.Errorf("invalid security configuration: %w", err)
	}

	rt, err := a.openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	auth := httpapi.NewAuthManager(a.cfg.AuthSecret, a.cfg.AccessTokenTTL(), a.cfg.OperatorPIN)
	api := httpapi.New(rt.service, auth, httpapi.Options{
		AllowedOrigin:  a.cfg.AllowedOrigin,
		MetricsEnabled: a.cfg.MetricsEnabled,
		Logger:         a.log,
	})

	server := &http.Server{
		Addr:              a.cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("register backend listening", zap.String("addr", a.cfg.Address()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-sigCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("shutdown error", zap.Error(err))
	}
	a.log.Info("server stopped")
	return nil
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.OperatorPIN) < 6 {
		return fmt.Errorf("OPERATOR_PIN must be set and at least 6 digits")
	}
	for _, r := range cfg.OperatorPIN {
		if r < '0' || r > '9' {
			return fmt.Errorf("OPERATOR_PIN must contain digits only")
		}
	}
	if err := validatePINStrength(cfg.OperatorPIN); err != nil {
		return fmt.Errorf("OPERATOR_PIN is too weak: %w", err)
	}
	return nil
}

// validatePINStrength rejects PINs that are all the same digit,
// sequential (ascending or descending), or from a known-weak list.
func validatePINStrength(pin string) error {
	known := map[string]bool{
		"123456": true, "654321": true, "000000": true, "111111": true,
		"121212": true, "112233": true, "123123": true, "696969": true,
	}
	if known[pin] {
		return fmt.Errorf("common PIN not allowed")
	}

	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("all-same-digit PIN not allowed")
	}

	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential PIN not allowed")
	}

	return nil
}
