package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ipgpay-client/internal/config"
	"ipgpay-client/internal/logger"
	"ipgpay-client/internal/middleware"
	"ipgpay-client/internal/payment/webhook"
)

const notificationPath = "/ipgpay/notification/handle"

// logProcessor records verified notifications. Hosts embedding the client
// plug their own webhook.Processor in instead.
type logProcessor struct{}

func (logProcessor) HandleNotification(ctx context.Context, n webhook.Notification) error {
	logger.FromCtx(ctx).Info("Gateway notification",
		zap.String("notification_type", n.Type),
		zap.String("order_id", n.OrderID),
		zap.String("order_reference", n.OrderReference),
		zap.String("trans_id", n.TransID),
		zap.String("amount", n.Amount),
		zap.String("currency", n.Currency),
	)
	return nil
}

func setupRouter(notifications http.Handler) http.Handler {
	limiter := middleware.NewRateLimiter(middleware.DefaultNotificationLimit, middleware.DefaultNotificationBurst)

	router := chi.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	router.With(limiter.Middleware).Handle(notificationPath, notifications)
	return router
}

// notificationSecret is the key the gateway signs callbacks with.
func notificationSecret(cfg *config.Config) string {
	if cfg.SecretKey != "" {
		return cfg.SecretKey
	}
	return cfg.APIKey
}

func runListen(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("listen")
	addr := fs.String("addr", ":"+cfg.AppPort, "listen address")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if notificationSecret(cfg) == "" {
		return errors.New("listen: IPGPAY_SECRET_KEY or IPGPAY_API_KEY is required to verify notifications")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           setupRouter(webhook.NewNotificationHandler(notificationSecret(cfg), logProcessor{})),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("Notification endpoint listening", zap.String("addr", *addr), zap.String("path", notificationPath))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
