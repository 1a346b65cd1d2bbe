package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pkgch "AuctionPulse/pkg/clickhouse"
	"AuctionPulse/pkg/config"
	xhttp "AuctionPulse/pkg/http"
	pkgkafka "AuctionPulse/pkg/kafka"
	applogger "AuctionPulse/pkg/logger"
)

// App encapsulates the application lifecycle: Kafka ingestion, the
// query API and infrastructure clients.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	consumer   *pkgkafka.Consumer
	handlers   []pkgkafka.MessageHandler
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. The consumer
// may be nil when Kafka is not configured; the query API still runs.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	httpServer := xhttp.NewServer(httpHandler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	)
	return &App{
		cfg:        cfg,
		l:          l,
		consumer:   consumer,
		handlers:   handlers,
		chClient:   chClient,
		httpServer: httpServer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.consumer != nil {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
		}
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
