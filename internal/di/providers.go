package di

import (
	"context"
	"fmt"
	"time"

	domrepo "AuctionPulse/internal/domain/repository"
	domsvc "AuctionPulse/internal/domain/service"
	"AuctionPulse/internal/handler/api"
	internalrepo "AuctionPulse/internal/repository"
	icache "AuctionPulse/internal/service/cache"
	"AuctionPulse/internal/services/snapshot"
	"AuctionPulse/internal/usecase"
	pkgcal "AuctionPulse/pkg/calendar"
	pkgch "AuctionPulse/pkg/clickhouse"
	"AuctionPulse/pkg/config"
	xhttp "AuctionPulse/pkg/http"
	pkgkafka "AuctionPulse/pkg/kafka"
	applogger "AuctionPulse/pkg/logger"
	"AuctionPulse/pkg/metrics"
	"AuctionPulse/pkg/server"
)

// ProvideLogger creates the application logger; console output in
// development, JSON elsewhere.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{Level: "info", Format: "json", Output: "stdout"}
	if cfg.Environment == "development" {
		lc.Level = "debug"
		lc.Format = "console"
	}
	return applogger.New(lc)
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideSnapshotStore creates the ClickHouse snapshot store.
func ProvideSnapshotStore(chClient *pkgch.Client, l *applogger.Logger) domrepo.SnapshotStore {
	store := internalrepo.NewCHSnapshotStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCache selects Redis when configured, otherwise the in-process
// TTL cache.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	r := cfg.Analysis.Redis
	if r.Enabled && r.Addr != "" {
		return icache.NewRedisCache(icache.RedisConfig{Addr: r.Addr, Password: r.Password, DB: r.DB})
	}
	return icache.NewTTLCache()
}

// ProvideCalendar creates the Shanghai trading calendar.
func ProvideCalendar() *pkgcal.TradingCalendar {
	return pkgcal.NewXSHG()
}

// ProvideAnalyzer creates the analysis usecase.
func ProvideAnalyzer(
	store domrepo.SnapshotStore,
	cal *pkgcal.TradingCalendar,
	c icache.BytesCache,
	m domrepo.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) domsvc.MarketAnalytics {
	return usecase.NewMarketAnalyzer(store, cal, c, m, usecase.AnalyzerConfig{
		ConceptBlacklist: cfg.Analysis.ConceptBlacklist,
		TopN:             cfg.Analysis.TopN,
		WindowDays:       cfg.Analysis.WindowDays,
		Workers:          cfg.Analysis.Workers,
		CacheTTL:         cfg.Analysis.CacheTTL,
	}, l)
}

// ProvideHTTPHandler creates the query API handler.
func ProvideHTTPHandler(l *applogger.Logger, analytics domsvc.MarketAnalytics) xhttp.Handler {
	return api.NewMarketEchoHandler(l, analytics)
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when no
// brokers are configured (query-only deployment).
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaHandlers creates the ingestion message handlers.
func ProvideKafkaHandlers(
	cfg *config.Config,
	store domrepo.SnapshotStore,
	m domrepo.Metrics,
	l *applogger.Logger,
) []pkgkafka.MessageHandler {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil
	}
	normalizer := snapshot.NewNormalizer(l)
	handlers := []pkgkafka.MessageHandler{
		usecase.NewKafkaSnapshotsHandler(cfg.Kafka.SnapshotsTopic, normalizer, store, m, l),
	}
	if cfg.Kafka.LimitPoolTopic != "" {
		handlers = append(handlers, usecase.NewKafkaLimitPoolHandler(cfg.Kafka.LimitPoolTopic, store, m, l))
	}
	if cfg.Kafka.ConceptMembersTopic != "" {
		handlers = append(handlers, usecase.NewKafkaConceptMembersHandler(cfg.Kafka.ConceptMembersTopic, store, m, l))
	}
	return handlers
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, consumer, handlers, chClient, httpHandler)
}
