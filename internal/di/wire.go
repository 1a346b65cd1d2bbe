//go:build wireinject
// +build wireinject

package di

import (
	"AuctionPulse/pkg/config"
	"AuctionPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaConsumer,

		// Repositories and supporting services
		ProvideSnapshotStore,
		ProvideCache,
		ProvideCalendar,

		// Use cases and handlers
		ProvideAnalyzer,
		ProvideHTTPHandler,
		ProvideKafkaHandlers,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
