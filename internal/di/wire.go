//go:build wireinject
// +build wireinject

package di

import (
	"LunarPulse/pkg/config"
	"LunarPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,
		ProvideLogger,
		ProvideMetrics,

		// Market data and on-chain sources
		ProvideDataSource,
		ProvideWalletSource,
		ProvideCoinGecko,

		// Engine state
		ProvideObservationStore,
		ProvideHotZoneAccumulator,
		ProvideStateStore,

		// Delivery
		ProvideHub,
		ProvideSink,
		ProvideSignalStore,
		ProvidePipeline,

		// Strategies
		ProvideStrategies,
		ProvideRunner,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
