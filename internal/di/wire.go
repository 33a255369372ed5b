//go:build wireinject
// +build wireinject

package di

import (
	"MarketScout/pkg/config"
	"MarketScout/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Provider client
		ProvideRetryPolicy,
		ProvideHistoryProvider,

		// Pipeline services
		ProvideRegistry,
		ProvideForecaster,
		ProvideRanker,
		ProvideArtifactBuilder,
		ProvideArtifactStore,
		ProvideUniverse,
		ProvidePipeline,

		// API + application
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
