//go:build wireinject
// +build wireinject

package di

import (
	"RiskLens/pkg/config"
	"RiskLens/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,

		// Repositories
		ProvideSeriesSource,
		ProvideReportStore,

		// Engine services
		ProvideAligner,
		ProvideBetaEstimator,
		ProvideScenarioGenerator,
		ProvideTailRiskEstimator,
		ProvideDiversificationMonitor,

		// Use cases
		ProvideBuilderConfig,
		ProvideReportBuilder,
		ProvideScenarioRunner,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
