//go:build wireinject
// +build wireinject

package di

import (
	"StockWatch/pkg/config"
	"StockWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Sinks first: the logger ships aggregated errors through the relay
		ProvideAlertRelay,
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvideSnapshotStore,
		ProvideAPIClient,
		ProvideRealtimeClient,

		// Use cases
		ProvideEventPipeline,
		ProvideMonitor,

		// HTTP
		ProvideDashboardHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
