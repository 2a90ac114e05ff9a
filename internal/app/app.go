package app

import (
	"context"
	"sync"

	"github.com/mselser95/polymarket-copytrader/internal/engine"
	"github.com/mselser95/polymarket-copytrader/internal/monitor"
	"github.com/mselser95/polymarket-copytrader/internal/storage"
	"github.com/mselser95/polymarket-copytrader/pkg/config"
	"github.com/mselser95/polymarket-copytrader/pkg/healthprobe"
	"github.com/mselser95/polymarket-copytrader/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	tradeMonitor  *monitor.Monitor
	engine        *engine.Engine
	store         storage.Storage
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options.
type Options struct {
	DisableStream bool // poll-only mode, for debugging against flaky feeds
}
