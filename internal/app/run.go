package app

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mselser95/polymarket-copytrader/internal/engine"
	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("target-wallet", a.cfg.TargetWallet),
		zap.String("copy-mode", a.cfg.CopyMode),
		zap.String("execution-mode", a.cfg.ExecutionMode),
		zap.String("log-level", a.cfg.LogLevel))

	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Start the copy engine; it owns the monitor's lifecycle
	engineErr := make(chan error, 1)
	a.wg.Add(1)
	go a.runEngine(engineErr)

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("ws-url", a.cfg.PolymarketWSURL))

	return a.waitForShutdown(engineErr)
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runEngine(errC chan<- error) {
	defer a.wg.Done()
	errC <- a.engine.Run(a.ctx)
}

func (a *App) waitForShutdown(engineErr <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case err := <-engineErr:
		if err != nil {
			if errors.Is(err, engine.ErrConnectionLost) {
				a.logger.Error("trade-stream-lost-shutting-down")
			} else {
				a.logger.Error("engine-halted", zap.Error(err))
			}
			runErr = err
		} else {
			a.logger.Info("engine-finished")
		}
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	shutdownErr := a.Shutdown()
	if runErr != nil {
		return runErr
	}
	return shutdownErr
}
