package app

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mselser95/polymarket-copytrader/internal/dedup"
	"github.com/mselser95/polymarket-copytrader/internal/engine"
	"github.com/mselser95/polymarket-copytrader/internal/execution"
	"github.com/mselser95/polymarket-copytrader/internal/markets"
	"github.com/mselser95/polymarket-copytrader/internal/monitor"
	"github.com/mselser95/polymarket-copytrader/internal/reconcile"
	"github.com/mselser95/polymarket-copytrader/internal/safety"
	"github.com/mselser95/polymarket-copytrader/internal/sizing"
	"github.com/mselser95/polymarket-copytrader/internal/storage"
	"github.com/mselser95/polymarket-copytrader/pkg/cache"
	"github.com/mselser95/polymarket-copytrader/pkg/config"
	"github.com/mselser95/polymarket-copytrader/pkg/healthprobe"
	"github.com/mselser95/polymarket-copytrader/pkg/httpserver"
	"github.com/mselser95/polymarket-copytrader/pkg/wallet"
	"github.com/mselser95/polymarket-copytrader/pkg/websocket"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	marketCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	tradeMonitor := setupMonitor(cfg, logger, opts)

	activityStore, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	executor, initialBalance, balanceFunc, err := setupExecution(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup execution: %w", err)
	}

	tracker := reconcile.New(reconcile.Config{
		InitialBalance: initialBalance,
		Logger:         logger,
	})

	copyEngine := engine.New(engine.Config{
		Source: tradeMonitor,
		Ledger: dedup.New(dedup.Config{
			Retention:     cfg.DedupRetention,
			SweepInterval: cfg.DedupSweepInterval,
			Logger:        logger,
		}),
		Policy: sizing.New(sizing.Config{
			Mode:        cfg.CopyMode,
			ScaleFactor: cfg.ScaleFactor,
			FixedAmount: cfg.FixedTradeAmount,
		}),
		Gate: safety.New(safety.Config{
			MaxTradeAmount: cfg.MaxTradeAmount,
			MaxDailyVolume: cfg.MaxDailyVolume,
			Logger:         logger,
		}),
		Executor: executor,
		Tracker:  tracker,
		Resolver: setupResolver(cfg, logger, marketCache),
		Store:    activityStore,
		Logger:   logger,

		TargetWallet:    cfg.TargetWallet,
		HistoryLookback: cfg.PollLookback,
		SubmitTimeout:   cfg.ExecSubmitTimeout,
		BalanceFunc:     balanceFunc,
		SyncInterval:    cfg.WalletSyncInterval,
	})

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		StateProvider: copyEngine,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		tradeMonitor:  tradeMonitor,
		engine:        copyEngine,
		store:         activityStore,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max items (1000 markets)
		MaxCost:     1000,  // Maximum 1000 items in cache
		BufferItems: 64,    // Buffer size for Get operations
		Logger:      logger,
	})
}

func setupMonitor(cfg *config.Config, logger *zap.Logger, opts *Options) *monitor.Monitor {
	var wsManager *websocket.Manager
	if !opts.DisableStream {
		wsManager = websocket.New(websocket.Config{
			URL:                   cfg.PolymarketWSURL,
			Wallet:                cfg.TargetWallet,
			DialTimeout:           cfg.WSDialTimeout,
			PongTimeout:           cfg.WSPongTimeout,
			PingInterval:          cfg.WSPingInterval,
			ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
			ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
			ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
			ReconnectMaxAttempts:  cfg.WSReconnectMaxAttempts,
			MessageBufferSize:     cfg.WSMessageBufferSize,
			Logger:                logger,
		})
	}

	return monitor.New(monitor.Config{
		Wallet:       cfg.TargetWallet,
		WSManager:    wsManager,
		DataClient:   monitor.NewDataAPIClient(cfg.PolymarketDataURL, logger),
		PollInterval: cfg.PollInterval,
		PollLookback: cfg.PollLookback,
		BufferSize:   cfg.WSMessageBufferSize,
		Logger:       logger,
	})
}

func setupResolver(cfg *config.Config, logger *zap.Logger, marketCache cache.Cache) engine.MarketResolver {
	client := markets.NewMetadataClient(cfg.PolymarketGammaURL, logger)
	return markets.NewCachedResolver(client, marketCache, 0)
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

// setupExecution builds the order sink for the configured mode. Paper mode
// needs no credentials; live mode derives the signing address from the
// private key and syncs balance from chain.
func setupExecution(cfg *config.Config, logger *zap.Logger) (engine.Submitter, float64, engine.BalanceFunc, error) {
	policy := execution.RetryPolicy{
		MaxAttempts:   cfg.ExecMaxAttempts,
		BaseDelay:     cfg.ExecRetryBaseDelay,
		MaxDelay:      cfg.ExecRetryMaxDelay,
		Multiplier:    cfg.ExecRetryMult,
		JitterPercent: 0.2,
	}

	if cfg.ExecutionMode == "paper" {
		logger.Info("execution-mode-paper",
			zap.Float64("initial-balance", cfg.PaperInitialBalance))
		sink := execution.NewPaperSink(logger)
		return execution.NewFacade(sink, policy, logger), cfg.PaperInitialBalance, nil, nil
	}

	privateKeyHex := os.Getenv("POLYMARKET_PRIVATE_KEY")
	if privateKeyHex == "" {
		return nil, 0, nil, fmt.Errorf("POLYMARKET_PRIVATE_KEY is required in live mode")
	}

	orderClient, err := execution.NewOrderClient(&execution.OrderClientConfig{
		BaseURL:       cfg.PolymarketClobURL,
		APIKey:        cfg.PolymarketAPIKey,
		Secret:        cfg.PolymarketSecret,
		Passphrase:    cfg.PolymarketPassphrase,
		PrivateKey:    privateKeyHex,
		ProxyAddress:  cfg.ProxyAddress,
		SignatureType: cfg.SignatureType,
		Logger:        logger,
	})
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create order client: %w", err)
	}

	address, err := addressFromKey(privateKeyHex)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("derive address: %w", err)
	}
	if cfg.ProxyAddress != "" {
		address = cfg.ProxyAddress
	}

	walletClient, err := wallet.NewClient(cfg.PolygonRPCURL, cfg.PolymarketDataURL, logger)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create wallet client: %w", err)
	}

	logger.Info("execution-mode-live", zap.String("funder", address))

	return execution.NewFacade(orderClient, policy, logger), 0, walletBalanceFunc(walletClient, address), nil
}

// walletBalanceFunc adapts the on-chain USDC read into the engine's
// periodic balance sync.
func walletBalanceFunc(client *wallet.Client, address string) engine.BalanceFunc {
	return func(ctx context.Context) (float64, error) {
		balances, err := client.GetBalances(ctx, common.HexToAddress(address))
		if err != nil {
			return 0, err
		}
		return balances.USDCFloat(), nil
	}
}

func addressFromKey(privateKeyHex string) (string, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", err
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("unexpected public key type")
	}

	return crypto.PubkeyToAddress(*publicKey).Hex(), nil
}
