// Package monitor watches the target wallet's trades over two redundant
// paths, a WebSocket stream and a Data API poll, and merges them into a
// single ordered event channel. Deduplication across the two paths is the
// ledger's job downstream; the monitor only normalizes and forwards.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"github.com/mselser95/polymarket-copytrader/pkg/websocket"
	"go.uber.org/zap"
)

// Status mirrors the stream connection state for the engine's state machine.
type Status int

const (
	StatusConnected Status = iota
	StatusDisconnected
	StatusLost
)

// maxPollPages bounds how far back one poll will page when catching up
// after an outage.
const maxPollPages = 5

// Monitor merges the stream and poll paths into one TradeEvent channel.
type Monitor struct {
	wallet       string
	wsManager    *websocket.Manager
	dataClient   *DataAPIClient
	pollInterval time.Duration
	pollLookback int
	lastSeen     int64 // newest trade timestamp seen by the poll path
	logger       *zap.Logger

	events     chan *types.TradeEvent
	status     chan Status
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	gapRequest chan struct{}
}

// Config holds monitor configuration.
type Config struct {
	Wallet       string
	WSManager    *websocket.Manager
	DataClient   *DataAPIClient
	PollInterval time.Duration
	PollLookback int
	BufferSize   int
	Logger       *zap.Logger
}

// New creates a monitor. The WebSocket manager may be nil, in which case
// only the poll path runs.
func New(cfg Config) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 256
	}

	return &Monitor{
		wallet:       cfg.Wallet,
		wsManager:    cfg.WSManager,
		dataClient:   cfg.DataClient,
		pollInterval: cfg.PollInterval,
		pollLookback: cfg.PollLookback,
		logger:       cfg.Logger,
		events:       make(chan *types.TradeEvent, bufferSize),
		status:       make(chan Status, 8),
		ctx:          ctx,
		cancel:       cancel,
		gapRequest:   make(chan struct{}, 1),
	}
}

// RecentHistory fetches the wallet's recent trade history for the startup
// preseed: trades that predate the session must never be copied.
func (m *Monitor) RecentHistory(ctx context.Context, limit int) ([]string, error) {
	trades, err := m.dataClient.RecentTrades(ctx, m.wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch startup history: %w", err)
	}

	ids := make([]string, 0, len(trades))
	for i := range trades {
		event, err := normalizeDataAPITrade(&trades[i], types.OriginPoll)
		if err != nil {
			continue
		}
		ids = append(ids, event.SourceTradeID)
	}

	return ids, nil
}

// Start launches the stream and poll loops.
func (m *Monitor) Start() error {
	if m.wsManager != nil {
		if err := m.wsManager.Start(); err != nil {
			return fmt.Errorf("start stream: %w", err)
		}

		m.wg.Add(2)
		go m.streamLoop()
		go m.statusLoop()
	}

	m.wg.Add(1)
	go m.pollLoop()

	m.logger.Info("monitor-started",
		zap.String("wallet", m.wallet),
		zap.Duration("poll-interval", m.pollInterval),
		zap.Bool("stream-enabled", m.wsManager != nil))

	return nil
}

// streamLoop normalizes and forwards messages from the WebSocket path.
func (m *Monitor) streamLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case msg, ok := <-m.wsManager.MessageChan():
			if !ok {
				return
			}

			event, err := normalizeStreamTrade(msg)
			if err != nil {
				EventsDroppedTotal.WithLabelValues(string(types.OriginStream)).Inc()
				m.logger.Warn("dropping-malformed-stream-event", zap.Error(err))
				continue
			}

			m.forward(event)
		}
	}
}

// statusLoop relays stream connection transitions and schedules a gap-fill
// poll after every reconnect, so trades made while disconnected are picked
// up immediately instead of waiting for the next poll tick.
func (m *Monitor) statusLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case s, ok := <-m.wsManager.StatusChan():
			if !ok {
				return
			}

			switch s {
			case websocket.StatusConnected:
				m.requestGapFill()
				m.notify(StatusConnected)
			case websocket.StatusDisconnected:
				m.notify(StatusDisconnected)
			case websocket.StatusLost:
				m.notify(StatusLost)
			}
		}
	}
}

// pollLoop periodically fetches recent trades from the Data API. The poll
// path catches trades the stream missed and is the sole path when the
// stream is disabled.
func (m *Monitor) pollLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.pollOnce()
		case <-m.gapRequest:
			m.logger.Info("gap-fill-poll-after-reconnect")
			m.pollOnce()
		}
	}
}

func (m *Monitor) pollOnce() {
	// Pagination can take several round trips, so the timeout floor is
	// wider than a fast poll interval.
	timeout := m.pollInterval
	if timeout < 10*time.Second {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(m.ctx, timeout)
	defer cancel()

	trades, err := m.fetchSinceLastSeen(ctx)
	if err != nil {
		PollErrorsTotal.Inc()
		m.logger.Warn("poll-failed", zap.Error(err))
		return
	}

	PollsTotal.Inc()

	// The API returns newest first; forward oldest first to keep the
	// channel roughly chronological.
	for i := len(trades) - 1; i >= 0; i-- {
		event, err := normalizeDataAPITrade(&trades[i], types.OriginPoll)
		if err != nil {
			EventsDroppedTotal.WithLabelValues(string(types.OriginPoll)).Inc()
			m.logger.Warn("dropping-malformed-poll-event", zap.Error(err))
			continue
		}

		m.forward(event)
	}

	if len(trades) > 0 && trades[0].Timestamp > m.lastSeen {
		m.lastSeen = trades[0].Timestamp
	}
}

// fetchSinceLastSeen pages backwards through /trades until it reaches
// trades older than the newest one the previous poll saw, so an outage
// producing more than one page of trades loses nothing. Trades at exactly
// the cursor timestamp are re-collected; the dedup ledger drops repeats.
// The first poll takes a single page: the startup preseed already covers
// older history.
func (m *Monitor) fetchSinceLastSeen(ctx context.Context) ([]types.DataAPITrade, error) {
	var collected []types.DataAPITrade

	for page := 0; page < maxPollPages; page++ {
		trades, err := m.dataClient.TradesPage(ctx, m.wallet, m.pollLookback, page*m.pollLookback)
		if err != nil {
			return nil, err
		}

		caughtUp := false
		for i := range trades {
			if m.lastSeen > 0 && trades[i].Timestamp < m.lastSeen {
				caughtUp = true
				break
			}
			collected = append(collected, trades[i])
		}

		if caughtUp || len(trades) < m.pollLookback || m.lastSeen == 0 {
			return collected, nil
		}

		m.logger.Info("poll-paging-for-missed-trades",
			zap.Int("next-page", page+1),
			zap.Int("collected", len(collected)))
	}

	return collected, nil
}

func (m *Monitor) forward(event *types.TradeEvent) {
	EventsForwardedTotal.WithLabelValues(string(event.Origin)).Inc()

	select {
	case m.events <- event:
	case <-m.ctx.Done():
	}
}

func (m *Monitor) requestGapFill() {
	select {
	case m.gapRequest <- struct{}{}:
	default:
	}
}

func (m *Monitor) notify(s Status) {
	select {
	case m.status <- s:
	default:
		m.logger.Warn("monitor-status-channel-full", zap.Int("status", int(s)))
	}
}

// Events returns the merged, normalized trade event channel.
func (m *Monitor) Events() <-chan *types.TradeEvent {
	return m.events
}

// StatusChan returns stream connection transitions.
func (m *Monitor) StatusChan() <-chan Status {
	return m.status
}

// Close stops both paths and closes the event channel.
func (m *Monitor) Close() error {
	m.cancel()

	if m.wsManager != nil {
		if err := m.wsManager.Close(); err != nil {
			m.logger.Warn("error-closing-websocket-manager", zap.Error(err))
		}
	}

	m.wg.Wait()
	close(m.events)

	m.logger.Info("monitor-closed")

	return nil
}
