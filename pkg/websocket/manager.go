package websocket

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Status describes a change in the stream connection state.
type Status int

const (
	// StatusConnected is emitted after a successful (re)connection.
	StatusConnected Status = iota
	// StatusDisconnected is emitted when the connection drops; reconnection
	// is attempted automatically.
	StatusDisconnected
	// StatusLost is emitted when reconnection attempts are exhausted. The
	// manager stops after emitting it.
	StatusLost
)

// TradeMessage is a raw trade notification from the live-data feed for the
// subscribed wallet. Numeric fields are kept as strings where the feed sends
// them that way; normalization happens at the monitor boundary.
type TradeMessage struct {
	TransactionHash string  `json:"transactionHash"`
	ProxyWallet     string  `json:"proxyWallet"`
	ConditionID     string  `json:"conditionId"`
	Asset           string  `json:"asset"`
	Side            string  `json:"side"`
	Size            float64 `json:"size"`
	Price           float64 `json:"price"`
	Timestamp       int64   `json:"timestamp"`
	Title           string  `json:"title"`
	Outcome         string  `json:"outcome"`
}

// envelope wraps messages on the live-data feed.
type envelope struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Manager manages the WebSocket subscription for a single wallet's trades.
type Manager struct {
	url          string
	wallet       string
	conn         *websocket.Conn
	logger       *zap.Logger
	reconnectMgr *ReconnectManager
	config       Config
	messageChan  chan *TradeMessage
	statusChan   chan Status
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	connected    atomic.Bool
	lastPongTime atomic.Int64
}

// Config holds WebSocket manager configuration.
type Config struct {
	URL                   string
	Wallet                string
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	ReconnectMaxAttempts  int
	MessageBufferSize     int
	Logger                *zap.Logger
}

// New creates a new WebSocket manager.
func New(cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
		MaxAttempts:       cfg.ReconnectMaxAttempts,
	}

	return &Manager{
		url:          cfg.URL,
		wallet:       cfg.Wallet,
		logger:       cfg.Logger,
		reconnectMgr: NewReconnectManager(reconnectCfg, cfg.Logger),
		config:       cfg,
		messageChan:  make(chan *TradeMessage, cfg.MessageBufferSize),
		statusChan:   make(chan Status, 8),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start establishes the connection and starts the read, ping and reconnect loops.
func (m *Manager) Start() error {
	m.logger.Info("websocket-manager-starting",
		zap.String("url", m.url),
		zap.String("wallet", m.wallet))

	err := m.connect(m.ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	m.wg.Add(3)
	go m.readLoop()
	go m.pingLoop()
	go m.reconnectLoop()

	return nil
}

// connect establishes a WebSocket connection and subscribes to the wallet's
// trade activity.
func (m *Manager) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: m.config.DialTimeout,
	}

	m.logger.Info("connecting-to-websocket", zap.String("url", m.url))

	conn, _, err := dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		m.lastPongTime.Store(time.Now().Unix())
		return nil
	})

	subscribeMsg := map[string]interface{}{
		"action": "subscribe",
		"subscriptions": []map[string]string{
			{
				"topic":   "activity",
				"type":    "trades",
				"filters": fmt.Sprintf(`{"proxyWallet":%q}`, m.wallet),
			},
		},
	}

	err = conn.WriteJSON(subscribeMsg)
	if err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe message: %w", err)
	}

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	m.connected.Store(true)
	m.lastPongTime.Store(time.Now().Unix())
	ActiveConnections.Set(1)

	m.logger.Info("websocket-connected-and-subscribed")

	return nil
}

// readLoop reads trade messages from the WebSocket.
func (m *Manager) readLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.mu.RLock()
		conn := m.conn
		m.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			m.logger.Warn("read-error", zap.Error(err))
			m.connected.Store(false)
			ActiveConnections.Set(0)
			m.notify(StatusDisconnected)
			return
		}

		var env envelope
		err = json.Unmarshal(message, &env)
		if err != nil || env.Topic == "" {
			// Heartbeats and subscription confirmations are not trade
			// envelopes; anything else unparseable is dropped.
			if len(message) > 4 {
				MessagesDroppedTotal.WithLabelValues("unparseable").Inc()
				m.logger.Debug("websocket-unparseable-message",
					zap.Int("bytes", len(message)))
			}
			continue
		}

		if env.Topic != "activity" || env.Type != "trades" {
			m.logger.Debug("websocket-control-message",
				zap.String("topic", env.Topic),
				zap.String("type", env.Type))
			continue
		}

		var trade TradeMessage
		err = json.Unmarshal(env.Payload, &trade)
		if err != nil {
			MessagesDroppedTotal.WithLabelValues("malformed_payload").Inc()
			m.logger.Warn("websocket-malformed-trade-payload", zap.Error(err))
			continue
		}

		MessagesReceivedTotal.Inc()

		select {
		case m.messageChan <- &trade:
		default:
			m.logger.Warn("message-channel-full",
				zap.String("transaction-hash", trade.TransactionHash))
			MessagesDroppedTotal.WithLabelValues("channel_full").Inc()
		}
	}
}

// pingLoop sends periodic PING messages.
func (m *Manager) pingLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.connected.Load() {
				continue
			}

			m.mu.RLock()
			conn := m.conn
			m.mu.RUnlock()

			if conn == nil {
				continue
			}

			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
			if err != nil {
				m.logger.Warn("ping-error", zap.Error(err))
			}
		}
	}
}

// reconnectLoop handles reconnection when the connection drops.
func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		if m.connected.Load() {
			time.Sleep(time.Second)
			continue
		}

		m.logger.Warn("connection-lost-initiating-reconnect")

		err := m.reconnectMgr.Reconnect(m.ctx, m.connect)
		if err != nil {
			if err == context.Canceled {
				return
			}
			if err == ErrReconnectExhausted {
				m.notify(StatusLost)
				return
			}
			m.logger.Error("reconnection-failed", zap.Error(err))
			continue
		}

		m.notify(StatusConnected)
		m.logger.Info("reconnection-complete-restarting-read-loop")

		m.wg.Add(1)
		go m.readLoop()
	}
}

// notify emits a status change without blocking the read/reconnect loops.
func (m *Manager) notify(s Status) {
	select {
	case m.statusChan <- s:
	default:
		m.logger.Warn("status-channel-full", zap.Int("status", int(s)))
	}
}

// MessageChan returns the channel of raw trade messages.
func (m *Manager) MessageChan() <-chan *TradeMessage {
	return m.messageChan
}

// StatusChan returns the channel of connection status changes.
func (m *Manager) StatusChan() <-chan Status {
	return m.statusChan
}

// Connected reports whether the stream connection is currently up.
func (m *Manager) Connected() bool {
	return m.connected.Load()
}

// Close gracefully closes the WebSocket manager.
func (m *Manager) Close() error {
	m.logger.Info("closing-websocket-manager")

	m.cancel()

	m.mu.RLock()
	if m.conn != nil {
		m.conn.Close()
	}
	m.mu.RUnlock()

	m.wg.Wait()

	close(m.messageChan)

	ActiveConnections.Set(0)

	m.logger.Info("websocket-manager-closed")

	return nil
}
