package httpserver

import (
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

// StateProvider exposes the engine's reconciled view for read-only export.
type StateProvider interface {
	Snapshot() types.AccountState
	Activity(limit int) []types.ActivityRecord
	Phase() string
}

// StateHandler serves the engine's account state and activity log.
type StateHandler struct {
	provider StateProvider
	logger   *zap.Logger
}

// NewStateHandler creates a state handler.
func NewStateHandler(provider StateProvider, logger *zap.Logger) *StateHandler {
	return &StateHandler{
		provider: provider,
		logger:   logger,
	}
}

// stateResponse is the JSON shape of GET /api/state.
type stateResponse struct {
	Phase            string             `json:"phase"`
	Balance          float64            `json:"balance"`
	Positions        map[string]float64 `json:"positions"`
	CopiedTradeCount int                `json:"copied_trade_count"`
	SessionVolume    float64            `json:"session_volume"`
	UpdatedAt        string             `json:"updated_at"`
}

// HandleState serves the current account snapshot.
func (h *StateHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	snap := h.provider.Snapshot()

	resp := stateResponse{
		Phase:            h.provider.Phase(),
		Balance:          snap.Balance,
		Positions:        snap.Positions,
		CopiedTradeCount: snap.CopiedTradeCount,
		SessionVolume:    snap.SessionVolume,
		UpdatedAt:        snap.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("encode-state-response", zap.Error(err))
	}
}

// HandleActivity serves recent activity records, newest first. The
// optional limit query parameter bounds the result (default 100).
func (h *StateHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records := h.provider.Activity(limit)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		h.logger.Warn("encode-activity-response", zap.Error(err))
	}
}
