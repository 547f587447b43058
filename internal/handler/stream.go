package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aryan0dhankhar/pgledger/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// DashboardStream pushes the dashboard over a websocket on every data change
// and at a fixed interval.
type DashboardStream struct {
	ledger         *service.LedgerController
	interval       time.Duration
	allowedOrigins []string
	logger         *slog.Logger
}

// NewDashboardStream creates a new dashboard stream handler
func NewDashboardStream(ctrl *service.LedgerController, interval time.Duration, allowedOrigins []string, logger *slog.Logger) *DashboardStream {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &DashboardStream{ledger: ctrl, interval: interval, allowedOrigins: allowedOrigins, logger: logger}
}

func (h *DashboardStream) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin) {
				return true
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/dashboard. Query parameters match /api/dashboard.
func (h *DashboardStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query(), h.ledger.Now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	upgrader := h.upgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// the client only sends control frames; a read error means it went away
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	push := func() error {
		v, err := h.ledger.Refresh(ctx, q)
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err != nil {
			return ws.WriteJSON(ErrorResponse{Error: err.Error()})
		}
		return ws.WriteJSON(dashboardOf(v))
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	changed := h.ledger.Changed()
	if err := push(); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
			changed = h.ledger.Changed()
		case <-ticker.C:
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
			continue
		}
		if err := push(); err != nil {
			h.logger.Debug("dashboard stream ended", slog.String("reason", err.Error()))
			return
		}
	}
}
