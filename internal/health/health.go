package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/clambin/fancontrol/internal/monitor"
)

// Health serves the state of the last control loop iteration.
type Health struct {
	monitor monitor.Publisher
	logger  *slog.Logger
	update  monitor.Update
	updated bool
	lock    sync.RWMutex
}

func New(m monitor.Publisher, logger *slog.Logger) *Health {
	return &Health{
		monitor: m,
		logger:  logger,
	}
}

func (h *Health) Run(ctx context.Context) error {
	h.logger.Debug("started")
	defer h.logger.Debug("stopped")

	ch := h.monitor.Subscribe()
	defer h.monitor.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-ch:
			h.lock.Lock()
			h.update = update
			h.updated = true
			h.lock.Unlock()
		}
	}
}

func (h *Health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	if !h.updated || h.update.Reading == nil {
		http.Error(w, "no successful poll yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(h.update); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
