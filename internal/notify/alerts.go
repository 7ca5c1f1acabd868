package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// Event types the alert watcher can emit.
const (
	EventStopLoss      = "stop_loss_detected"
	EventDriverChanged = "driver_changed"
	EventRefreshError  = "refresh_error"
)

// refreshEvent mirrors the payload published on the insights channel after
// each summary recomputation.
type refreshEvent struct {
	Event         string  `json:"event"`
	VaultID       string  `json:"vault_id"`
	Driver        string  `json:"driver"`
	Confidence    float64 `json:"confidence"`
	NetUSD        float64 `json:"net_usd"`
	StopLossCount int     `json:"stop_loss_count"`
}

// vaultAlertState tracks what was last seen for one vault so repeated
// refreshes do not re-alert on old conditions.
type vaultAlertState struct {
	driver        string
	stopLossCount int
	seen          bool
}

// AlertWatcher subscribes to the insights signal channel and turns summary
// changes into operator notifications: a rising stop-loss count and a change
// of the classified activity driver each produce one alert.
type AlertWatcher struct {
	bus      domain.SignalBus
	notifier *Notifier
	logger   *slog.Logger

	mu    sync.Mutex
	state map[string]vaultAlertState
}

// NewAlertWatcher creates an AlertWatcher.
func NewAlertWatcher(bus domain.SignalBus, notifier *Notifier, logger *slog.Logger) *AlertWatcher {
	return &AlertWatcher{
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "alert_watcher")),
		state:    make(map[string]vaultAlertState),
	}
}

// Run consumes refresh events until the context is cancelled.
func (w *AlertWatcher) Run(ctx context.Context) error {
	events, err := w.bus.Subscribe(ctx, "insights")
	if err != nil {
		return fmt.Errorf("notify: subscribe insights channel: %w", err)
	}

	w.logger.InfoContext(ctx, "alert watcher started")

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "alert watcher stopped")
			return ctx.Err()
		case payload, ok := <-events:
			if !ok {
				return fmt.Errorf("notify: insights channel closed")
			}
			w.handle(ctx, payload)
		}
	}
}

func (w *AlertWatcher) handle(ctx context.Context, payload []byte) {
	var evt refreshEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		w.logger.WarnContext(ctx, "unparseable refresh event",
			slog.String("error", err.Error()),
		)
		return
	}
	if evt.VaultID == "" {
		return
	}

	w.mu.Lock()
	prev := w.state[evt.VaultID]
	w.state[evt.VaultID] = vaultAlertState{
		driver:        evt.Driver,
		stopLossCount: evt.StopLossCount,
		seen:          true,
	}
	w.mu.Unlock()

	if prev.seen && evt.StopLossCount > prev.stopLossCount {
		title := fmt.Sprintf("Stop-loss triggered: %s", evt.VaultID)
		msg := fmt.Sprintf("Vault %s recorded %d new stop-loss exit(s). Net flow: $%.2f.",
			evt.VaultID, evt.StopLossCount-prev.stopLossCount, evt.NetUSD)
		if err := w.notifier.Notify(ctx, EventStopLoss, title, msg); err != nil {
			w.logger.ErrorContext(ctx, "stop-loss alert failed",
				slog.String("vault_id", evt.VaultID),
				slog.String("error", err.Error()),
			)
		}
	}

	if prev.seen && evt.Driver != "" && evt.Driver != prev.driver {
		title := fmt.Sprintf("Activity driver changed: %s", evt.VaultID)
		msg := fmt.Sprintf("Vault %s driver moved from %q to %q (confidence %.0f%%).",
			evt.VaultID, prev.driver, evt.Driver, evt.Confidence*100)
		if err := w.notifier.Notify(ctx, EventDriverChanged, title, msg); err != nil {
			w.logger.ErrorContext(ctx, "driver change alert failed",
				slog.String("vault_id", evt.VaultID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// NotifyRefreshError reports a failed background refresh for a vault. It is
// called directly by the refresher rather than through the signal bus so
// errors still surface when Redis is down.
func (w *AlertWatcher) NotifyRefreshError(ctx context.Context, vaultID string, cause error) {
	title := fmt.Sprintf("Refresh failed: %s", vaultID)
	if err := w.notifier.Notify(ctx, EventRefreshError, title, cause.Error()); err != nil {
		w.logger.ErrorContext(ctx, "refresh error alert failed",
			slog.String("vault_id", vaultID),
			slog.String("error", err.Error()),
		)
	}
}
