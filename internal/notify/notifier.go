// Package notify delivers operator alerts about vault activity: stop-loss
// exits, driver changes, and failed refreshes. Alerts fan out to every
// registered sender (Telegram, Discord) and can be filtered by event type so
// operators receive only what they care about.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Sender is one delivery channel for vault alerts.
type Sender interface {
	// Send delivers an alert with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name identifies the sender in logs, e.g. "telegram".
	Name() string
}

// Notifier fans alerts out to the configured senders, dropping events the
// operator has not subscribed to.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to senders. Only events listed
// in events pass the Notify filter; an empty list subscribes to everything.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	subscribed := make(map[string]bool, len(events))
	for _, e := range events {
		subscribed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  subscribed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers the alert when the operator subscribes to its event type.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "alert filtered out",
			slog.String("event", event),
		)
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// NotifyAll delivers the alert regardless of the event filter.
func (n *Notifier) NotifyAll(ctx context.Context, title, message string) error {
	return n.dispatch(ctx, title, message)
}

// dispatch sends to every sender. A failing sender never blocks the others;
// the failures come back joined so the caller sees each one.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []error
	for _, s := range n.senders {
		err := s.Send(ctx, title, message)
		if err != nil {
			n.logger.ErrorContext(ctx, "alert delivery failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "alert delivered",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: dispatch: %w", errors.Join(errs...))
	}
	return nil
}
