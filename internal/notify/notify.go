// Package notify delivers fare alerts. Delivery is fire-and-forget
// from the monitor's perspective: a failed send is logged by the
// caller and never aborts a check cycle.
package notify

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tofunori/farewatch/internal/models"
)

// ThresholdContext carries the comparison state that qualified the
// alert, for rendering.
type ThresholdContext struct {
	Threshold      decimal.Decimal
	PreviousLow    decimal.Decimal
	HasPreviousLow bool
}

type Notifier interface {
	Notify(ctx context.Context, details models.FlightDetails, tc ThresholdContext) error
}

// LogNotifier writes the alert to the log instead of sending it
// anywhere. Used when no SMTP settings are configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, details models.FlightDetails, tc ThresholdContext) error {
	subject, body := Render(details, tc)
	slog.Info("price alert (email not configured)",
		"subject", subject,
		"body", body,
	)
	return nil
}
