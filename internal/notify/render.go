package notify

import (
	"fmt"
	"strings"

	"github.com/tofunori/farewatch/internal/models"
)

// Render produces the alert subject and plain-text body.
func Render(d models.FlightDetails, tc ThresholdContext) (subject, body string) {
	subject = fmt.Sprintf("Price Alert: %s to %s - $%s",
		d.Query.Origin, d.Query.Destination, d.Price.StringFixed(2))

	kind := "Direct Flight"
	if !d.IsDirect {
		kind = fmt.Sprintf("Connecting Flight (%d segments)", d.Segments)
	}

	var b strings.Builder
	b.WriteString("Flight Price Alert\n")
	b.WriteString("==================\n\n")
	fmt.Fprintf(&b, "%s to %s\n", d.Query.Origin, d.Query.Destination)
	fmt.Fprintf(&b, "Price: $%s %s\n", d.Price.StringFixed(2), d.Currency)
	fmt.Fprintf(&b, "Airlines: %s\n", d.AirlineList())
	fmt.Fprintf(&b, "Departure: %s\n", d.DepartureTime.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Arrival: %s\n", d.ArrivalTime.Format("2006-01-02 15:04"))
	b.WriteString(kind + "\n")

	if !tc.Threshold.IsZero() {
		fmt.Fprintf(&b, "\nThis price is below your threshold of $%s!\n", tc.Threshold.StringFixed(2))
	}
	if tc.HasPreviousLow {
		drop := tc.PreviousLow.Sub(d.Price)
		fmt.Fprintf(&b, "Previous low was $%s (drop of $%s).\n",
			tc.PreviousLow.StringFixed(2), drop.StringFixed(2))
	}
	b.WriteString("\nBook now to secure this price!\n")

	return subject, b.String()
}
