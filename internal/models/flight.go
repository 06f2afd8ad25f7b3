package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SearchQuery is one (departure, return) date pair to ask the provider
// about. Dates are YYYY-MM-DD; an empty ReturnDate means one-way.
type SearchQuery struct {
	Origin      string
	Destination string
	DepartDate  string
	ReturnDate  string
}

func (q SearchQuery) RoundTrip() bool { return q.ReturnDate != "" }

// Key is a stable identity for deduplication and cache lookups.
func (q SearchQuery) Key() string {
	return strings.Join([]string{q.Origin, q.Destination, q.DepartDate, q.ReturnDate}, "|")
}

// FlightDetails is the canonical summary of one provider offer.
type FlightDetails struct {
	OfferID  string
	Price    decimal.Decimal
	Currency string

	// Carrier codes across all segments, first-seen order, no repeats.
	Airlines []string

	Segments int
	Stops    int
	IsDirect bool

	DepartureTime time.Time
	ArrivalTime   time.Time

	Query SearchQuery
}

func (f FlightDetails) AirlineList() string {
	return strings.Join(f.Airlines, ", ")
}
