package monitor

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tofunori/farewatch/internal/integrations/flightapi"
	"github.com/tofunori/farewatch/internal/models"
)

func seg(carrier, depAt, arrAt string) flightapi.Segment {
	return flightapi.Segment{
		CarrierCode: carrier,
		Departure:   flightapi.Endpoint{At: depAt},
		Arrival:     flightapi.Endpoint{At: arrAt},
	}
}

var testQuery = models.SearchQuery{
	Origin:      "YUL",
	Destination: "LIM",
	DepartDate:  "2025-05-29",
	ReturnDate:  "2025-06-09",
}

func TestNormalize_OneStopRoundTrip(t *testing.T) {
	offer := flightapi.Offer{
		ID:    "offer-a",
		Price: flightapi.Price{Total: "750.00", Currency: "CAD"},
		Itineraries: []flightapi.Itinerary{
			{Segments: []flightapi.Segment{
				seg("AA", "2025-05-29T08:15:00", "2025-05-29T11:40:00"),
				seg("AA", "2025-05-29T13:05:00", "2025-05-29T19:30:00"),
			}},
		},
	}

	d, ok := Normalize(offer, testQuery, 1)
	require.True(t, ok)
	require.Equal(t, "offer-a", d.OfferID)
	require.True(t, d.Price.Equal(decimal.RequireFromString("750.00")))
	require.Equal(t, "CAD", d.Currency)
	require.Equal(t, []string{"AA"}, d.Airlines)
	require.Equal(t, 2, d.Segments)
	require.Equal(t, 1, d.Stops)
	require.False(t, d.IsDirect)
	require.Equal(t, time.Date(2025, 5, 29, 8, 15, 0, 0, time.UTC), d.DepartureTime)
	require.Equal(t, time.Date(2025, 5, 29, 19, 30, 0, 0, time.UTC), d.ArrivalTime)
	require.Equal(t, testQuery, d.Query)
}

func TestNormalize_TooManyStops(t *testing.T) {
	offer := flightapi.Offer{
		ID:    "offer-b",
		Price: flightapi.Price{Total: "690.00", Currency: "CAD"},
		Itineraries: []flightapi.Itinerary{
			{Segments: []flightapi.Segment{
				seg("CM", "2025-05-29T06:00:00", "2025-05-29T09:00:00"),
				seg("CM", "2025-05-29T10:30:00", "2025-05-29T14:00:00"),
				seg("AV", "2025-05-29T16:00:00", "2025-05-29T21:00:00"),
			}},
		},
	}

	_, ok := Normalize(offer, testQuery, 1)
	require.False(t, ok)
}

func TestNormalize_StopBoundaryInclusive(t *testing.T) {
	offer := flightapi.Offer{
		Price: flightapi.Price{Total: "500.00", Currency: "CAD"},
		Itineraries: []flightapi.Itinerary{
			{Segments: []flightapi.Segment{
				seg("LA", "2025-05-29T06:00:00", "2025-05-29T09:00:00"),
				seg("LA", "2025-05-29T10:30:00", "2025-05-29T14:00:00"),
				seg("LA", "2025-05-29T16:00:00", "2025-05-29T21:00:00"),
			}},
		},
	}

	// stops == maxStops is kept, not filtered.
	d, ok := Normalize(offer, testQuery, 2)
	require.True(t, ok)
	require.Equal(t, 2, d.Stops)
}

func TestNormalize_DirectFlight(t *testing.T) {
	offer := flightapi.Offer{
		Price: flightapi.Price{Total: "980.50", Currency: "CAD"},
		Itineraries: []flightapi.Itinerary{
			{Segments: []flightapi.Segment{
				seg("AC", "2025-05-29T08:15:00", "2025-05-29T16:40:00"),
			}},
		},
	}

	d, ok := Normalize(offer, testQuery, 0)
	require.True(t, ok)
	require.Equal(t, 0, d.Stops)
	require.True(t, d.IsDirect)
}

func TestNormalize_AirlinesOrderedUnique(t *testing.T) {
	offer := flightapi.Offer{
		Price: flightapi.Price{Total: "810.00", Currency: "CAD"},
		Itineraries: []flightapi.Itinerary{
			{Segments: []flightapi.Segment{
				seg("CM", "2025-05-29T06:00:00", "2025-05-29T09:00:00"),
				seg("AV", "2025-05-29T10:30:00", "2025-05-29T14:00:00"),
			}},
			{Segments: []flightapi.Segment{
				seg("CM", "2025-06-09T06:00:00", "2025-06-09T09:00:00"),
				seg("LA", "2025-06-09T10:30:00", "2025-06-09T14:00:00"),
			}},
		},
	}

	d, ok := Normalize(offer, testQuery, 5)
	require.True(t, ok)
	// First-seen order, duplicates dropped, both itineraries counted.
	require.Equal(t, []string{"CM", "AV", "LA"}, d.Airlines)
	require.Equal(t, 4, d.Segments)
	require.Equal(t, 3, d.Stops)
	// Times come from the outbound itinerary only.
	require.Equal(t, time.Date(2025, 5, 29, 6, 0, 0, 0, time.UTC), d.DepartureTime)
	require.Equal(t, time.Date(2025, 5, 29, 14, 0, 0, 0, time.UTC), d.ArrivalTime)
}

func TestNormalize_Unusable(t *testing.T) {
	noSegments := flightapi.Offer{
		Price:       flightapi.Price{Total: "500.00", Currency: "CAD"},
		Itineraries: []flightapi.Itinerary{{Segments: nil}},
	}
	_, ok := Normalize(noSegments, testQuery, 3)
	require.False(t, ok)

	badPrice := flightapi.Offer{
		Price: flightapi.Price{Total: "n/a", Currency: "CAD"},
		Itineraries: []flightapi.Itinerary{
			{Segments: []flightapi.Segment{
				seg("AC", "2025-05-29T08:15:00", "2025-05-29T16:40:00"),
			}},
		},
	}
	_, ok = Normalize(badPrice, testQuery, 3)
	require.False(t, ok)

	badTime := flightapi.Offer{
		Price: flightapi.Price{Total: "500.00", Currency: "CAD"},
		Itineraries: []flightapi.Itinerary{
			{Segments: []flightapi.Segment{
				seg("AC", "29/05/2025 08:15", "2025-05-29T16:40:00"),
			}},
		},
	}
	_, ok = Normalize(badTime, testQuery, 3)
	require.False(t, ok)
}
