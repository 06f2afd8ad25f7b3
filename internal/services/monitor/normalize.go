package monitor

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tofunori/farewatch/internal/integrations/flightapi"
	"github.com/tofunori/farewatch/internal/models"
)

// Provider timestamps are local airport times without a zone.
const segmentTimeLayout = "2006-01-02T15:04:05"

// Normalize converts a raw offer into FlightDetails and applies the
// stop-count filter. The second return is false when the offer is
// filtered out (too many stops) or unusable (no segments, bad price).
// Pure: the offer is never mutated.
func Normalize(offer flightapi.Offer, q models.SearchQuery, maxStops int) (*models.FlightDetails, bool) {
	price, err := decimal.NewFromString(offer.Price.Total)
	if err != nil {
		return nil, false
	}

	var airlines []string
	seenCarrier := make(map[string]struct{})
	segments := 0
	for _, itin := range offer.Itineraries {
		segments += len(itin.Segments)
		for _, seg := range itin.Segments {
			if _, ok := seenCarrier[seg.CarrierCode]; ok {
				continue
			}
			seenCarrier[seg.CarrierCode] = struct{}{}
			airlines = append(airlines, seg.CarrierCode)
		}
	}
	if segments == 0 {
		return nil, false
	}

	stops := segments - 1
	if stops > maxStops {
		return nil, false
	}

	first := offer.Itineraries[0].Segments
	if len(first) == 0 {
		return nil, false
	}
	dep, err := time.Parse(segmentTimeLayout, first[0].Departure.At)
	if err != nil {
		return nil, false
	}
	arr, err := time.Parse(segmentTimeLayout, first[len(first)-1].Arrival.At)
	if err != nil {
		return nil, false
	}

	return &models.FlightDetails{
		OfferID:       offer.ID,
		Price:         price,
		Currency:      offer.Price.Currency,
		Airlines:      airlines,
		Segments:      segments,
		Stops:         stops,
		IsDirect:      stops == 0,
		DepartureTime: dep,
		ArrivalTime:   arr,
		Query:         q,
	}, true
}
