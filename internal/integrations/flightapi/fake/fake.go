package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/tofunori/farewatch/internal/integrations/flightapi"
	"github.com/tofunori/farewatch/internal/models"
)

// FakeClient serves deterministic offers without hitting any provider.
// Prices and carriers are derived from a hash of the query, so the same
// query always yields the same offers.
type FakeClient struct{}

func New() *FakeClient { return &FakeClient{} }

var carriers = []string{"AC", "AA", "LA", "CM", "AV", "UA"}

func (f *FakeClient) Search(ctx context.Context, q models.SearchQuery, maxResults int) ([]flightapi.Offer, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(q.Key()))
	seed := h.Sum32()

	// A couple of queries come back empty so callers exercise that path too.
	if seed%17 == 0 {
		return nil, nil
	}

	n := 2 + int(seed%3)
	if n > maxResults {
		n = maxResults
	}

	dep, err := time.Parse("2006-01-02", q.DepartDate)
	if err != nil {
		return nil, &flightapi.ProviderError{Provider: "fake", Op: "search", Err: err}
	}

	offers := make([]flightapi.Offer, 0, n)
	for i := 0; i < n; i++ {
		v := seed + uint32(i)*2654435761
		base := 500 + v%900
		stops := int(v % 3)

		depAt := dep.Add(time.Duration(6+int(v%12)) * time.Hour)
		segs := make([]flightapi.Segment, 0, stops+1)
		cur := depAt
		for s := 0; s <= stops; s++ {
			arr := cur.Add(time.Duration(3+s) * time.Hour)
			segs = append(segs, flightapi.Segment{
				CarrierCode: carriers[int(v+uint32(s))%len(carriers)],
				Departure:   flightapi.Endpoint{IATACode: q.Origin, At: cur.Format("2006-01-02T15:04:05")},
				Arrival:     flightapi.Endpoint{IATACode: q.Destination, At: arr.Format("2006-01-02T15:04:05")},
			})
			cur = arr.Add(90 * time.Minute)
		}

		offers = append(offers, flightapi.Offer{
			ID:          fmt.Sprintf("%08x-%d", seed, i),
			Price:       flightapi.Price{Total: fmt.Sprintf("%d.%02d", base, v%100), Currency: "CAD"},
			Itineraries: []flightapi.Itinerary{{Segments: segs}},
		})
	}
	return offers, nil
}
