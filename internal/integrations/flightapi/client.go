package flightapi

import (
	"context"
	"fmt"

	"github.com/tofunori/farewatch/internal/models"
)

// Offer is the raw provider record for one priced itinerary option.
// It is consumed once by the normalizer and never mutated.
type Offer struct {
	ID          string      `json:"id"`
	Price       Price       `json:"price"`
	Itineraries []Itinerary `json:"itineraries"`
}

type Price struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type Itinerary struct {
	Segments []Segment `json:"segments"`
}

// Segment is one non-stop leg.
type Segment struct {
	CarrierCode string   `json:"carrierCode"`
	Departure   Endpoint `json:"departure"`
	Arrival     Endpoint `json:"arrival"`
}

type Endpoint struct {
	IATACode string `json:"iataCode"`
	At       string `json:"at"`
}

// ProviderError covers every provider-level failure: auth, rate limit,
// malformed request or response, transport. It is non-fatal by contract;
// a date pair that fails to fetch contributes zero offers.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

type Client interface {
	Search(ctx context.Context, q models.SearchQuery, maxResults int) ([]Offer, error)
}
