package messages

import "time"

// FareAlert is published when a check cycle finds a new lowest fare at
// or below the configured threshold.
type FareAlert struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	Price    string   `json:"price"`
	Currency string   `json:"currency"`
	Airlines []string `json:"airlines,omitempty"`
	Stops    int      `json:"stops"`

	DepartDate string `json:"depart_date"`
	ReturnDate string `json:"return_date,omitempty"`

	Threshold string    `json:"threshold,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
