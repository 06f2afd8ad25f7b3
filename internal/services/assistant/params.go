package assistant

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tofunori/farewatch/internal/services/monitor"
)

// Params is the structured search request extracted from free text.
type Params struct {
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	DepartDate  string          `json:"depart_date"`
	ReturnDate  string          `json:"return_date,omitempty"`
	MaxStops    int             `json:"max_stops"`
	Budget      decimal.Decimal `json:"budget,omitempty"`
	Currency    string          `json:"currency"`
	Flexible    bool            `json:"flexible"`
	DaysRange   int             `json:"days_range"`
}

func defaultParams() Params {
	return Params{
		MaxStops:  3,
		Currency:  "CAD",
		Flexible:  true,
		DaysRange: 3,
	}
}

// fillDateDefaults mirrors the historical behavior: no departure date
// means three months out; round trips default to two weeks away.
func (p *Params) fillDateDefaults(now time.Time, oneWay bool) {
	if p.DepartDate == "" {
		p.DepartDate = now.AddDate(0, 0, 90).Format("2006-01-02")
	}
	if p.ReturnDate == "" && !oneWay {
		if dep, err := time.Parse("2006-01-02", p.DepartDate); err == nil {
			p.ReturnDate = dep.AddDate(0, 0, 14).Format("2006-01-02")
		}
	}
}

// ToMonitorConfig maps the extracted parameters onto the monitor's
// configuration surface. The budget doubles as the alert threshold.
func (p Params) ToMonitorConfig() monitor.Config {
	return monitor.Config{
		Plan: monitor.PlanConfig{
			Origin:      p.Origin,
			Destination: p.Destination,
			DepartDate:  p.DepartDate,
			ReturnDate:  p.ReturnDate,
			Flexible:    p.Flexible,
			DaysRange:   p.DaysRange,
		},
		MaxStops:  p.MaxStops,
		Threshold: p.Budget,
	}
}
