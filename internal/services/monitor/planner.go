package monitor

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/tofunori/farewatch/internal/models"
)

const dateLayout = "2006-01-02"

// Rolling-horizon bounds: weekly departures from one week out to three
// months out.
const (
	horizonStartDays = 7
	horizonEndDays   = 90
	horizonStepDays  = 7
)

// PlanConfig selects which dates a check cycle queries. An empty
// DepartDate switches to the rolling horizon; DaysRange widens targets
// by +/- that many days when Flexible is set.
type PlanConfig struct {
	Origin      string
	Destination string
	DepartDate  string
	ReturnDate  string
	Flexible    bool
	DaysRange   int
}

// Plan expands the configuration into the ordered, deduplicated set of
// date pairs to query.
func Plan(cfg PlanConfig, now time.Time) ([]models.SearchQuery, error) {
	if cfg.DepartDate == "" {
		return planRollingHorizon(cfg, now), nil
	}

	depart, err := time.Parse(dateLayout, cfg.DepartDate)
	if err != nil {
		return nil, errors.Wrap(err, "parse depart date")
	}

	window := 0
	if cfg.Flexible {
		window = cfg.DaysRange
	}

	departs := dateWindow(depart, window)

	returns := []string{""}
	if cfg.ReturnDate != "" {
		ret, err := time.Parse(dateLayout, cfg.ReturnDate)
		if err != nil {
			return nil, errors.Wrap(err, "parse return date")
		}
		returns = dateWindow(ret, window)
	}

	seen := make(map[string]struct{}, len(departs)*len(returns))
	out := make([]models.SearchQuery, 0, len(departs)*len(returns))
	for _, d := range departs {
		for _, r := range returns {
			q := models.SearchQuery{
				Origin:      cfg.Origin,
				Destination: cfg.Destination,
				DepartDate:  d,
				ReturnDate:  r,
			}
			if _, ok := seen[q.Key()]; ok {
				continue
			}
			seen[q.Key()] = struct{}{}
			out = append(out, q)
		}
	}
	return out, nil
}

// planRollingHorizon emits weekly one-way departures covering the next
// three months, each widened by the flexible window when configured.
func planRollingHorizon(cfg PlanConfig, now time.Time) []models.SearchQuery {
	seen := make(map[string]struct{})
	var dates []string
	for i := horizonStartDays; i < horizonEndDays; i += horizonStepDays {
		anchor := now.AddDate(0, 0, i)
		if cfg.Flexible {
			for _, d := range dateWindow(anchor, cfg.DaysRange) {
				if _, ok := seen[d]; !ok {
					seen[d] = struct{}{}
					dates = append(dates, d)
				}
			}
		} else {
			d := anchor.Format(dateLayout)
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				dates = append(dates, d)
			}
		}
	}
	sort.Strings(dates)

	out := make([]models.SearchQuery, 0, len(dates))
	for _, d := range dates {
		out = append(out, models.SearchQuery{
			Origin:      cfg.Origin,
			Destination: cfg.Destination,
			DepartDate:  d,
		})
	}
	return out
}

// dateWindow returns base-w .. base+w as YYYY-MM-DD strings, ascending.
func dateWindow(base time.Time, w int) []string {
	if w < 0 {
		w = 0
	}
	out := make([]string, 0, 2*w+1)
	for i := -w; i <= w; i++ {
		out = append(out, base.AddDate(0, 0, i).Format(dateLayout))
	}
	return out
}
