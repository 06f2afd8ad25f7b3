// Package assistant maps free-text flight requests onto the monitor's
// configuration surface, via an LLM when one is configured and a
// keyword scan otherwise, and renders results back into prose.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tofunori/farewatch/internal/models"
)

const extractSystemPrompt = `You are a flight search assistant that extracts structured parameters from natural language queries.
Extract: origin airport, destination airport, departure date, return date, maximum stops, budget, currency.
Respond with a single JSON object using keys: origin, destination, depart_date, return_date, max_stops, budget, currency.
Use IATA airport codes and YYYY-MM-DD dates. Use null for anything not mentioned.`

const replySystemPrompt = `You are a bilingual (French/English) flight assistant. Generate a short, friendly reply
summarizing the flight search results for the user, in the language of their original query.
Mention the price and airlines when a flight was found, or suggest loosening the criteria when none was.`

type Assistant struct {
	llm Completer // nil falls back to keyword extraction
	now func() time.Time
}

func New(llm Completer) *Assistant {
	return &Assistant{llm: llm, now: time.Now}
}

// ExtractParams turns a free-text request into search parameters.
// Any LLM failure degrades to the keyword scan; extraction never fails.
func (a *Assistant) ExtractParams(ctx context.Context, query string) Params {
	if a.llm == nil {
		return a.keywordExtract(query)
	}

	raw, err := a.llm.Complete(ctx, extractSystemPrompt, query)
	if err != nil {
		slog.Warn("llm extraction failed, using keyword fallback", "error", err.Error())
		return a.keywordExtract(query)
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		slog.Warn("no JSON object in llm response, using keyword fallback")
		return a.keywordExtract(query)
	}

	var extracted struct {
		Origin      string          `json:"origin"`
		Destination string          `json:"destination"`
		DepartDate  string          `json:"depart_date"`
		ReturnDate  string          `json:"return_date"`
		MaxStops    *int            `json:"max_stops"`
		Budget      json.RawMessage `json:"budget"`
		Currency    string          `json:"currency"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &extracted); err != nil {
		slog.Warn("unparseable JSON in llm response, using keyword fallback", "error", err.Error())
		return a.keywordExtract(query)
	}

	p := defaultParams()
	p.Origin = strings.ToUpper(extracted.Origin)
	p.Destination = strings.ToUpper(extracted.Destination)
	p.DepartDate = extracted.DepartDate
	p.ReturnDate = extracted.ReturnDate
	if extracted.MaxStops != nil {
		p.MaxStops = *extracted.MaxStops
	}
	if extracted.Currency != "" {
		p.Currency = strings.ToUpper(extracted.Currency)
	}
	if len(extracted.Budget) > 0 && string(extracted.Budget) != "null" {
		if d, err := decimal.NewFromString(strings.Trim(string(extracted.Budget), `"`)); err == nil {
			p.Budget = d
		}
	}
	p.fillDateDefaults(a.now(), isOneWay(query))
	return p
}

// Cities the keyword fallback recognizes. Small on purpose; the LLM
// path handles everything else.
var cityCodes = map[string]string{
	"montreal":    "YUL",
	"lima":        "LIM",
	"cusco":       "CUZ",
	"la paz":      "LPB",
	"toronto":     "YYZ",
	"new york":    "JFK",
	"mexico city": "MEX",
	"bogota":      "BOG",
}

var monthNumbers = map[string]string{
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
	"janvier": "01", "fevrier": "02", "mars": "03", "avril": "04",
	"mai": "05", "juin": "06", "juillet": "07", "aout": "08",
	"septembre": "09", "octobre": "10", "novembre": "11", "decembre": "12",
}

var budgetRe = regexp.MustCompile(`(\d+)\s*\$|\$\s*(\d+)`)
var stopsRe = regexp.MustCompile(`(\d)\s*(?:stop|escale)`)

// prepositionMatch requires the preposition to start at a word
// boundary, so "via lima" does not count as "a lima".
func prepositionMatch(q, city string, preps string) bool {
	re := regexp.MustCompile(`(?:^|\W)(?:` + preps + `)\s+` + regexp.QuoteMeta(city) + `(?:\W|$)`)
	return re.MatchString(q)
}

func (a *Assistant) keywordExtract(query string) Params {
	q := strings.ToLower(query)
	p := defaultParams()

	for city, code := range cityCodes {
		if prepositionMatch(q, city, `from|de|depuis`) {
			p.Origin = code
		} else if prepositionMatch(q, city, `to|a|à|vers`) {
			p.Destination = code
		}
	}

	year := a.now().Year() + 1
	for month, num := range monthNumbers {
		if strings.Contains(q, month) {
			if p.DepartDate == "" {
				p.DepartDate = fmt.Sprintf("%d-%s-15", year, num)
			} else if p.ReturnDate == "" {
				p.ReturnDate = fmt.Sprintf("%d-%s-25", year, num)
			}
		}
	}

	if m := budgetRe.FindStringSubmatch(q); m != nil {
		s := m[1]
		if s == "" {
			s = m[2]
		}
		if d, err := decimal.NewFromString(s); err == nil {
			p.Budget = d
		}
	}

	if m := stopsRe.FindStringSubmatch(q); m != nil {
		p.MaxStops = int(m[1][0] - '0')
	}

	p.fillDateDefaults(a.now(), isOneWay(query))
	return p
}

func isOneWay(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(q, "one way") || strings.Contains(q, "one-way") ||
		strings.Contains(q, "aller simple")
}

// RenderReply produces the prose answer. With no LLM (or on LLM
// failure) it falls back to a rule-based summary.
func (a *Assistant) RenderReply(ctx context.Context, query string, p Params, result *models.FlightDetails) string {
	if a.llm != nil {
		paramsJSON, _ := json.Marshal(p)
		content := fmt.Sprintf("Original user query: %s\n\nSearch parameters: %s\n\nResult: %s",
			query, paramsJSON, describeResult(result))
		if reply, err := a.llm.Complete(ctx, replySystemPrompt, content); err == nil && reply != "" {
			return reply
		}
		slog.Warn("llm reply failed, using rule-based response")
	}
	return a.ruleBasedReply(p, result)
}

func describeResult(result *models.FlightDetails) string {
	if result == nil {
		return "no flights found"
	}
	return fmt.Sprintf("cheapest: $%s %s with %s, %d stop(s), departing %s",
		result.Price.StringFixed(2), result.Currency, result.AirlineList(),
		result.Stops, result.DepartureTime.Format("2006-01-02 15:04"))
}

func (a *Assistant) ruleBasedReply(p Params, result *models.FlightDetails) string {
	var b strings.Builder
	b.WriteString("I searched for flights with these parameters:\n")
	fmt.Fprintf(&b, "- Origin: %s\n- Destination: %s\n- Departure: %s\n", p.Origin, p.Destination, p.DepartDate)
	if p.ReturnDate != "" {
		fmt.Fprintf(&b, "- Return: %s\n", p.ReturnDate)
	}
	fmt.Fprintf(&b, "- Max stops: %d\n", p.MaxStops)
	if !p.Budget.IsZero() {
		fmt.Fprintf(&b, "- Budget: %s %s\n", p.Budget.StringFixed(2), p.Currency)
	}

	if result == nil {
		b.WriteString("\nNo flights matched these criteria. Try allowing more stops or different dates.")
		return b.String()
	}

	fmt.Fprintf(&b, "\nI found a flight at $%s %s with %s.\n",
		result.Price.StringFixed(2), result.Currency, result.AirlineList())
	if result.IsDirect {
		b.WriteString("It's a direct flight.")
	} else {
		fmt.Fprintf(&b, "Connecting flight with %d segments.", result.Segments)
	}
	return b.String()
}
