package amadeushttp

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/tofunori/farewatch/internal/integrations/flightapi"
	"github.com/tofunori/farewatch/internal/models"
)

const providerName = "amadeus"

// Client talks to the Amadeus Self-Service flight offers API.
type Client struct {
	http      *resty.Client
	apiKey    string
	apiSecret string
	currency  string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func New(baseURL, apiKey, apiSecret, currency string) *Client {
	if baseURL == "" {
		baseURL = "https://test.api.amadeus.com"
	}
	if currency == "" {
		currency = "CAD"
	}
	return &Client{
		http:      resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		currency:  currency,
	}
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type searchResp struct {
	Data   []flightapi.Offer `json:"data"`
	Errors []struct {
		Status int    `json:"status"`
		Code   int    `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Refresh a bit early so an in-flight search never carries a stale token.
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-30*time.Second)) {
		return c.accessToken, nil
	}

	var tok tokenResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     c.apiKey,
			"client_secret": c.apiSecret,
		}).
		SetResult(&tok).
		Post("/v1/security/oauth2/token")
	if err != nil {
		return "", errors.Wrap(err, "oauth token request")
	}
	if resp.IsError() {
		return "", errors.Errorf("oauth token http %d: %s", resp.StatusCode(), resp.String())
	}
	if tok.AccessToken == "" {
		return "", errors.New("oauth token response missing access_token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

func (c *Client) Search(ctx context.Context, q models.SearchQuery, maxResults int) ([]flightapi.Offer, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, &flightapi.ProviderError{Provider: providerName, Op: "auth", Err: err}
	}

	if maxResults <= 0 {
		maxResults = 10
	}
	params := map[string]string{
		"originLocationCode":      q.Origin,
		"destinationLocationCode": q.Destination,
		"departureDate":           q.DepartDate,
		"adults":                  "1",
		"currencyCode":            c.currency,
		"max":                     strconv.Itoa(maxResults),
	}
	if q.RoundTrip() {
		params["returnDate"] = q.ReturnDate
	}

	var out searchResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(tok).
		SetQueryParams(params).
		SetResult(&out).
		Get("/v2/shopping/flight-offers")
	if err != nil {
		return nil, &flightapi.ProviderError{Provider: providerName, Op: "search", Err: err}
	}
	if resp.IsError() {
		if resp.StatusCode() == 401 {
			// Token revoked server-side; drop it so the next cycle re-authenticates.
			c.mu.Lock()
			c.accessToken = ""
			c.mu.Unlock()
		}
		return nil, &flightapi.ProviderError{
			Provider: providerName,
			Op:       "search",
			Err:      errors.Errorf("http %d: %s", resp.StatusCode(), resp.String()),
		}
	}
	if len(out.Errors) > 0 {
		e := out.Errors[0]
		return nil, &flightapi.ProviderError{
			Provider: providerName,
			Op:       "search",
			Err:      errors.Errorf("api error %d: %s: %s", e.Code, e.Title, e.Detail),
		}
	}

	return out.Data, nil
}
