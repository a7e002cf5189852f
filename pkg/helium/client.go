// Package helium is a client for the Helium 10 (Pacvue) keyword-tracker
// export API, which reports weekly organic search ranks per product.
package helium

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://h10api.pacvue.com"

// Client retrieves weekly keyword rank data.
type Client interface {
	// ProductRanks returns the mean organic rank per keyword (lowercased,
	// rounded to 1 decimal) for one tracked product over a date window.
	ProductRanks(ctx context.Context, productID int, window Window) (map[string]float64, error)
}

// Window is a unix-milliseconds date span, inclusive.
type Window struct {
	Start int64
	End   int64
}

// StatusError reports a non-2xx HTTP response or a non-OK envelope code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("helium: status %d", e.Code)
}

// ErrMalformed marks responses whose body could not be interpreted. Never
// retried.
var ErrMalformed = eris.New("helium: malformed response")

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	authToken   string
	accessToken string
	accountID   int
	baseURL     string
	http        *http.Client
}

// NewClient creates a rank-tracker API client. authToken and accessToken are
// the two bearer tokens the service requires; accountID scopes every query.
func NewClient(authToken, accessToken string, accountID int, opts ...Option) Client {
	c := &httpClient{
		authToken:   authToken,
		accessToken: accessToken,
		accountID:   accountID,
		baseURL:     defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// exportEnvelope is the JSON wrapper around the CSV payload.
type exportEnvelope struct {
	Code int `json:"code"`
	Data struct {
		Results struct {
			CSV string `json:"csv"`
		} `json:"results"`
	} `json:"data"`
}

func (c *httpClient) ProductRanks(ctx context.Context, productID int, window Window) (map[string]float64, error) {
	params := url.Values{}
	params.Set("accountId", strconv.Itoa(c.accountID))
	params.Set("dateStart", strconv.FormatInt(window.Start, 10))
	params.Set("dateEnd", strconv.FormatInt(window.End, 10))
	endpoint := fmt.Sprintf("%s/rta/kt/v1/products/%d/export?%s", c.baseURL, productID, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "helium: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set("X-Pacvue-Token", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "helium: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "helium: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var envelope exportEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(ErrMalformed, err.Error())
	}
	if envelope.Code != http.StatusOK {
		return nil, &StatusError{Code: envelope.Code}
	}

	ranks, err := parseRankCSV(envelope.Data.Results.CSV)
	if err != nil {
		return nil, err
	}
	return ranks, nil
}

// parseRankCSV extracts per-keyword mean organic ranks from the export CSV.
// Required columns: Keyword, Organic Rank. Rows with a non-numeric rank are
// ignored (the tracker emits "-" for weeks without data).
func parseRankCSV(data string) (map[string]float64, error) {
	if strings.TrimSpace(data) == "" {
		return nil, eris.Wrap(ErrMalformed, "empty csv payload")
	}

	reader := csv.NewReader(strings.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(ErrMalformed, err.Error())
	}
	if len(rows) == 0 {
		return nil, eris.Wrap(ErrMalformed, "no rows in csv payload")
	}

	keywordIdx, rankIdx := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case "Keyword":
			keywordIdx = i
		case "Organic Rank":
			rankIdx = i
		}
	}
	if keywordIdx < 0 || rankIdx < 0 {
		return nil, eris.Wrap(ErrMalformed, "missing Keyword / Organic Rank columns")
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, row := range rows[1:] {
		if keywordIdx >= len(row) || rankIdx >= len(row) {
			continue
		}
		keyword := strings.ToLower(strings.TrimSpace(row[keywordIdx]))
		if keyword == "" {
			continue
		}
		rank, err := strconv.ParseFloat(strings.TrimSpace(row[rankIdx]), 64)
		if err != nil {
			continue
		}
		sums[keyword] += rank
		counts[keyword]++
	}

	ranks := make(map[string]float64, len(sums))
	for keyword, sum := range sums {
		mean := sum / float64(counts[keyword])
		ranks[keyword] = math.Round(mean*10) / 10
	}
	return ranks, nil
}
