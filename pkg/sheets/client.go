// Package sheets is a client for the spreadsheet service's batched
// values API: one batchUpdate call carries every range write for a sheet.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4"

// Client performs batched reads and writes against one spreadsheet service.
type Client interface {
	// BatchUpdate writes all value ranges to the spreadsheet in one call.
	BatchUpdate(ctx context.Context, spreadsheetID string, data []ValueRange) (*BatchUpdateResponse, error)

	// BatchGet reads the requested ranges in one call.
	BatchGet(ctx context.Context, spreadsheetID string, ranges []string) (*BatchGetResponse, error)
}

// ValueRange pairs an A1 range reference with its value matrix.
type ValueRange struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

// BatchUpdateResponse reports what a batch write touched.
type BatchUpdateResponse struct {
	SpreadsheetID     string `json:"spreadsheetId"`
	TotalUpdatedCells int    `json:"totalUpdatedCells"`
	TotalUpdatedRows  int    `json:"totalUpdatedRows"`
}

// BatchGetResponse carries the requested ranges' values.
type BatchGetResponse struct {
	SpreadsheetID string       `json:"spreadsheetId"`
	ValueRanges   []ValueRange `json:"valueRanges"`
}

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
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a spreadsheet service client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type batchUpdateRequest struct {
	ValueInputOption string       `json:"valueInputOption"`
	Data             []ValueRange `json:"data"`
}

func (c *httpClient) BatchUpdate(ctx context.Context, spreadsheetID string, data []ValueRange) (*BatchUpdateResponse, error) {
	if len(data) == 0 {
		return nil, eris.New("sheets: empty batch")
	}

	body, err := json.Marshal(batchUpdateRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	})
	if err != nil {
		return nil, eris.Wrap(err, "sheets: marshal batch update")
	}

	endpoint := c.baseURL + "/spreadsheets/" + url.PathEscape(spreadsheetID) + "/values:batchUpdate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: send batch update")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("sheets: batch update status %d: %s", resp.StatusCode, string(respBody))
	}

	var result BatchUpdateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "sheets: unmarshal response")
	}
	return &result, nil
}

func (c *httpClient) BatchGet(ctx context.Context, spreadsheetID string, ranges []string) (*BatchGetResponse, error) {
	params := url.Values{}
	for _, r := range ranges {
		params.Add("ranges", r)
	}
	endpoint := c.baseURL + "/spreadsheets/" + url.PathEscape(spreadsheetID) + "/values:batchGet?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: send batch get")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("sheets: batch get status %d: %s", resp.StatusCode, string(respBody))
	}

	var result BatchGetResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "sheets: unmarshal response")
	}
	return &result, nil
}
