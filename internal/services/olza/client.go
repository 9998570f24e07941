package olza

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"olza-admin/internal/logger"
)

const userAgent = "olza-admin/1.0"

// Client talks to one configured Olza API. Every call carries its own timeout.
type Client struct {
	baseURL     string
	accessToken string
	timeouts    Timeouts
	httpClient  *http.Client
	logger      *logger.Logger
}

// NewClient validates baseURL and returns a client for it.
func NewClient(baseURL, accessToken string, timeouts Timeouts, httpClient *http.Client, logger *logger.Logger) (*Client, error) {
	if _, err := endpointURL(baseURL, EndpointCountries); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		timeouts:    timeouts,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// Endpoint returns the validated URL of a named endpoint, without query.
func (c *Client) Endpoint(name string) (string, error) {
	return endpointURL(c.baseURL, name)
}

// Countries fetches /countries.
func (c *Client) Countries(ctx context.Context) (*Response, error) {
	return c.get(ctx, EndpointCountries, nil, c.timeouts.Countries)
}

// Config fetches /config for one country.
func (c *Client) Config(ctx context.Context, country string) (*Response, error) {
	params := url.Values{}
	params.Set("country", country)
	return c.get(ctx, EndpointConfig, params, c.timeouts.Config)
}

// Find fetches the pickup points of one provider in one country.
func (c *Client) Find(ctx context.Context, country, spedition string) (*Response, error) {
	params := url.Values{}
	params.Set("country", country)
	params.Set("spedition", spedition)
	return c.get(ctx, EndpointFind, params, c.timeouts.Find)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, timeout time.Duration) (*Response, error) {
	target, err := c.Endpoint(endpoint)
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	q := req.URL.Query()
	q.Set("access_token", c.accessToken)
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	req.URL.RawQuery = q.Encode()

	c.logger.Debug("GET %s/%s %v", c.baseURL, endpoint, params)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The url.Error text carries the access token in the query.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Olza %s returned %d", endpoint, resp.StatusCode)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
