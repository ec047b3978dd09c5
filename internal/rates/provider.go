package rates

import (
	"context"
	"io"
	"net/http"
)

// Provider fetches the KZT price of a single asset from one external feed.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, asset Asset) (float64, error)
}

const maxFeedBody = 1 << 20

// fetchBody performs a GET and classifies every failure into a typed *Error.
func fetchBody(ctx context.Context, client *http.Client, provider string, asset Asset, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newError(provider, asset, ReasonNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, newError(provider, asset, ReasonNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxFeedBody))
		return nil, newHTTPError(provider, asset, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, newError(provider, asset, ReasonNetwork, err)
	}
	return body, nil
}
