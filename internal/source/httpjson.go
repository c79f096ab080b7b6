package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"saunawatch/internal/config"
)

// httpJSONFetcher is the plain single-request fetcher: GET the configured
// endpoint, check that the body is JSON, hand it back untouched.
type httpJSONFetcher struct {
	name   string
	url    string
	client *http.Client
}

func newHTTPJSON(sc config.SourceConfig) *httpJSONFetcher {
	return &httpJSONFetcher{
		name:   sc.Name,
		url:    sc.URL,
		client: newClient(),
	}
}

func (f *httpJSONFetcher) Name() string { return f.name }

func (f *httpJSONFetcher) Fetch(ctx context.Context, _ Window) ([]byte, error) {
	if f.url == "" {
		return nil, fmt.Errorf("httpjson %s: url not configured", f.name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpjson %s: unexpected status %s", f.name, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("httpjson %s: response is not valid JSON", f.name)
	}
	return body, nil
}
