package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"saunawatch/internal/config"
	appLog "saunawatch/internal/log"
)

const marianatekClassesPath = "/api/customer/v1/classes"

const marianatekMaxPages = 10

// marianatekFetcher reads the class list from a Marianatek customer API.
// The artifact is a flat JSON array of class objects across all pages.
type marianatekFetcher struct {
	name     string
	baseURL  string
	pageSize int
	client   *http.Client
}

func newMarianatek(sc config.SourceConfig) *marianatekFetcher {
	pageSize := sc.PageSize
	if pageSize <= 0 {
		pageSize = 500
	}
	return &marianatekFetcher{
		name:     sc.Name,
		baseURL:  sc.URL,
		pageSize: pageSize,
		client:   newClient(),
	}
}

func (f *marianatekFetcher) Name() string { return f.name }

func (f *marianatekFetcher) Fetch(ctx context.Context, win Window) ([]byte, error) {
	if f.baseURL == "" {
		return nil, fmt.Errorf("marianatek %s: url not configured", f.name)
	}

	var classes []json.RawMessage
	for page := 1; page <= marianatekMaxPages; page++ {
		batch, err := f.fetchPage(ctx, win, page)
		if err != nil {
			return nil, err
		}
		classes = append(classes, batch...)
		if len(batch) < f.pageSize {
			break
		}
	}

	appLog.Debug("marianatek fetch complete", "source", f.name, "classes", len(classes))
	return json.Marshal(classes)
}

func (f *marianatekFetcher) fetchPage(ctx context.Context, win Window, page int) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("min_start_date", win.Start.Format("2006-01-02"))
	params.Set("max_start_date", win.End().Format("2006-01-02"))
	params.Set("page_size", strconv.Itoa(f.pageSize))
	params.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+marianatekClassesPath+"?"+params.Encode(), nil)
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
		return nil, fmt.Errorf("marianatek %s: page %d: unexpected status %s", f.name, page, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// Either {"results": [...]} or a bare array.
	var envelope struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Results != nil {
		return envelope.Results, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("marianatek %s: unexpected response shape: %w", f.name, err)
	}
	return list, nil
}
