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

const momenceBaseURL = "https://readonly-api.momence.com"

// Session types the schedule endpoint serves; sauna venues use a mix.
var momenceSessionTypes = []string{
	"course-class",
	"fitness",
	"retreat",
	"special-event",
	"special-event-new",
}

// momenceMaxPages caps pagination so a misbehaving host cannot keep the
// fetcher busy forever.
const momenceMaxPages = 20

// momenceFetcher reads a host's schedule from the Momence readonly API,
// paginating until a page comes back empty. The same implementation serves
// every Momence-backed venue; only the host ID differs.
type momenceFetcher struct {
	name     string
	baseURL  string
	hostID   int
	pageSize int
	client   *http.Client
}

func newMomence(sc config.SourceConfig) *momenceFetcher {
	pageSize := sc.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}
	baseURL := sc.URL
	if baseURL == "" {
		baseURL = momenceBaseURL
	}
	return &momenceFetcher{
		name:     sc.Name,
		baseURL:  baseURL,
		hostID:   sc.HostID,
		pageSize: pageSize,
		client:   newClient(),
	}
}

func (f *momenceFetcher) Name() string { return f.name }

func (f *momenceFetcher) Fetch(ctx context.Context, win Window) ([]byte, error) {
	if f.hostID <= 0 {
		return nil, fmt.Errorf("momence %s: host_id not configured", f.name)
	}

	var sessions []json.RawMessage
	pages := 0

	for page := 0; page < momenceMaxPages; page++ {
		batch, err := f.fetchPage(ctx, win, page)
		if err != nil {
			return nil, err
		}
		pages++
		if len(batch) == 0 {
			break
		}
		sessions = append(sessions, batch...)
		if len(batch) < f.pageSize {
			break
		}
	}

	appLog.Debug("momence fetch complete", "source", f.name, "host_id", f.hostID, "sessions", len(sessions), "pages", pages)

	return json.Marshal(map[string]any{
		"host_id":       f.hostID,
		"count":         len(sessions),
		"pages_fetched": pages,
		"sessions":      sessions,
	})
}

func (f *momenceFetcher) fetchPage(ctx context.Context, win Window, page int) ([]json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/host-plugins/host/%d/host-schedule/sessions", f.baseURL, f.hostID)

	params := url.Values{}
	for _, st := range momenceSessionTypes {
		params.Add("sessionTypes[]", st)
	}
	params.Set("fromDate", win.FromDateISO())
	params.Set("pageSize", strconv.Itoa(f.pageSize))
	params.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Origin", "https://momence.com")
	req.Header.Set("Referer", "https://momence.com/")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("momence %s: page %d: unexpected status %s", f.name, page, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return extractSessionList(body)
}

// extractSessionList tolerates the response shapes the API has been seen to
// use: a bare array, or an object wrapping the array.
func extractSessionList(body []byte) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unexpected response shape: %w", err)
	}
	for _, key := range []string{"payload", "data", "sessions", "items", "results"} {
		inner, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &list); err != nil {
			return nil, fmt.Errorf("field %q is not an array: %w", key, err)
		}
		return list, nil
	}
	return nil, nil
}
