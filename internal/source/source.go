// Package source runs the upstream schedule fetchers.
//
// Each configured source maps to one Fetcher implementation. Fetchers return
// the raw payload bytes for their source; normalization into canonical
// events happens later, in internal/normalize, from the artifact the Runner
// writes to disk.
package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"saunawatch/internal/config"
)

// Fetcher pulls one upstream schedule and returns its raw JSON payload.
// Implementations must honor ctx cancellation; the Runner applies the
// per-source timeout through it.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, win Window) ([]byte, error)
}

// Window is the day range a run covers, starting at Start (inclusive) and
// spanning Days calendar days.
type Window struct {
	Start time.Time
	Days  int
}

// End returns the last day of the window.
func (w Window) End() time.Time {
	days := w.Days
	if days < 1 {
		days = 1
	}
	return w.Start.AddDate(0, 0, days-1)
}

// FromDateISO formats the window start the way the Momence API expects,
// e.g. "2026-01-14T21:30:00.000Z".
func (w Window) FromDateISO() string {
	return w.Start.UTC().Format("2006-01-02T15:04:05.000Z")
}

// New builds the Fetcher for a source descriptor. An unknown kind is a
// configuration defect.
func New(sc config.SourceConfig) (Fetcher, error) {
	switch sc.Kind {
	case "momence":
		return newMomence(sc), nil
	case "marianatek":
		return newMarianatek(sc), nil
	case "httpjson":
		return newHTTPJSON(sc), nil
	case "browser":
		return newBrowser(sc), nil
	case "icalfeed":
		return newICalFeed(sc), nil
	default:
		return nil, fmt.Errorf("source %s: unknown kind %q", sc.Name, sc.Kind)
	}
}

// userAgent is sent on all plain HTTP fetches; some booking platforms
// reject requests without a browser-looking client.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// newClient returns an HTTP client without its own timeout; deadlines come
// from the Runner's per-source context.
func newClient() *http.Client {
	return &http.Client{}
}
