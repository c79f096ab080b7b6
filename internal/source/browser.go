package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"saunawatch/internal/config"
	appLog "saunawatch/internal/log"
)

// browserExtractScript runs inside the rendered page and collects everything
// the adapters can use: JSON-LD Event blocks and any embedded booking state
// the site's own frontend keeps on window.
const browserExtractScript = `(() => {
	const events = [];
	for (const node of document.querySelectorAll('script[type="application/ld+json"]')) {
		let data;
		try { data = JSON.parse(node.textContent); } catch (e) { continue; }
		const list = Array.isArray(data) ? data : [data];
		for (const item of list) {
			if (!item || typeof item !== 'object') continue;
			const type = item['@type'];
			const isEvent = type === 'Event' || (Array.isArray(type) && type.includes('Event'));
			if (!isEvent) continue;
			events.push({
				title: item.name || '',
				start: item.startDate || '',
				end: item.endDate || '',
				inferred_date: (item.startDate || '').slice(0, 10),
				location: item.location && (item.location.name || item.location.address && item.location.address.addressLocality) || '',
				external_booking_url: item.url || '',
				source_url: location.href,
			});
		}
	}
	const state = window.__BOOKING_STATE__ || window.__SCHEDULE_STATE__ || null;
	return JSON.stringify({ url: location.href, events: events, json: state });
})()`

// browserFetcher drives headless Chromium to render a booking page that has
// no usable API, then extracts structured data from the live DOM.
type browserFetcher struct {
	name string
	url  string
}

func newBrowser(sc config.SourceConfig) *browserFetcher {
	return &browserFetcher{name: sc.Name, url: sc.URL}
}

func (f *browserFetcher) Name() string { return f.name }

func (f *browserFetcher) Fetch(ctx context.Context, _ Window) ([]byte, error) {
	if f.url == "" {
		return nil, fmt.Errorf("browser %s: url not configured", f.name)
	}

	cctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var payload string
	tasks := chromedp.Tasks{
		chromedp.Navigate(f.url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Booking widgets typically hydrate after the initial paint.
		chromedp.Sleep(2 * time.Second),
		chromedp.Evaluate(browserExtractScript, &payload),
	}
	if err := chromedp.Run(cctx, tasks); err != nil {
		return nil, fmt.Errorf("browser %s: chromedp run failed: %w", f.name, err)
	}

	if !json.Valid([]byte(payload)) {
		return nil, fmt.Errorf("browser %s: extraction returned invalid JSON", f.name)
	}

	appLog.Debug("browser fetch complete", "source", f.name, "bytes", len(payload))
	return []byte(payload), nil
}
