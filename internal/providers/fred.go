package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// DefaultFredURL is the production observations endpoint.
const DefaultFredURL = "https://api.stlouisfed.org/fred/series/observations"

// DefaultMacroSeries is the federal funds rate series used when the
// configuration names none.
const DefaultMacroSeries = "FEDFUNDS"

// Fred serves macroeconomic series observations from the FRED API.
type Fred struct {
	c       *client
	baseURL string
	apiKey  string
	window  int // observation window in days
}

// NewFred builds the client. baseURL is overridable for tests.
func NewFred(baseURL, apiKey string, timeout time.Duration, retries RetryRecorder, log zerolog.Logger) *Fred {
	if baseURL == "" {
		baseURL = DefaultFredURL
	}
	return &Fred{
		c:       newClient("fred", timeout, 1, 2, retries, log),
		baseURL: baseURL,
		apiKey:  apiKey,
		window:  30,
	}
}

type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FetchMacroRate returns the most recent observation within the trailing
// window. When the window holds none, it falls back to the latest value
// the series has at all, and fails only if the series is empty.
func (f *Fred) FetchMacroRate(ctx context.Context, seriesID string) (float64, error) {
	now := time.Now()
	windowed := f.observationsURL(seriesID, now.AddDate(0, 0, -f.window), now)
	rate, ok, err := f.latestObservation(ctx, windowed)
	if err != nil {
		return 0, err
	}
	if ok {
		return rate, nil
	}

	f.c.log.Warn().Str("series", seriesID).
		Msg("no observations in window, falling back to latest available")
	rate, ok, err = f.latestObservation(ctx, f.observationsURL(seriesID, time.Time{}, time.Time{}))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &Error{Provider: "fred", Op: "observations",
			Err: fmt.Errorf("series %s has no data", seriesID)}
	}
	return rate, nil
}

func (f *Fred) observationsURL(seriesID string, start, end time.Time) string {
	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", f.apiKey)
	q.Set("file_type", "json")
	q.Set("sort_order", "desc")
	if !start.IsZero() {
		q.Set("observation_start", start.Format("2006-01-02"))
		q.Set("observation_end", end.Format("2006-01-02"))
	}
	return f.baseURL + "?" + q.Encode()
}

// latestObservation returns the newest parseable value, false when the
// response holds none.
func (f *Fred) latestObservation(ctx context.Context, u string) (float64, bool, error) {
	var resp fredResponse
	if err := f.c.getJSON(ctx, "observations", u, &resp); err != nil {
		return 0, false, err
	}
	for _, obs := range resp.Observations {
		if obs.Value == "." || obs.Value == "" {
			continue
		}
		return safeFloat(obs.Value), true, nil
	}
	return 0, false, nil
}
