package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"equiintel/pkg/core/align"
	"equiintel/pkg/core/fetch"
)

// RemoteSource fetches series from an HTTP endpoint laid out as
// GET {BaseURL}/{symbol}/{label} -> [{"date": "...", "value": 1.0}, ...].
type RemoteSource struct {
	BaseURL string
	Symbol  string
	client  *fetch.Client
}

var _ SeriesSource = (*RemoteSource)(nil)

// NewRemoteSource creates a remote source. A nil client means one attempt
// with the default HTTP settings.
func NewRemoteSource(baseURL, symbol string, client *fetch.Client) *RemoteSource {
	if client == nil {
		client = fetch.NewClient(1, 0)
	}
	return &RemoteSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Symbol:  symbol,
		client:  client,
	}
}

func (r *RemoteSource) Name() string { return "remote" }

type remotePoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// FetchSeries implements SeriesSource. A 404 is an empty series, not an error.
func (r *RemoteSource) FetchSeries(ctx context.Context, label Label) (Lookup, error) {
	u := fmt.Sprintf("%s/%s/%s", r.BaseURL, url.PathEscape(r.Symbol), url.PathEscape(string(label)))

	var points []remotePoint
	if err := r.client.GetJSON(ctx, u, &points); err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			return Lookup{}, nil
		}
		return Lookup{}, fmt.Errorf("remote series %s: %w", label, err)
	}

	series := make(align.TimeSeries, 0, len(points))
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		series = append(series, align.DatedValue{Date: normalizeDate(p.Date), Value: *p.Value})
	}
	return Lookup{Series: series.Sorted()}, nil
}
