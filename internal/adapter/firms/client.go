// Package firms fetches active-fire detections from the NASA FIRMS area API.
package firms

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
	"github.com/jszwec/csvutil"
)

// Options identifies the FIRMS query: where to fetch from, with which
// credential, for which dataset, area and lookback window.
type Options struct {
	Endpoint string
	MapKey   string
	Source   string
	Area     string
	Days     int
	Timeout  time.Duration
}

// Client implements the ingestion collaborator over HTTP.
type Client struct {
	opts       Options
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a FIRMS client. The HTTP client timeout bounds every fetch.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch downloads and decodes the current detections. Any network, status or
// decode failure is logged and yields an empty, non-nil result.
func (c *Client) Fetch(ctx context.Context) []domain.RawDetection {
	start := time.Now()
	rows, err := c.fetch(ctx)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		c.logger.Warn("firms fetch failed, continuing with no detections",
			"source", c.opts.Source, "area", c.opts.Area, "days", c.opts.Days, "error", err)
		return []domain.RawDetection{}
	case len(rows) == 0:
		c.metrics.FetchRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.FetchRequests.WithLabelValues("success").Inc()
	}
	c.logger.Debug("firms fetch complete", "source", c.opts.Source, "rows", len(rows), "duration", time.Since(start))
	return rows
}

func (c *Client) fetch(ctx context.Context) ([]domain.RawDetection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firms request: %w", redact(err, c.opts.MapKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("firms API error: status %d: %s", resp.StatusCode, body)
	}

	rows, skipped, err := Decode(resp.Body)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		c.logger.Warn("skipped malformed firms rows", "skipped", skipped, "kept", len(rows))
	}
	return rows, nil
}

// url builds {endpoint}/{map_key}/{source}/{area}/{days}.
func (c *Client) url() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		c.opts.Endpoint,
		url.PathEscape(c.opts.MapKey),
		url.PathEscape(c.opts.Source),
		c.opts.Area,
		strconv.Itoa(c.opts.Days),
	)
}

// requiredColumns must be present in the header for the body to be treated
// as detection data. FIRMS answers some errors (bad map key, exceeded
// transaction limit) with a plain-text 200.
var requiredColumns = []string{"latitude", "longitude", "acq_time", "frp", "confidence", "daynight"}

// Decode reads FIRMS CSV rows. Rows whose cells cannot be converted to the
// expected types, or whose values fail RawDetection.Validate, are skipped and
// counted; a malformed stream or a header missing required columns is an
// error.
func Decode(r io.Reader) ([]domain.RawDetection, int, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []domain.RawDetection{}, 0, nil
		}
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}

	header := dec.Header()
	for _, col := range requiredColumns {
		if !slices.Contains(header, col) {
			return nil, 0, fmt.Errorf("unexpected firms response: missing column %q", col)
		}
	}

	rows := []domain.RawDetection{}
	skipped := 0
	for {
		var row domain.RawDetection
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var typeErr *csvutil.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("decode csv: %w", err)
		}
		if row.Validate() != nil {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

// redact strips the map key from transport errors, which embed the URL.
func redact(err error, key string) error {
	var uerr *url.Error
	if key == "" || !errors.As(err, &uerr) {
		return err
	}
	return fmt.Errorf("%s %s: %w", uerr.Op, "<firms-url>", uerr.Err)
}
