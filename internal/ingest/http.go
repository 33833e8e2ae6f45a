// Package ingest polls sensor readings.
//
// Each sensor serves its latest metrics as {"data": [...]}, where the array
// (or a string holding the JSON array) lists values in the configured
// parameter order. A sensor that cannot be reached or decoded yields a
// reading with every metric set to neuro.Missing; one bad sensor never
// fails the whole poll.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/neuro"
)

// DefaultTimeout bounds each sensor request.
const DefaultTimeout = 500 * time.Millisecond

// Sensor is one polled endpoint.
type Sensor struct {
	ID  neuro.SensorID
	URL string
}

// NewSession returns a fresh session identifier.
func NewSession() string {
	return uuid.NewString()
}

type HTTPPoller struct {
	sensors []Sensor
	params  []string
	session string
	client  *http.Client
	logger  *slog.Logger
}

func NewHTTPPoller(sensors []Sensor, params []string, session string, timeout time.Duration, logger *slog.Logger) *HTTPPoller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPPoller{
		sensors: sensors,
		params:  params,
		session: session,
		client:  &http.Client{Timeout: timeout},
		logger:  log.Component(logger, "ingest"),
	}
}

func (p *HTTPPoller) Session() string { return p.session }

// Poll fetches every sensor concurrently. It only fails when ctx is done.
func (p *HTTPPoller) Poll(ctx context.Context) (neuro.Snapshot, error) {
	readings := make([]neuro.Reading, len(p.sensors))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range p.sensors {
		g.Go(func() error {
			r, err := p.fetch(gctx, s.URL)
			if err != nil {
				p.logger.Warn("sensor unavailable", "sensor", s.ID, "error", err)
				r = MissingReading(p.params)
			}
			readings[i] = r
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return neuro.Snapshot{}, err
	}

	snap := neuro.NewSnapshot(p.session)
	for i, s := range p.sensors {
		snap.Set(s.ID, readings[i])
	}
	return snap, nil
}

func (p *HTTPPoller) fetch(ctx context.Context, url string) (neuro.Reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return Decode(body, p.params)
}

// Decode parses a sensor payload into a reading keyed by params. Null or
// absent entries become neuro.Missing; extra entries are ignored.
func Decode(body []byte, params []string) (neuro.Reading, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil, errors.New("payload has no data field")
	}

	raw := envelope.Data
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}

	var values []*float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode data array: %w", err)
	}

	r := make(neuro.Reading, len(params))
	for i, name := range params {
		if i < len(values) && values[i] != nil {
			r[name] = *values[i]
		} else {
			r[name] = neuro.Missing
		}
	}
	return r, nil
}

// MissingReading returns a reading with every parameter missing.
func MissingReading(params []string) neuro.Reading {
	r := make(neuro.Reading, len(params))
	for _, name := range params {
		r[name] = neuro.Missing
	}
	return r
}
