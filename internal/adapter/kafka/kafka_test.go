package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func testWriter(inner messageWriter) *Writer {
	return &Writer{
		writer:  inner,
		metrics: observability.NewMetricsForTesting(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 8, 1, 15, 10, 0, 0, time.UTC)
	d := domain.Detection{
		ID:           "fire-abc",
		RawDetection: domain.RawDetection{Latitude: 38.5, Longitude: -120.2, FRP: 10, Confidence: "h", DayNight: "N"},
		Hour:         1,
		ThreatScore:  15,
		CountryCode:  "US",
		Continent:    domain.ContinentNorthAmerica,
		ProcessedAt:  now,
	}

	msg, err := serializeToMessage(d)
	require.NoError(t, err)

	assert.Equal(t, []byte("fire-abc"), msg.Key)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "fire-abc", decoded["id"])
	assert.InDelta(t, 38.5, decoded["latitude"], 1e-9)
	assert.InDelta(t, 15.0, decoded["threat_score"], 1e-9)
	assert.Equal(t, "US", decoded["country_code"])

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "continent", msg.Headers[0].Key)
	assert.Equal(t, []byte(domain.ContinentNorthAmerica), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_UngeolocatedHeader(t *testing.T) {
	msg, err := serializeToMessage(domain.Detection{ID: "fire-1"})
	require.NoError(t, err)
	assert.Equal(t, []byte(domain.RegionUnknown), msg.Headers[0].Value)
}

func TestSerializeToMessage_UnencodableValue(t *testing.T) {
	_, err := serializeToMessage(domain.Detection{RawDetection: domain.RawDetection{FRP: math.NaN()}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serialize detection")
}

func TestPublish(t *testing.T) {
	fw := &fakeWriter{}
	w := testWriter(fw)
	ds := domain.Enrich([]domain.RawDetection{{Latitude: 1, FRP: 2}, {Latitude: 3, FRP: 4}})

	require.NoError(t, w.Publish(context.Background(), ds))

	require.Len(t, fw.msgs, 2)
	assert.Equal(t, []byte(ds[0].ID), fw.msgs[0].Key)
	assert.Equal(t, []byte(ds[1].ID), fw.msgs[1].Key)
	assert.InDelta(t, 2.0, testutil.ToFloat64(w.metrics.DetectionsPublished), 1e-9)
}

func TestPublish_EmptyIsNoop(t *testing.T) {
	fw := &fakeWriter{err: errors.New("must not be called")}
	w := testWriter(fw)

	require.NoError(t, w.Publish(context.Background(), nil))
	assert.Empty(t, fw.msgs)
}

func TestPublish_WriteError(t *testing.T) {
	w := testWriter(&fakeWriter{err: errors.New("broker down")})

	err := w.Publish(context.Background(), domain.Enrich([]domain.RawDetection{{FRP: 1}}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.InDelta(t, 1.0, testutil.ToFloat64(w.metrics.PublishErrors), 1e-9)
}
