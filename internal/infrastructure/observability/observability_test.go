package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, "eventfinder-api", "production", "debug")
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Info().Str("provider", "nominatim").Msg("lookup")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "eventfinder-api", line["service"])
	assert.Equal(t, "nominatim", line["provider"])
	assert.Equal(t, "lookup", line["message"])
}

func TestInitLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, "svc", "production", "loud")

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestLoggerFromContext_NoSpan(t *testing.T) {
	logger := LoggerFromContext(context.Background())
	assert.NotNil(t, logger)
}

func TestInitMetrics_NoopProvider(t *testing.T) {
	metrics, err := InitMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, metrics, "GET", "/api/locations", 200, time.Millisecond)
		RecordUpstreamMetric(ctx, metrics, "nominatim", "search", time.Millisecond, errors.New("boom"))
		RecordCacheHit(ctx, metrics, "geo")
		RecordCacheMiss(ctx, metrics, "geo")
		RecordStreamClient(ctx, metrics, 1)
	})
}

func TestRecord_NilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordRequestMetric(context.Background(), nil, "GET", "/", 200, 0)
		RecordUpstreamMetric(context.Background(), nil, "p", "op", 0, nil)
		RecordDBMetric(context.Background(), nil, "insert", 0)
	})
}
