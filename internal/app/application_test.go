package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speedmap.onebusaway.org/internal/appconf"
	"speedmap.onebusaway.org/internal/clock"
	"speedmap.onebusaway.org/internal/metrics"
	"speedmap.onebusaway.org/internal/pingfile"
	"speedmap.onebusaway.org/internal/speedmap"
)

var mockInput = filepath.Join("..", "..", "testdata", "mock_input.txt")

func testConfig() appconf.Config {
	cfg := appconf.Default()
	cfg.Env = appconf.Test
	return cfg
}

func buildTestApplication(t *testing.T, cfg appconf.Config) (*Application, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a, err := BuildApplication(cfg, &stdout, &stderr)
	require.NoError(t, err)
	return a, &stdout, &stderr
}

func TestBuildApplication(t *testing.T) {
	cfg := testConfig()
	a, _, _ := buildTestApplication(t, cfg)

	assert.Equal(t, cfg, a.Config)
	assert.NotNil(t, a.Logger)
	assert.NotNil(t, a.Metrics)
	assert.IsType(t, clock.RealClock{}, a.Clock)
	_, err := uuid.Parse(a.RunID)
	assert.NoError(t, err, "run id should be a uuid")
}

func TestBuildApplication_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.OutputFormat = "xml"

	_, err := BuildApplication(cfg, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_TextOutput(t *testing.T) {
	a, stdout, stderr := buildTestApplication(t, testConfig())

	summary, err := a.Run(context.Background(), mockInput, 50)
	require.NoError(t, err)

	want := "{'stop_id': '1234', 'segment_index': 0, 'segment_length': 50.0, 'speed': 3.0}\n" +
		"{'stop_id': '1234', 'segment_index': 1, 'segment_length': 25.0, 'speed': 3.0}\n" +
		"{'stop_id': '5678', 'segment_index': 0, 'segment_length': 50.0, 'speed': 3.0}\n" +
		"{'stop_id': '5678', 'segment_index': 1, 'segment_length': 50.0, 'speed': 1.5}\n"
	assert.Equal(t, want, stdout.String())

	assert.Equal(t, speedmap.Summary{Pings: 5, Stops: 2, Edges: 3, Segments: 4}, summary)

	logs := stderr.String()
	assert.Contains(t, logs, "speed_map_complete")
	assert.Contains(t, logs, "run_id="+a.RunID)
}

func TestRun_JSONOutput(t *testing.T) {
	cfg := testConfig()
	cfg.OutputFormat = "json"
	a, stdout, _ := buildTestApplication(t, cfg)

	_, err := a.Run(context.Background(), mockInput, 75)
	require.NoError(t, err)

	want := `{"stop_id":"1234","segment_index":0,"segment_length":75,"speed":3}` + "\n" +
		`{"stop_id":"5678","segment_index":0,"segment_length":75,"speed":3}` + "\n" +
		`{"stop_id":"5678","segment_index":1,"segment_length":25,"speed":1}` + "\n"
	assert.Equal(t, want, stdout.String())
}

func TestRun_DumpSpeedGraph(t *testing.T) {
	cfg := testConfig()
	cfg.DumpSpeedGraph = true
	a, _, stderr := buildTestApplication(t, cfg)

	_, err := a.Run(context.Background(), mockInput, 50)
	require.NoError(t, err)

	dump := stderr.String()
	assert.Contains(t, dump, "speed graph (2 stops, 3 edges)")
	assert.Contains(t, dump, `StopID: (string) (len=4) "5678"`)
	assert.Contains(t, dump, "DistanceEnd: (float64) 100")
}

func TestRun_MissingInput(t *testing.T) {
	a, stdout, _ := buildTestApplication(t, testConfig())

	_, err := a.Run(context.Background(), filepath.Join(t.TempDir(), "absent.txt"), 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, pingfile.ErrInputNotFound)
	assert.Empty(t, stdout.String())

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.RunsTotal.WithLabelValues(metrics.OutcomeFailure)))
	assert.Equal(t, 0.0, testutil.ToFloat64(a.Metrics.PingsLoaded))
}

func TestRun_InvalidSegmentLength(t *testing.T) {
	a, stdout, _ := buildTestApplication(t, testConfig())

	_, err := a.Run(context.Background(), mockInput, 0)
	assert.ErrorIs(t, err, speedmap.ErrInvalidSegmentLength)
	assert.Empty(t, stdout.String())
}

func TestRun_CanceledContext(t *testing.T) {
	a, _, _ := buildTestApplication(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Run(ctx, mockInput, 50)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RecordsMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsTextfile = filepath.Join(t.TempDir(), "speedmap.prom")
	a, _, _ := buildTestApplication(t, cfg)

	mock := clock.NewMockClock(time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC))
	a.Clock = mock

	_, err := a.Run(context.Background(), mockInput, 50)
	require.NoError(t, err)

	assert.Equal(t, 5.0, testutil.ToFloat64(a.Metrics.PingsLoaded))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.Metrics.SpeedEdges))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.Metrics.StopsProcessed))
	assert.Equal(t, 4.0, testutil.ToFloat64(a.Metrics.SegmentsEmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.RunsTotal.WithLabelValues(metrics.OutcomeSuccess)))

	data, err := os.ReadFile(cfg.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "speedmap_segments_emitted_total 4")
	assert.Contains(t, string(data), "speedmap_run_duration_seconds_sum 0")
}

func TestRun_MetricsTextfileFailureDoesNotFailRun(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsTextfile = filepath.Join(t.TempDir(), "missing", "speedmap.prom")
	a, stdout, stderr := buildTestApplication(t, cfg)

	_, err := a.Run(context.Background(), mockInput, 50)
	require.NoError(t, err)
	assert.NotEmpty(t, stdout.String())
	assert.Equal(t, 1, strings.Count(stderr.String(), "failed to write metrics textfile"))
	assert.Contains(t, stderr.String(), "path="+cfg.MetricsTextfile)
}
