package metrics

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()

	assert.NotNil(t, m.Registry)
	assert.NotNil(t, m.PingsLoaded)
	assert.NotNil(t, m.SpeedEdges)
	assert.NotNil(t, m.StopsProcessed)
	assert.NotNil(t, m.StopsSkipped)
	assert.NotNil(t, m.SegmentsEmitted)
	assert.NotNil(t, m.RunsTotal)
	assert.NotNil(t, m.RunDuration)
}

func TestNewWithLogger(t *testing.T) {
	m := NewWithLogger(nil)
	assert.NotNil(t, m)
	assert.Nil(t, m.logger)
}

func TestRecordCounts(t *testing.T) {
	m := New()

	m.RecordCounts(RunCounts{Pings: 5, Edges: 3, Stops: 2, Skipped: 1, Segments: 4})
	m.RecordCounts(RunCounts{Pings: 5, Edges: 3, Stops: 2, Segments: 4})

	assert.Equal(t, 10.0, testutil.ToFloat64(m.PingsLoaded))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.SpeedEdges))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.StopsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StopsSkipped))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.SegmentsEmitted))
}

func TestRecordRun_ByOutcome(t *testing.T) {
	m := New()

	m.RecordRun(nil, 20*time.Millisecond)
	m.RecordRun(nil, 30*time.Millisecond)
	m.RecordRun(errors.New("boom"), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RecordCounts(RunCounts{Pings: 5, Segments: 4})
	m.RecordRun(nil, time.Millisecond)

	path := filepath.Join(t.TempDir(), "speedmap.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "speedmap_pings_loaded_total 5")
	assert.Contains(t, content, "speedmap_segments_emitted_total 4")
	assert.Contains(t, content, `speedmap_runs_total{outcome="success"} 1`)
	assert.True(t, strings.Contains(content, "speedmap_run_duration_seconds_bucket"))
}

func TestWriteTextfile_EmptyPathIsNoop(t *testing.T) {
	m := New()
	assert.NoError(t, m.WriteTextfile(""))
}

func TestWriteTextfile_BadDirectory(t *testing.T) {
	var logBuf bytes.Buffer
	m := NewWithLogger(slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "speedmap.prom"))
	assert.Error(t, err)
	assert.Empty(t, logBuf.String(), "failures are left to the caller to log")
}

func TestWriteTextfile_LogsAtDebug(t *testing.T) {
	var logBuf bytes.Buffer
	m := NewWithLogger(slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	path := filepath.Join(t.TempDir(), "speedmap.prom")
	require.NoError(t, m.WriteTextfile(path))
	assert.Contains(t, logBuf.String(), "metrics textfile written")
}
