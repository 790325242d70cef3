package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"

	"speedmap.onebusaway.org/internal/appconf"
	"speedmap.onebusaway.org/internal/clock"
	"speedmap.onebusaway.org/internal/formatter"
	"speedmap.onebusaway.org/internal/logging"
	"speedmap.onebusaway.org/internal/metrics"
	"speedmap.onebusaway.org/internal/models"
	"speedmap.onebusaway.org/internal/speedmap"
)

// Application holds the dependencies of a single speedmap run: its
// configuration, logger, metrics, clock and output streams.
type Application struct {
	Config  appconf.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Clock   clock.Clock
	RunID   string

	// Stdout receives the speed map. Stderr receives logs and debug dumps.
	Stdout io.Writer
	Stderr io.Writer
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// BuildApplication wires an Application for cfg. Every log line it emits is
// tagged with a fresh run id.
func BuildApplication(cfg appconf.Config, stdout, stderr io.Writer) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logger: %w", err)
	}

	runID := uuid.NewString()
	logger := logging.NewLogger(stderr, level, cfg.LogFormat).With(
		slog.String("run_id", runID),
		slog.String("env", string(cfg.Env)),
	)

	return &Application{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewWithLogger(logger),
		Clock:   clock.RealClock{},
		RunID:   runID,
		Stdout:  stdout,
		Stderr:  stderr,
	}, nil
}

// Run computes the speed map of the ping file at inputPath and writes it to
// Stdout. Metrics are recorded whether or not the run succeeds.
func (app *Application) Run(ctx context.Context, inputPath string, segmentLength float64) (speedmap.Summary, error) {
	logger := app.Logger.With(slog.String("component", "app"))
	sw := clock.StartStopwatch(app.Clock)

	summary, err := app.run(logging.WithLogger(ctx, app.Logger), inputPath, segmentLength)
	elapsed := sw.Elapsed()

	app.Metrics.RecordRun(err, elapsed)
	if err == nil {
		app.Metrics.RecordCounts(metrics.RunCounts{
			Pings:    summary.Pings,
			Edges:    summary.Edges,
			Stops:    summary.Stops,
			Skipped:  len(summary.SkippedStops),
			Segments: summary.Segments,
		})
	}
	if werr := app.Metrics.WriteTextfile(app.Config.MetricsTextfile); werr != nil {
		logging.LogError(logger, "failed to write metrics textfile", werr,
			slog.String("path", app.Config.MetricsTextfile))
	}

	if err != nil {
		return speedmap.Summary{}, err
	}

	logging.LogOperation(logger, "speed_map_complete",
		slog.String("input", inputPath),
		slog.Float64("segment_length", segmentLength),
		slog.Int("pings", summary.Pings),
		slog.Int("stops", summary.Stops),
		slog.Int("segments", summary.Segments),
		slog.Duration("elapsed", elapsed))
	return summary, nil
}

func (app *Application) run(ctx context.Context, inputPath string, segmentLength float64) (speedmap.Summary, error) {
	if err := ctx.Err(); err != nil {
		return speedmap.Summary{}, err
	}

	out, err := formatter.New(app.Config.OutputFormat)
	if err != nil {
		return speedmap.Summary{}, err
	}

	route, err := speedmap.LoadRoute(inputPath, logging.FromContext(ctx))
	if err != nil {
		return speedmap.Summary{}, fmt.Errorf("loading route: %w", err)
	}

	if app.Config.DumpSpeedGraph {
		if err := app.dumpSpeedGraph(route); err != nil {
			return speedmap.Summary{}, err
		}
	}

	segments, summary, err := route.SpeedMapWithSummary(segmentLength)
	if err != nil {
		return speedmap.Summary{}, err
	}

	if err := out.Format(app.Stdout, segments); err != nil {
		return speedmap.Summary{}, fmt.Errorf("writing speed map: %w", err)
	}
	return summary, nil
}

type stopDump struct {
	StopID     string
	StopLength *float64
	Edges      []models.SpeedGraphEdge
}

// dumpSpeedGraph writes the per-stop lengths and speed graph edges of route
// to Stderr.
func (app *Application) dumpSpeedGraph(route *speedmap.Route) error {
	graph, err := route.SpeedGraph()
	if err != nil {
		return fmt.Errorf("building speed graph: %w", err)
	}
	lengths := route.StopLengths()

	stops := make([]stopDump, 0, graph.Len())
	for _, stopID := range graph.StopIDs() {
		d := stopDump{StopID: stopID}
		if l, ok := lengths.Length(stopID); ok {
			d.StopLength = &l
		}
		d.Edges, _ = graph.Edges(stopID)
		stops = append(stops, d)
	}

	fmt.Fprintf(app.Stderr, "speed graph (%d stops, %d edges):\n", graph.Len(), graph.EdgeCount())
	dumpConfig.Fdump(app.Stderr, stops)
	return nil
}
