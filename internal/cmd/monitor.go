package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/atikulmunna/uartwatch/internal/aggregator"
	"github.com/atikulmunna/uartwatch/internal/config"
	"github.com/atikulmunna/uartwatch/internal/hub"
	"github.com/atikulmunna/uartwatch/internal/logfile"
	"github.com/atikulmunna/uartwatch/internal/logger"
	"github.com/atikulmunna/uartwatch/internal/metrics"
	"github.com/atikulmunna/uartwatch/internal/model"
	"github.com/atikulmunna/uartwatch/internal/notify"
	"github.com/atikulmunna/uartwatch/internal/output"
	"github.com/atikulmunna/uartwatch/internal/report"
	"github.com/atikulmunna/uartwatch/internal/server"
	"github.com/atikulmunna/uartwatch/internal/tailer"
	"github.com/atikulmunna/uartwatch/internal/watchdog"
	"github.com/atikulmunna/uartwatch/internal/watcher"
)

const startMessage = "Starting UART monitor"

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor the serial console",
	Long: `Read the configured console source, classify every line, write the log
files, run the watchdogs and reporters, and serve the status API.

Examples:
  uartwatch monitor -c configs/ttn-gateway.yaml
  uartwatch monitor --level warn
  cat capture.log | UARTWATCH_SOURCE_TYPE=stdin uartwatch monitor -o json`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().String("listen", "", "status server address, e.g. :9110 (empty keeps the configured value)")
	cobra.CheckErr(viper.BindPFlag("http.listen", monitorCmd.Flags().Lookup("listen")))
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return monitor(ctx, cfg, clock.New(), os.Stdout, logger.Get())
}

// monitor wires every component and runs them until ctx is cancelled, the
// source ends, or a component fails.
func monitor(ctx context.Context, cfg *config.Config, clk clock.Clock, stdout io.Writer, log logrus.FieldLogger) error {
	classifier, err := cfg.Classifier()
	if err != nil {
		return err
	}
	classifier.WithClock(clk)
	specs, err := cfg.WatchdogSpecs()
	if err != nil {
		return err
	}
	groups, err := cfg.ReportGroups()
	if err != nil {
		return err
	}

	sink, err := logfile.New(cfg.LogFileConfigs(), clk, log)
	if err != nil {
		return err
	}
	defer sink.Close()

	m := metrics.New()
	notifier := notify.NewManager(cfg.Notifications.QueueSize, log)
	notifier.OnResult(m.ObserveNotification)
	for _, ch := range cfg.Channels() {
		if err := notifier.Register(ch.Alerter, ch.MinLevel); err != nil {
			return err
		}
	}

	renderer, err := newRenderer(cfg.Output, stdout)
	if err != nil {
		return err
	}

	sink.Log("warn", "[monitor] "+startMessage)
	notifier.Notify(model.NewEvent(clk.Now(), model.KindSystem, "monitor", "warn", startMessage))

	// Assigned before any component starts.
	var srv *server.Server
	emit := func(ev model.Event) {
		m.ObserveEvent(ev)
		notifier.Notify(ev)
		if err := renderer.RenderEvent(ev); err != nil {
			log.WithError(err).Debug("render error")
		}
		if srv != nil {
			srv.RecordEvent(ev)
		}
		log.WithFields(logrus.Fields{
			"kind":     ev.Kind,
			"origin":   ev.Origin,
			"event_id": ev.ID,
		}).Debug(ev.Message)
	}

	// Construction warnings such as disabled watchdogs also belong in the log files.
	ops := sink.WarningLogger(log)
	dogs := watchdog.NewSet(specs, clk, emit, ops)
	reports := report.NewScheduler(groups, clk, emit, ops)

	src, err := openSource(cfg.Source, log)
	if err != nil {
		return err
	}
	t := tailer.New(src.reader, src.name, log).WithClock(clk)
	if src.watcher != nil {
		t.Follow(src.watcher)
	}

	h := hub.New(t.Chunks(), classifier, log)
	h.OnChunk(m.ObserveChunk, func(model.Chunk) { dogs.Heartbeat() })
	h.AddSink(m.ObserveEntry, sink.Write, func(e model.LogEntry) {
		notifier.Notify(model.NewEvent(e.Timestamp, model.KindConsole, e.Source, e.Level, e.Message))
	})
	h.OnLine(dogs, reports)

	echo := h.Subscribe()
	agg := aggregator.New(h.Subscribe(), clk, src.name, h.Dropped)

	if cfg.HTTP.Listen != "" {
		srv = server.New(server.Options{Listen: cfg.HTTP.Listen, Pprof: cfg.HTTP.Pprof}, h, agg, dogs, reports, m, log)
	}

	log.WithFields(logrus.Fields{
		"source":    src.name,
		"levels":    classifier.Levels(),
		"watchdogs": dogs.Len(),
		"reporters": reports.Len(),
		"logfiles":  sink.Paths(),
	}).Info("UART monitor started")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if src.watcher != nil {
		g.Go(func() error { src.watcher.Start(gctx); return nil })
	}
	g.Go(func() error { return t.Start(gctx) })
	g.Go(func() error {
		h.Start(gctx)
		// The source has ended; stop everything else.
		cancel()
		return nil
	})
	g.Go(func() error { dogs.Start(gctx); return nil })
	g.Go(func() error { reports.Start(gctx); return nil })
	g.Go(func() error { notifier.Start(gctx); return nil })
	g.Go(func() error { agg.Start(gctx); return nil })
	g.Go(func() error {
		for entry := range echo {
			if err := renderer.Render(entry); err != nil {
				log.WithError(err).Debug("render error")
			}
		}
		return nil
	})
	if srv != nil {
		g.Go(func() error { return srv.Start(gctx) })
	}

	err = g.Wait()
	log.Info("UART monitor stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newRenderer(format string, w io.Writer) (output.Renderer, error) {
	r, err := output.New(format, w)
	if err != nil {
		return nil, err
	}
	if levelFilter == "" {
		return r, nil
	}
	return output.NewFilter(r, levelFilter)
}

type source struct {
	reader  io.Reader
	name    string
	watcher *watcher.Watcher
}

func openSource(cfg config.SourceConfig, log logrus.FieldLogger) (*source, error) {
	switch cfg.Type {
	case config.SourceSerial:
		port, dev, err := tailer.OpenSerial(cfg.Port, cfg.Baud)
		if err != nil {
			return nil, err
		}
		return &source{reader: port, name: dev}, nil
	case config.SourceFile:
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open console capture: %w", err)
		}
		src := &source{reader: f, name: cfg.Path}
		if cfg.Follow {
			w, err := watcher.New([]string{cfg.Path}, log)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to create watcher: %w", err)
			}
			if len(w.Paths()) == 0 {
				f.Close()
				return nil, fmt.Errorf("cannot follow %s", cfg.Path)
			}
			log.WithField("paths", w.Paths()).Debug("following console capture")
			src.watcher = w
		}
		return src, nil
	case config.SourceStdin:
		return &source{reader: os.Stdin, name: "stdin"}, nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}
