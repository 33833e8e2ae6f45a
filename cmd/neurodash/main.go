package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/neurodash/internal/charts"
	"github.com/san-kum/neurodash/internal/config"
	"github.com/san-kum/neurodash/internal/controller"
	"github.com/san-kum/neurodash/internal/dashboard"
	"github.com/san-kum/neurodash/internal/export"
	"github.com/san-kum/neurodash/internal/history"
	"github.com/san-kum/neurodash/internal/ingest"
	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/scene"
	"github.com/san-kum/neurodash/internal/storage"
	"github.com/san-kum/neurodash/internal/surface"
	"github.com/san-kum/neurodash/internal/viz"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	logFile    string
	useSim     bool
	seed       int64
	record     bool
	duration   time.Duration
	sceneOut   string
	notes      string
	reportOut  string
	svgOut     string
	svgWidth   int
	svgHeight  int
)

// main runs the neurodash command line.
// It exits the process with status 1 if command execution returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:          "neurodash",
		Short:        "live 3D brain activity dashboard",
		SilenceUsage: true,
		RunE:         runLive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".neurodash", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	addLiveFlags(rootCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal dashboard",
		RunE:  runLive,
	}
	addLiveFlags(liveCmd)

	headlessCmd := &cobra.Command{
		Use:   "headless",
		Short: "run the engine without a terminal UI",
		RunE:  runHeadless,
	}
	headlessCmd.Flags().BoolVar(&useSim, "sim", false, "use simulated sensors")
	headlessCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed (sim)")
	headlessCmd.Flags().BoolVar(&record, "record", false, "record snapshots to the data store")
	headlessCmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	headlessCmd.Flags().StringVar(&sceneOut, "scene-out", "", "write the current scene as JSON on every change")
	headlessCmd.Flags().StringVar(&notes, "notes", "", "session notes")

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "record a session without a terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			record = true
			return runHeadless(cmd, args)
		},
	}
	recordCmd.Flags().BoolVar(&useSim, "sim", false, "use simulated sensors")
	recordCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed (sim)")
	recordCmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	recordCmd.Flags().StringVar(&notes, "notes", "", "session notes")

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "list recorded sessions",
		RunE:  listSessions,
	}

	notesCmd := &cobra.Command{
		Use:   "notes [session_id] [text]",
		Short: "replace the notes of a session",
		Args:  cobra.ExactArgs(2),
		RunE:  updateNotes,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [session_id]",
		Short: "plot averaged metrics of a session",
		Args:  cobra.ExactArgs(1),
		RunE:  plotSession,
	}

	reportCmd := &cobra.Command{
		Use:   "report [session_id]",
		Short: "write an HTML chart report for a session",
		Args:  cobra.ExactArgs(1),
		RunE:  writeReport,
	}
	reportCmd.Flags().StringVarP(&reportOut, "output", "o", "", "output file (default <data>/<session>.html)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [session_id]",
		Short: "render the last recorded scene of a session as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  writeSnapshot,
	}
	snapshotCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default <data>/<session>.svg)")
	snapshotCmd.Flags().IntVar(&svgWidth, "width", 80, "canvas width in cells")
	snapshotCmd.Flags().IntVar(&svgHeight, "height", 40, "canvas height in cells")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage configuration",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	configCmd.AddCommand(configInitCmd)

	montagesCmd := &cobra.Command{
		Use:   "montages",
		Short: "list region montage presets",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("available montages:")
			for _, name := range config.ListMontages() {
				fmt.Printf("  %-12s %d sensors\n", name, len(config.GetMontage(name)))
			}
		},
	}

	rootCmd.AddCommand(liveCmd, headlessCmd, recordCmd, sessionsCmd, notesCmd, plotCmd, reportCmd, snapshotCmd, configCmd, montagesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addLiveFlags is shared by the root and live commands. Both bind the same
// variables so either spelling works.
func addLiveFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&useSim, "sim", false, "use simulated sensors")
	fs.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed (sim)")
	fs.BoolVar(&record, "record", false, "record snapshots to the data store")
	fs.StringVar(&logFile, "log-file", "", "log file (default <data>/neurodash.log)")
	fs.StringVar(&notes, "notes", "", "session notes")
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		path := filepath.Join(dataDir, "neurodash.yaml")
		if _, err := os.Stat(path); err != nil {
			return config.DefaultConfig(), nil
		}
		configFile = path
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func storePath(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Storage.Path) {
		return cfg.Storage.Path
	}
	return filepath.Join(dataDir, cfg.Storage.Path)
}

func buildEngine(cfg *config.Config, logger *slog.Logger) *dashboard.Engine {
	provider := surface.NewProvider(cfg.Loader(), logger)
	return dashboard.New(provider, dashboard.Options{
		Regions:         cfg.Assignments(),
		Params:          cfg.ActivationParams(),
		Scene:           scene.Options{Domain: cfg.Dashboard.Domain},
		Window:          cfg.Dashboard.Window,
		HistoryCapacity: cfg.Dashboard.HistoryCapacity,
		Sensors:         cfg.SensorIDs(),
	}, nil, logger)
}

func newPoller(cfg *config.Config, session string, logger *slog.Logger) dashboard.Poller {
	if useSim {
		return ingest.NewSimPoller(cfg.SensorIDs(), cfg.Parameters, session, seed)
	}
	return ingest.NewHTTPPoller(cfg.Endpoints(), cfg.Parameters, session, cfg.Dashboard.RequestTimeout, logger)
}

// openSession opens the store and starts a session when recording.
// The returned store is nil otherwise.
func openSession(ctx context.Context, cfg *config.Config, session string) (*storage.Store, error) {
	if !record {
		return nil, nil
	}
	st, err := storage.Open(storePath(cfg))
	if err != nil {
		return nil, err
	}
	err = st.CreateSession(ctx, storage.SessionMetadata{
		ID:      session,
		Started: time.Now(),
		Sensors: cfg.SensorIDs(),
		Params:  cfg.Parameters,
		Notes:   notes,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if logFile == "" {
		logFile = filepath.Join(dataDir, "neurodash.log")
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	log.InitWriter(logLevel, f)
	logger := log.L()

	ctx, cancel := signalContext()
	defer cancel()

	session := ingest.NewSession()
	st, err := openSession(ctx, cfg, session)
	if err != nil {
		return err
	}

	opts := viz.Options{
		Poller:       newPoller(cfg, session, logger),
		Session:      session,
		Events:       cfg.Events,
		Params:       cfg.Parameters,
		PollInterval: cfg.Dashboard.PollInterval,
		TickInterval: cfg.Dashboard.TickInterval,
		Logger:       logger,
	}
	if st != nil {
		defer st.Close()
		opts.Recorder, opts.Marker = st, st
	}

	logger.Info("starting dashboard", "session", session, "sim", useSim, "record", st != nil)
	return viz.Run(ctx, buildEngine(cfg, logger), opts)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	log.Init(logLevel)
	logger := log.L()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	session := ingest.NewSession()
	st, err := openSession(ctx, cfg, session)
	if err != nil {
		return err
	}
	var recorder dashboard.Recorder
	if st != nil {
		defer st.Close()
		recorder = st
	}

	engine := buildEngine(cfg, logger)
	runner := dashboard.NewRunner(engine, newPoller(cfg, session, logger), recorder, nil, dashboard.RunnerConfig{
		PollInterval: cfg.Dashboard.PollInterval,
		TickInterval: cfg.Dashboard.TickInterval,
	}, logger)
	runner.OnResult(func(res controller.Result, e *dashboard.Engine) {
		if res.Action == controller.NoOp {
			logger.Debug("no-op", "reason", res.Reason)
			return
		}
		logger.Info("scene updated", "action", res.Action, "reason", res.Reason, "placeholder", res.Placeholder)
		if sceneOut != "" {
			if err := writeScene(sceneOut, e.Scene()); err != nil {
				logger.Warn("scene write failed", "path", sceneOut, "error", err)
			}
		}
	})

	logger.Info("running headless", "session", session, "sim", useSim, "record", st != nil)
	err = runner.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}

	stats := engine.Stats()
	logger.Info("stopped", "noops", stats.NoOps, "patches", stats.Patches, "rebuilds", stats.Rebuilds)
	return err
}

// writeScene replaces path atomically so a watcher never reads half a file.
func writeScene(path string, sc *scene.Scene) error {
	data, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func openStore() (*storage.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.Open(storePath(cfg))
}

func listSessions(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTARTED\tSENSORS\tNOTES")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			s.ID,
			s.Name,
			s.Started.Format("2006-01-02 15:04:05"),
			len(s.Sensors),
			s.Notes,
		)
	}
	return w.Flush()
}

func updateNotes(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return st.UpdateNotes(cmd.Context(), args[0], args[1])
}

func plotSession(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	meta, err := st.Load(ctx, args[0])
	if err != nil {
		return err
	}
	samples, err := st.Readings(ctx, meta.ID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("session: %s (%s)\n", meta.ID, meta.Name)
	fmt.Printf("samples: %d\n\n", len(samples))

	for _, metric := range []string{neuro.MetricAttention, neuro.MetricMeditation, neuro.MetricSignal} {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = history.Average(s.Snapshot, metric)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(100),
			asciigraph.Caption(metric+" (average)"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func writeReport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	meta, err := st.Load(ctx, args[0])
	if err != nil {
		return err
	}
	samples, err := st.Readings(ctx, meta.ID)
	if err != nil {
		return err
	}
	events, err := st.Events(ctx, meta.ID)
	if err != nil {
		return err
	}

	report := charts.FromRecording(*meta, samples, events)
	if len(samples) > 0 {
		engine, err := replayLast(samples)
		if err != nil {
			return err
		}
		report.Scene = engine.Scene()
		report.Domain = engine.ColorDomain()
	}

	out := reportOut
	if out == "" {
		out = filepath.Join(dataDir, meta.ID+".html")
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := charts.Render(f, report); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("report written to %s\n", out)
	return nil
}

// replayLast feeds the last recorded snapshot into a fresh engine showing
// every sensor.
func replayLast(samples []storage.Sample) (*dashboard.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	engine := buildEngine(cfg, log.Discard())
	engine.SetDisplay(controller.AllSensors())
	engine.OnSnapshot(samples[len(samples)-1].Snapshot)
	return engine, nil
}

func writeSnapshot(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	samples, err := st.Readings(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to render")
	}
	engine, err := replayLast(samples)
	if err != nil {
		return err
	}

	out := svgOut
	if out == "" {
		out = filepath.Join(dataDir, args[0]+".svg")
	}
	sc := engine.Scene()
	svg := export.SceneToSVG(sc, sc.Camera, svgWidth, svgHeight, engine.ColorDomain(), 4)
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("snapshot written to %s\n", out)
	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := filepath.Join(dataDir, "neurodash.yaml")
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("config written to %s\n", path)
	return nil
}
