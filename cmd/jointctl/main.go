package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/jointctl/internal/command"
	"github.com/san-kum/jointctl/internal/config"
	"github.com/san-kum/jointctl/internal/driver"
	"github.com/san-kum/jointctl/internal/engine"
	"github.com/san-kum/jointctl/internal/joint"
	"github.com/san-kum/jointctl/internal/logging"
	"github.com/san-kum/jointctl/internal/metrics"
	"github.com/san-kum/jointctl/internal/remote"
	"github.com/san-kum/jointctl/internal/shutdown"
	"github.com/san-kum/jointctl/internal/storage"
	"github.com/san-kum/jointctl/internal/ui"
)

// driverGrace bounds how long exit waits for the stepping loop to notice shutdown.
const driverGrace = time.Second

var (
	configFile  string
	endpoint    string
	dataDir     string
	offline     bool
	record      bool
	metricsAddr string
	logFile     string
	logLevel    string
	plotJoint   int
)

// simHandle is a simulator connection together with its release function.
type simHandle struct {
	remote.Sim
	release func() error
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "jointctl",
		Short:        "manual joint control for a simulated robot",
		SilenceUsage: true,
		RunE:         runControl,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", remote.DefaultEndpoint, "simulator remote API endpoint")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory for recorded sessions")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "use the in-process simulator instead of connecting")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "connect and open the joint control surface (default)",
		Args:  cobra.NoArgs,
		RunE:  runControl,
	}

	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().BoolVar(&record, "record", false, "record joint commands to the data directory")
		c.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	}

	jointsCmd := &cobra.Command{
		Use:   "joints",
		Short: "resolve and list the joints",
		Args:  cobra.NoArgs,
		RunE:  listJoints,
	}

	posesCmd := &cobra.Command{
		Use:   "poses",
		Short: "list available poses",
		Args:  cobra.NoArgs,
		RunE:  listPoses,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded sessions",
		Args:  cobra.NoArgs,
		RunE:  listSessions,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [session_id]",
		Short: "plot commanded angles of a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE:  plotSession,
	}
	plotCmd.Flags().IntVar(&plotJoint, "joint", 0, "joint index to plot (0 for every commanded joint)")

	rootCmd.AddCommand(runCmd, jointsCmd, posesCmd, listCmd, plotCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = endpoint
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("record") {
		cfg.Record = record
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger opens the configured log sink. fallback is used when no log file
// is configured.
func newLogger(cfg *config.Config, fallback io.Writer) (*slog.Logger, func(), error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" {
		return logging.New(fallback, level), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.New(f, level), func() { f.Close() }, nil
}

func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*simHandle, error) {
	if offline {
		logger.Info("using in-process simulator", "joints", cfg.Joints.Count)
		return &simHandle{Sim: engine.NewMemory(cfg.Layout().Paths()...), release: func() error { return nil }}, nil
	}

	c, err := remote.Dial(ctx, cfg.Endpoint, remote.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to simulator at %s: %w", cfg.Endpoint, err)
	}
	logger.Info("connected to simulator", "endpoint", cfg.Endpoint)
	return &simHandle{Sim: c, release: c.Close}, nil
}

func runControl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sim.release()

	specs, err := joint.Resolve(ctx, sim, cfg.Layout())
	if err != nil {
		return err
	}
	logger.Info("joints resolved", "count", len(specs))

	collector := metrics.New()
	ch := command.New(sim)
	ch.AddObserver(collector)
	ch.AddObserver(command.ObserverFunc(func(c command.Command, err error) {
		if err != nil {
			logger.Debug("joint command dropped", "joint", c.Joint.Index, "degrees", c.Degrees, "err", err)
		}
	}))

	var recorder *storage.Recorder
	if cfg.Record {
		recorder = storage.NewRecorder(time.Now())
		ch.AddObserver(recorder)
	}

	driveCtx, cancelDrive := context.WithCancel(ctx)
	defer cancelDrive()
	drv := driver.New(sim, cfg.StepInterval, driver.WithLogger(logger), driver.WithObserver(collector))

	var sessionID string
	coordOpts := []shutdown.Option{shutdown.WithCancel(cancelDrive), shutdown.WithLogger(logger)}
	if recorder != nil {
		coordOpts = append(coordOpts, shutdown.WithTeardown(func() {
			sessionID = saveSession(cfg, recorder, drv, logger)
		}))
	}
	coord := shutdown.New(sim, coordOpts...)

	var g errgroup.Group
	g.Go(func() error { return drv.Run(driveCtx) })
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			if err := collector.Serve(driveCtx, cfg.MetricsAddr); err != nil {
				logger.Warn("metrics server stopped", "addr", cfg.MetricsAddr, "err", err)
			}
			return nil
		})
	}

	model := ui.New(ctx, specs, ch, coord,
		ui.WithRange(ui.Range{Min: cfg.Slider.Min, Max: cfg.Slider.Max, Width: cfg.Slider.Width}),
		ui.WithSteps(cfg.Slider.Step, cfg.Slider.CoarseStep),
		ui.WithStatus(drv),
		ui.WithDropped(collector.Dropped),
		ui.WithPoses(posesFor(cfg)),
	)
	uiErr := ui.Run(ctx, model)

	// The close action already ran the coordinator unless a signal ended the UI.
	coord.Shutdown(context.WithoutCancel(ctx))

	waited := make(chan error, 1)
	go func() { waited <- g.Wait() }()
	select {
	case err := <-waited:
		if err != nil && !errors.Is(err, driver.ErrNotResumable) {
			logger.Warn("background task failed", "err", err)
		}
	case <-time.After(driverGrace):
		logger.Warn("simulation driver did not stop in time")
	}

	if uiErr != nil {
		return uiErr
	}
	if sessionID != "" {
		fmt.Printf("session recorded: %s\n", sessionID)
	}
	fmt.Println("Program terminated cleanly.")
	return nil
}

func posesFor(cfg *config.Config) []ui.Pose {
	names := cfg.PoseNames()
	poses := make([]ui.Pose, 0, len(names))
	for _, name := range names {
		if angles, ok := cfg.Pose(name); ok {
			poses = append(poses, ui.Pose{Name: name, Angles: angles})
		}
	}
	return poses
}

func saveSession(cfg *config.Config, rec *storage.Recorder, drv *driver.Driver, logger *slog.Logger) string {
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		logger.Error("cannot create data directory", "dir", cfg.DataDir, "err", err)
		return ""
	}
	meta := storage.SessionMetadata{
		Timestamp:    rec.Start(),
		Endpoint:     cfg.Endpoint,
		Joints:       cfg.Joints.Count,
		StepInterval: cfg.StepInterval,
		Duration:     time.Since(rec.Start()),
		Steps:        drv.Steps(),
	}
	if offline {
		meta.Endpoint = "offline"
	}
	id, err := st.Save(meta, rec.Records())
	if err != nil {
		logger.Error("cannot save session", "err", err)
		return ""
	}
	return id
}

func listJoints(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	sim, err := connect(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer sim.release()

	specs, err := joint.Resolve(cmd.Context(), sim, cfg.Layout())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tPATH\tHANDLE")
	for _, s := range specs {
		fmt.Fprintf(w, "%d\t%s\t%d\n", s.Index, s.Path, s.Handle)
	}
	return w.Flush()
}

func listPoses(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	poses := posesFor(cfg)
	if len(poses) == 0 {
		fmt.Println("no poses")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tANGLES")
	for _, p := range poses {
		fmt.Fprintf(w, "%s\t%v\n", p.Name, p.Angles)
	}
	return w.Flush()
}

func listSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sessions, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tJOINTS\tCOMMANDS\tDROPPED\tSTEPS")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			s.ID,
			s.Timestamp.Format("2006-01-02 15:04:05"),
			s.Duration.Round(time.Second),
			s.Joints,
			s.Commands,
			s.Dropped,
			s.Steps,
		)
	}
	return w.Flush()
}

func plotSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(cfg.DataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	records, err := st.LoadCommands(meta.ID)
	if err != nil {
		return err
	}

	joints := []int{plotJoint}
	if plotJoint == 0 {
		joints = joints[:0]
		for j := 1; j <= meta.Joints; j++ {
			joints = append(joints, j)
		}
	}

	fmt.Printf("session: %s\n", meta.ID)
	fmt.Printf("commands: %d (%d dropped)\n\n", meta.Commands, meta.Dropped)

	plotted := 0
	for _, j := range joints {
		series := storage.JointSeries(records, j)
		if len(series) == 0 {
			continue
		}
		graph := asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("joint %d angle (deg) per command", j)),
		)
		fmt.Println(graph)
		fmt.Println()
		plotted++
	}

	if plotted == 0 {
		return fmt.Errorf("no commands to plot")
	}
	return nil
}
