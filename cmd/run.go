package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"hotelbooker/features"
	"hotelbooker/internal/bdd"
	"hotelbooker/internal/browser"
	"hotelbooker/internal/config"
	"hotelbooker/internal/recorder"
	"hotelbooker/internal/report"
	"hotelbooker/internal/steps"
	"hotelbooker/internal/waits"
	"hotelbooker/pkg/logging"
)

// runOptions holds the run command flags.
type runOptions struct {
	configPath     string
	env            string
	tags           string
	concurrency    int
	browser        string
	driver         string
	headless       bool
	format         string
	cleanDashboard bool
	quiet          bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [feature paths...]",
		Short: "Run the acceptance suite",
		Long: `Runs the feature files against the configured HotelBooker environment.

Without arguments the feature files built into the binary are run. Paths
to .feature files or directories run those files from disk instead.

Configuration is read from hotelbooker.yaml (or --config), then from
HOTELBOOKER_* environment variables, then from the flags below.

Exit codes:
  0  every scenario passed
  1  at least one scenario failed
  2  the configuration is invalid
  3  any other error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, opts, args)
		},
	}

	bindRunFlags(cmd.Flags(), opts)
	return cmd
}

func bindRunFlags(f *pflag.FlagSet, opts *runOptions) {
	f.StringVar(&opts.configPath, "config", "", "Configuration file (default hotelbooker.yaml)")
	f.StringVar(&opts.env, "env", "", "Environment to run against")
	f.StringVarP(&opts.tags, "tags", "t", "", `Tag expression, e.g. "@smoke and not @wip"`)
	f.IntVarP(&opts.concurrency, "concurrency", "c", 0, "Scenarios run in parallel")
	f.StringVar(&opts.browser, "browser", "", "Browser engine: chromium, firefox or webkit")
	f.StringVar(&opts.driver, "driver", "", "Automation driver: playwright or chromedp")
	f.BoolVar(&opts.headless, "headless", true, "Run the browser without a window")
	f.StringVarP(&opts.format, "format", "f", "pretty", "godog output format: pretty, progress, cucumber, junit")
	f.BoolVar(&opts.cleanDashboard, "clean-dashboard", false, "Rewrite the report dashboard when the run ends")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Do not show progress spinners")
}

// flagOverrides turns the flags the user set into a config override.
func flagOverrides(f *pflag.FlagSet, opts *runOptions) config.Override {
	changed := f.Changed
	return func(c *config.Config) {
		if changed("env") {
			c.Env = opts.env
		}
		if changed("tags") {
			c.Tags = opts.tags
		}
		if changed("concurrency") {
			c.Concurrency = opts.concurrency
		}
		if changed("browser") {
			c.Browser.Name = opts.browser
		}
		if changed("driver") {
			c.Browser.Driver = opts.driver
		}
		if changed("headless") {
			c.Browser.Headless = opts.headless
		}
	}
}

// featureSource picks the embedded features or the given paths on disk.
func featureSource(args []string) (fsys fs.FS, paths []string, disk bool) {
	if len(args) == 0 {
		return features.FS, []string{"."}, false
	}
	return os.DirFS("."), args, true
}

func startSpinner(cmd *cobra.Command, quiet bool, suffix string) func() {
	if quiet {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}

func runSuite(cmd *cobra.Command, opts *runOptions, args []string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(opts.configPath, flagOverrides(cmd.Flags(), opts))
	if err != nil {
		return err
	}
	creds := cfg.Credentials()

	stopSpinner := startSpinner(cmd, opts.quiet, fmt.Sprintf("Launching %s via %s...", cfg.Browser.Name, cfg.Browser.Driver))
	launcher, err := browser.Launch(ctx, cfg.BrowserOptions())
	stopSpinner()
	if err != nil {
		return err
	}
	defer func() {
		if err := launcher.Close(); err != nil {
			logging.Warn("Run", "Failed to close browser: %v", err)
		}
	}()

	sink, err := report.NewSink(report.Options{
		Root: cfg.ReportsDir,
		Run: report.RunInfo{
			Env:               cfg.Env,
			Browser:           launcher.Name(),
			ConfiguredBrowser: cfg.Browser.Name,
			URL:               creds.URL,
			Tags:              cfg.Tags,
		},
	})
	if err != nil {
		return err
	}

	logLevel := logging.LevelInfo
	if debug {
		logLevel = logging.LevelDebug
	}
	logs, err := logging.OpenRunLogs(sink.LogDir(), logLevel)
	if err != nil {
		return err
	}

	fsys, paths, disk := featureSource(args)
	rec := recorder.New(recorder.Options{
		Sink:        sink,
		Launcher:    launcher,
		FS:          fsys,
		Logs:        logs,
		WaitOptions: []waits.Option{waits.WithTimeouts(cfg.Timeouts())},
	})
	// An interrupted run never reaches godog's AfterSuite. OnRunEnd only
	// acts once.
	defer func() { _ = rec.OnRunEnd() }()

	logging.Info("Run", "Starting run %s against %s (%s)", sink.RunID(), report.NormalizeEnv(cfg.Env), creds.URL)

	suite := bdd.Config{
		Recorder:    rec,
		Steps:       steps.Register(steps.Options{Credentials: creds}),
		Paths:       paths,
		Tags:        cfg.Tags,
		Concurrency: cfg.Concurrency,
		Format:      opts.format,
		Output:      cmd.OutOrStdout(),
		Context:     ctx,
	}
	if !disk {
		suite.FS = fsys
	}
	status := bdd.Run(suite)

	if err := rec.OnRunEnd(); err != nil {
		logging.Error("Run", err, "Failed to finish report")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	sink.WriteSummary(out)
	fmt.Fprintf(out, "Report: %s\n", sink.ReportPath())

	if opts.cleanDashboard {
		cleaner := report.NewCleaner(cfg.ReportsDir, out, cmd.ErrOrStderr())
		if _, err := cleaner.CleanFile(sink.ReportPath()); err != nil {
			logging.Error("Run", err, "Failed to clean report dashboard")
		}
	}

	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	return suiteError(status, sink.Counters().Snapshot())
}

// suiteError maps godog's exit status onto the CLI's errors.
func suiteError(status int, snap report.Snapshot) error {
	switch status {
	case 0:
		return nil
	case 1:
		return &TestFailureError{Failed: snap.Failed, Status: status}
	default:
		return fmt.Errorf("test suite could not start (status %d), check the feature paths and tag expression", status)
	}
}
