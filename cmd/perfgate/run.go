package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"perfgate/internal/adapter"
	"perfgate/internal/alert"
	"perfgate/internal/collect"
	"perfgate/internal/config"
	"perfgate/internal/fold"
	"perfgate/internal/git"
	"perfgate/internal/metric"
	"perfgate/internal/metrics"
	"perfgate/internal/notify"
	"perfgate/internal/report"
	"perfgate/internal/submit"
	"perfgate/internal/telemetry"
	"perfgate/internal/threshold"
	"perfgate/internal/ui"
)

// gitHash returns the commit checked out in the working directory. It is
// replaceable in tests.
var gitHash = func(ctx context.Context) (string, error) {
	return git.NewClient("").CurrentCommitSHA(ctx)
}

type runOptions struct {
	adapter adapterValue
	average averageValue
	fold    foldValue
	format  formatValue

	hash     string
	noHash   bool
	backdate string

	dryRun      bool
	failOnAlert bool
	quiet       bool
	exec        bool
	shell       string
	shellFlag   string
	file        string
	fileSizes   []string
	metricsAddr string
	thresholds  thresholdFlags
}

// runOutput is the JSON document written by --format json.
type runOutput struct {
	Report *report.Report `json:"report"`
	ID     *uuid.UUID     `json:"uuid,omitempty"`
	Alerts []alert.Alert  `json:"alerts"`
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{format: formatValue{format: formatText}}
	cmd := &cobra.Command{
		Use:   "run [flags] [--] [command...]",
		Short: "Run a benchmark and check it for regressions",
		Long: `Runs the benchmark command --iter times, parses each run with the
selected adapter, folds the iterations and assembles a report. The report is
checked against the configured thresholds and stored locally, or sent to
--host when one is given.

Without a command the harness output is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	f := cmd.Flags()
	f.SetInterspersed(false)
	f.String("project", "", "Project slug")
	f.String("branch", "", "Branch name (default main)")
	f.String("testbed", "", "Testbed name (default localhost)")
	f.Var(&opts.adapter, "adapter", "Harness adapter, or magic to detect it")
	f.Var(&opts.average, "average", "Average reported by harnesses that offer both: mean or median")
	f.Var(&opts.fold, "fold", "Fold iterations with min, max, mean or median")
	f.Int("iter", 1, "Number of iterations to run")
	f.Bool("allow-failure", false, "Skip iterations that exit non-zero instead of failing")
	f.String("host", "", "Submit the report to this API host instead of the local store")
	f.String("token", "", "API token for --host")
	f.StringVar(&opts.hash, "hash", "", "Commit hash of the benchmarked code (default git rev-parse HEAD)")
	f.BoolVar(&opts.noHash, "no-hash", false, "Do not detect the commit hash")
	f.StringVar(&opts.backdate, "backdate", "", "Start time of the report as RFC 3339 or unix seconds")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Print the report without submitting or storing it")
	f.BoolVar(&opts.failOnAlert, "err", false, "Exit non-zero when an alert is raised")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Do not echo benchmark output")
	f.Var(&opts.format, "format", "Output format: text or json")
	f.BoolVar(&opts.exec, "exec", false, "Run the command directly instead of through a shell")
	f.StringVar(&opts.shell, "shell", collect.DefaultShell, "Shell used to run the command")
	f.StringVar(&opts.shellFlag, "flag", collect.DefaultShellFlag, "Flag passed to the shell before the command")
	f.StringVar(&opts.file, "file", "", "Read harness output from this file after running the command")
	f.StringArrayVar(&opts.fileSizes, "file-size", nil, "Track the size of this file in bytes (repeatable)")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	opts.thresholds.register(f)

	for key, name := range map[string]string{
		"project":       "project",
		"branch":        "branch",
		"testbed":       "testbed",
		"adapter":       "adapter",
		"average":       "average",
		"fold":          "fold",
		"iter":          "iter",
		"allow_failure": "allow-failure",
		"host":          "host",
		"token":         "token",
	} {
		viper.BindPFlag(key, f.Lookup(name))
	}
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	settings, err := resolveSettings()
	if err != nil {
		return err
	}
	specs, err := o.thresholdSpecs()
	if err != nil {
		return err
	}
	backdate, err := parseBackdate(o.backdate)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics()
	if addr := config.MetricsAddr(o.metricsAddr); addr != "" {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		bound, err := telemetry.StartMetricsServer(srvCtx, addr, m.Handler())
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		telemetry.LogInfof("serving metrics on http://%s/metrics", bound)
	}

	runner, err := o.runner(cmd, args)
	if err != nil {
		return err
	}
	collector := &collect.Collector{
		Runner:       runner,
		Adapter:      settings.Adapter,
		Settings:     adapter.Settings{Average: settings.Average},
		Iterations:   viper.GetInt("iter"),
		AllowFailure: viper.GetBool("allow_failure"),
		Logger:       logger,
		Observer:     m,
	}

	start := time.Now()
	results, err := collector.Collect(ctx)
	if err != nil {
		return err
	}
	end := time.Now()

	if settings.Fold != nil {
		results = []*metric.Results{fold.Fold(results, settings.Fold)}
	}

	rep, err := report.NewAssembler(report.DefaultBranch, report.DefaultTestbed).Assemble(report.Input{
		Project:    viper.GetString("project"),
		Branch:     viper.GetString("branch"),
		Testbed:    viper.GetString("testbed"),
		Hash:       o.resolveHash(ctx, logger),
		Start:      start,
		End:        end,
		Backdate:   backdate,
		Results:    results,
		Settings:   settings,
		Thresholds: specs,
	})
	if err != nil {
		return err
	}

	out := runOutput{Report: rep, Alerts: []alert.Alert{}}
	if !o.dryRun {
		res, dest, err := o.submit(ctx, rep, logger)
		if err != nil {
			return err
		}
		m.ReportSent(dest)
		telemetry.LogDebug("report submitted", "destination", dest, "alerts", len(res.Alerts))
		m.RecordAlerts(res.Alerts)
		if res.ID != uuid.Nil {
			id := res.ID
			out.ID = &id
		}
		if res.Alerts != nil {
			out.Alerts = res.Alerts
		}
		if err := notify.NewManager(config.Notifications(), logger).NotifyAlerts(ctx, rep, out.Alerts); err != nil {
			telemetry.LogWarn("failed to send alert notifications", "error", err)
		}
	} else {
		m.ReportSent("dry_run")
		telemetry.LogInfo("dry run, report not submitted")
	}

	if err := o.render(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if o.failOnAlert && len(out.Alerts) > 0 {
		return &alert.AlertsError{Count: len(out.Alerts)}
	}
	return nil
}

// resolveSettings reads the adapter, average and fold from flags, the
// environment and the config file.
func resolveSettings() (report.Settings, error) {
	var s report.Settings
	var err error
	adapterName := viper.GetString("adapter")
	if adapterName == "" {
		adapterName = string(adapter.Magic)
	}
	if s.Adapter, err = adapter.ParseKind(adapterName); err != nil {
		return s, err
	}
	if avg := viper.GetString("average"); avg != "" {
		if s.Average, err = adapter.ParseAverage(avg); err != nil {
			return s, err
		}
	}
	if s.Fold, err = fold.ParseOp(viper.GetString("fold")); err != nil {
		return s, err
	}
	return s, nil
}

// thresholdSpecs merges configured thresholds with those given as flags.
// Flag thresholds come last so they win for the same measure.
func (o *runOptions) thresholdSpecs() ([]threshold.Spec, error) {
	specs, err := config.Thresholds()
	if err != nil {
		return nil, err
	}
	flagSpecs, err := o.thresholds.specs()
	if err != nil {
		return nil, err
	}
	for i, s := range flagSpecs {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("threshold %d: %w", i, err)
		}
	}
	return append(specs, flagSpecs...), nil
}

func parseBackdate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		t := time.Unix(secs, 0).UTC()
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid backdate %q: want RFC 3339 or unix seconds", s)
	}
	return &t, nil
}

func (o *runOptions) resolveHash(ctx context.Context, logger *slog.Logger) string {
	if o.noHash {
		return ""
	}
	if o.hash != "" {
		return o.hash
	}
	hash, err := gitHash(ctx)
	if err != nil {
		logger.Debug("could not detect git hash", "error", err)
		return ""
	}
	return hash
}

func (o *runOptions) runner(cmd *cobra.Command, args []string) (collect.Runner, error) {
	var command collect.Runner
	if len(args) > 0 {
		r := &collect.CommandRunner{
			Command:   args[0],
			Args:      args[1:],
			Exec:      o.exec,
			Shell:     o.shell,
			ShellFlag: o.shellFlag,
		}
		if !o.quiet {
			r.Stdout = cmd.ErrOrStderr()
			r.Stderr = cmd.ErrOrStderr()
		}
		command = r
	}

	switch {
	case len(o.fileSizes) > 0:
		if o.file != "" {
			return nil, errors.New("--file and --file-size cannot be combined")
		}
		return &collect.FileSizeRunner{Runner: command, Paths: o.fileSizes}, nil
	case o.file != "":
		return &collect.FileRunner{Runner: command, Path: o.file}, nil
	case command != nil:
		return command, nil
	default:
		return &collect.PipeRunner{Reader: cmd.InOrStdin()}, nil
	}
}

func (o *runOptions) submit(ctx context.Context, rep *report.Report, logger *slog.Logger) (*submit.Result, string, error) {
	if host := viper.GetString("host"); host != "" {
		s := submit.NewHTTPSubmitter(host, rep.Project, viper.GetString("token"))
		res, err := s.Submit(ctx, rep)
		return res, "http", err
	}

	st, err := openStore(config.Store())
	if err != nil {
		return nil, "", fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			telemetry.LogError("failed to close store", err)
		}
	}()

	set, err := threshold.SetFromSpecs(rep.Thresholds, rep.Branch, rep.Testbed, rep.EndTime)
	if err != nil {
		return nil, "", err
	}
	for _, t := range set.All() {
		telemetry.LogDebug("active threshold",
			"key", t.Key.String(), "test", t.Statistic.Test, "superseded", len(set.History(t.Key)))
	}
	s := &submit.LocalSubmitter{
		Store: st,
		Detector: &alert.Detector{
			History:    st,
			Thresholds: set,
			Now:        func() time.Time { return rep.EndTime },
			Logger:     logger,
		},
	}
	res, err := s.Submit(ctx, rep)
	return res, "local", err
}

func (o *runOptions) render(w io.Writer, out runOutput) error {
	if o.format.format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if err := ui.RenderReport(w, out.Report, out.Alerts); err != nil {
		return err
	}
	if out.ID != nil {
		_, err := fmt.Fprintf(w, "\nStored report %s\n", out.ID)
		return err
	}
	return nil
}
