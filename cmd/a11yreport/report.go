package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/a11yreport/internal/browser"
	"github.com/nao1215/a11yreport/internal/config"
	"github.com/nao1215/a11yreport/internal/database"
	"github.com/nao1215/a11yreport/internal/model"
	"github.com/nao1215/a11yreport/internal/pipeline"
	"github.com/nao1215/a11yreport/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [results.json...]",
		Short: "Flatten axe results into an issue report",
		Long: `Report reads axe-core results files and writes one row per affected
element of every violated rule.

For each page with violations, the page is reopened in headless Chrome and
every affected element is captured to
  <screenshot-dir>/<scan-epoch-ms>/violations/<browser>/<slug>-<impact>-<rule>-<hash>.png
Elements that cannot be captured get an error attachment instead; the
report is still written.

Examples:
  # CSV report on stdout
  a11yreport report results.json

  # Combined report of many pages, without screenshots
  a11yreport report --screenshots=false results/*.json

  # SARIF for code scanning, with attachments saved next to it
  a11yreport report -f sarif -o a11y.sarif --artifacts artifacts results.json

Configuration file (.a11yreport) example:
  pages:
    example.com:
      cookie: "session_id=abc123"
    https://example.com/account:
      slug: account
      waitSelector: "main"`,
		Args: cobra.ArbitraryArgs,
		RunE: runReportCmd,
	}

	// Output flags
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Report format: csv, json, markdown or sarif")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path, or into a directory as a11y-report.<ext> (creates directories if needed)")
	cmd.Flags().Bool("no-header", false,
		"Omit the header row (csv) or preamble (markdown)")
	cmd.Flags().Bool("sanitize-formulas", false,
		"Escape CSV cells that a spreadsheet would evaluate")
	cmd.Flags().String("delimiter", "",
		`CSV field delimiter: one character or "tab" (default: comma)`)
	cmd.Flags().Bool("compact", false,
		"Write JSON without indentation")

	// Screenshot flags
	cmd.Flags().Bool("screenshots", true,
		"Capture a screenshot of every affected element")
	cmd.Flags().String("screenshot-dir", config.DefaultScreenshotDir,
		"Root directory for screenshots")
	cmd.Flags().String("browser", config.DefaultBrowserName,
		"Browser name used in screenshot paths")
	cmd.Flags().String("chrome-path", "",
		"Chrome or Chromium binary (default: search PATH)")
	cmd.Flags().Bool("sandbox", false,
		"Run Chrome with its sandbox enabled")
	cmd.Flags().String("proxy", "",
		"Proxy server for the browser (e.g., http://127.0.0.1:8080)")
	cmd.Flags().String("slug", "",
		"Screenshot filename slug for pages without one in the config file (default: page title)")
	cmd.Flags().Duration("element-timeout", config.DefaultElementTimeout,
		"Timeout for each element screenshot")
	cmd.Flags().Duration("page-timeout", config.DefaultPageTimeout,
		"Timeout for loading each page")
	cmd.Flags().String("artifacts", "",
		"Directory for attachment bodies and attachments.json")

	// Batch and history flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of results files processed concurrently")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .a11yreport in current or home directory)")
	cmd.Flags().Bool("no-history", false,
		"Do not store this run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := cfg.LoadPageConfigs(); err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runReport(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	noHeader, err := flags.GetBool("no-header")
	if err != nil {
		return nil, err
	}
	cfg.Header = !noHeader
	if cfg.SanitizeFormulas, err = flags.GetBool("sanitize-formulas"); err != nil {
		return nil, err
	}
	if cfg.Delimiter, err = flags.GetString("delimiter"); err != nil {
		return nil, err
	}
	if cfg.Compact, err = flags.GetBool("compact"); err != nil {
		return nil, err
	}

	if cfg.Screenshots, err = flags.GetBool("screenshots"); err != nil {
		return nil, err
	}
	if cfg.ScreenshotDir, err = flags.GetString("screenshot-dir"); err != nil {
		return nil, err
	}
	if cfg.BrowserName, err = flags.GetString("browser"); err != nil {
		return nil, err
	}
	if cfg.ChromePath, err = flags.GetString("chrome-path"); err != nil {
		return nil, err
	}
	sandbox, err := flags.GetBool("sandbox")
	if err != nil {
		return nil, err
	}
	cfg.NoSandbox = !sandbox
	if cfg.ProxyServer, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.Slug, err = flags.GetString("slug"); err != nil {
		return nil, err
	}
	if cfg.ElementTimeout, err = flags.GetDuration("element-timeout"); err != nil {
		return nil, err
	}
	if cfg.PageTimeout, err = flags.GetDuration("page-timeout"); err != nil {
		return nil, err
	}
	if cfg.ArtifactsDir, err = flags.GetString("artifacts"); err != nil {
		return nil, err
	}

	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

// DefaultReportName is the base name of the report written when --output
// names a directory.
const DefaultReportName = "a11y-report"

// newSerializer returns the serializer for cfg.Format.
func newSerializer(cfg *config.Config) (report.Format, report.Serializer, error) {
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return "", nil, err
	}
	switch format {
	case report.FormatCSV:
		return format, report.NewCSVSerializer(
			report.WithDelimiter(cfg.Comma()),
			report.WithFormulaSanitizing(cfg.SanitizeFormulas),
		), nil
	case report.FormatJSON:
		if cfg.Compact {
			return format, report.NewJSONSerializer(report.WithIndent("")), nil
		}
	}
	s, err := report.NewSerializer(format)
	return format, s, err
}

// reportPath resolves cfg.ReportFile. A path that ends in a separator or
// names an existing directory gets DefaultReportName plus the format
// extension inside it.
func reportPath(cfg *config.Config, format report.Format) string {
	if cfg.ReportFile == "" {
		return ""
	}
	if strings.HasSuffix(cfg.ReportFile, string(filepath.Separator)) || strings.HasSuffix(cfg.ReportFile, "/") {
		return filepath.Join(cfg.ReportFile, DefaultReportName+format.Extension())
	}
	if info, err := os.Stat(cfg.ReportFile); err == nil && info.IsDir() {
		return filepath.Join(cfg.ReportFile, DefaultReportName+format.Extension())
	}
	return cfg.ReportFile
}

// runReport processes every target and writes one combined report.
func runReport(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	format, serializer, err := newSerializer(cfg)
	if err != nil {
		return err
	}

	logger.Info("starting report",
		"targets", len(cfg.Targets),
		"format", cfg.Format,
		"screenshots", cfg.Screenshots,
		"batchSize", cfg.BatchSize,
	)

	var store pipeline.RunStore
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		store = db
		logger.Debug("database opened", "path", db.Path())
	}

	recorder := report.NewRecorder()
	captureOpts := []pipeline.CaptureStepOption{pipeline.WithAttacher(recorder)}
	if cfg.Screenshots {
		opener, closeBrowser := startBrowser(ctx, cfg, logger)
		defer closeBrowser()
		captureOpts = append(captureOpts, pipeline.WithPageOpener(opener))
	}

	factory := pipeline.Factory(cfg, store, logger, captureOpts...)
	logger.Debug("pipeline configured", "steps", factory().StepNames())

	bp := pipeline.NewBatchProcessor(
		factory,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	jobs := make([]*model.Job, len(cfg.Targets))
	progress := newProgress(stderr, len(cfg.Targets))
	err = bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(job *model.Job, index int) {
		jobs[index] = job
		progress.done(job)
	})
	if err != nil {
		return err
	}

	issues, err := collectIssues(jobs, logger)
	if err != nil {
		return err
	}

	path := reportPath(cfg, format)
	written, err := writeReport(path, cfg.Header, serializer, issues, hasViolations(jobs), stdout)
	if err != nil {
		return err
	}

	if cfg.ArtifactsDir != "" {
		if written && path != "" {
			if err := recorder.Attach(ctx, DefaultReportName, report.Attachment{
				ContentType: serializer.ContentType(),
				Path:        path,
			}); err != nil {
				return err
			}
		}
		manifest, err := recorder.Persist(cfg.ArtifactsDir)
		if err != nil {
			return err
		}
		logger.Info("attachments written", "manifest", manifest, "count", recorder.Len())
	}

	shots := 0
	for _, job := range jobs {
		if job != nil {
			shots += job.Screenshots()
		}
	}
	fmt.Fprintf(stderr, "Reported %d issues from %d results files (%d screenshots) in %s\n",
		len(issues), len(jobs), shots, time.Since(startTime).Round(time.Millisecond))

	return nil
}

// progress prints one line per finished results file.
type progress struct {
	mu       sync.Mutex
	w        io.Writer
	total    int
	finished int
}

func newProgress(w io.Writer, total int) *progress {
	return &progress{w: w, total: total}
}

func (p *progress) done(job *model.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished++
	if job.Failed() {
		fmt.Fprintf(p.w, "[%d/%d] %s: failed: %v\n", p.finished, p.total, job.Source, job.Err)
		return
	}
	fmt.Fprintf(p.w, "[%d/%d] %s: %d issues\n", p.finished, p.total, job.Source, len(job.Issues))
}

// startBrowser launches headless Chrome. A browser that cannot start does
// not abort the report: every element then gets an error attachment.
func startBrowser(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.PageOpener, func()) {
	opts := browser.DefaultOptions()
	opts.ExecPath = cfg.ChromePath
	opts.NoSandbox = cfg.NoSandbox
	opts.ProxyServer = cfg.ProxyServer

	session, err := browser.Open(ctx, opts, logger)
	if err != nil {
		logger.Warn("failed to start browser, elements will not be captured", "error", err)
		return pipeline.FailingOpener{Err: err}, func() {}
	}
	return pipeline.SessionOpener{Session: session}, session.Close
}

// collectIssues concatenates the issues of all jobs in input order. A job
// that failed before its issues were built is a fault; a failure to store
// the run is only logged.
func collectIssues(jobs []*model.Job, logger *slog.Logger) ([]model.Issue, error) {
	var (
		issues []model.Issue
		faults []error
	)
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if job.Failed() && !slices.Contains(job.Steps, "capture") {
			faults = append(faults, fmt.Errorf("%s: %w", job.Source, job.Err))
			continue
		}
		if job.Failed() {
			logger.Warn("run not stored in history", "source", job.Source, "error", job.Err)
		}
		issues = append(issues, job.Issues...)
	}
	return issues, errors.Join(faults...)
}

// hasViolations reports whether any loaded results file has a violation.
func hasViolations(jobs []*model.Job) bool {
	for _, job := range jobs {
		if job != nil && job.Results != nil && job.Results.HasViolations() {
			return true
		}
	}
	return false
}

// writeReport serializes issues to path, or to stdout when path is empty.
// When no page had a violation nothing is written in any format; an
// output file is still created, empty. It reports whether a report body
// was written.
func writeReport(path string, header bool, s report.Serializer, issues []model.Issue, violations bool, stdout io.Writer) (bool, error) {
	output := stdout
	if path != "" {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return false, fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports carry page URLs and selectors; keep them owner-only.
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return false, fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	if !violations {
		return false, nil
	}
	if _, err := report.NewIssueWriter(output, s, header).Write(issues); err != nil {
		return false, fmt.Errorf("failed to write report: %w", err)
	}
	return true, nil
}
