package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/a11yreport/internal/browser"
	"github.com/nao1215/a11yreport/internal/config"
	"github.com/nao1215/a11yreport/internal/database"
	"github.com/nao1215/a11yreport/internal/model"
	"github.com/nao1215/a11yreport/internal/report"
)

// LoadStep decodes the job's results file.
type LoadStep struct{}

// NewLoadStep creates a new load step.
func NewLoadStep() *LoadStep {
	return &LoadStep{}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do reads job.Source into job.Results.
func (s *LoadStep) Do(_ context.Context, job *model.Job) error {
	res, err := model.LoadResults(job.Source)
	if err != nil {
		return err
	}
	job.Results = res
	return nil
}

// Page is an opened page whose elements can be captured.
type Page interface {
	report.Screenshotter
	Title(ctx context.Context) (string, error)
	Close()
}

// PageOpener opens the scanned page of a job.
type PageOpener interface {
	OpenPage(ctx context.Context, opts browser.PageOptions) (Page, error)
}

// SessionOpener opens pages as tabs of a browser session.
type SessionOpener struct {
	Session *browser.Session
}

// OpenPage implements PageOpener.
func (o SessionOpener) OpenPage(ctx context.Context, opts browser.PageOptions) (Page, error) {
	p, err := o.Session.NewPage(ctx, opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FailingOpener is a PageOpener for a browser that could not be started.
// Every page fails to open with Err.
type FailingOpener struct {
	Err error
}

// OpenPage implements PageOpener.
func (o FailingOpener) OpenPage(context.Context, browser.PageOptions) (Page, error) {
	return nil, o.Err
}

// unavailablePage fails every capture with the error that prevented the
// page from opening, so each affected element still gets an error
// attachment.
type unavailablePage struct {
	err error
}

func (u unavailablePage) ScreenshotElement(context.Context, string, string) error {
	return u.err
}

// CaptureStep flattens the job's violations, capturing a screenshot of
// every affected element when a PageOpener is configured.
type CaptureStep struct {
	cfg      *config.Config
	opener   PageOpener
	attacher report.Attacher
	now      func() time.Time
	logger   *slog.Logger
}

// CaptureStepOption configures a CaptureStep.
type CaptureStepOption func(*CaptureStep)

// WithPageOpener enables screenshots through opener.
func WithPageOpener(opener PageOpener) CaptureStepOption {
	return func(s *CaptureStep) {
		s.opener = opener
	}
}

// WithAttacher sets the sink for screenshot and error attachments.
func WithAttacher(a report.Attacher) CaptureStepOption {
	return func(s *CaptureStep) {
		if a != nil {
			s.attacher = a
		}
	}
}

// WithCaptureClock overrides the clock used for filenames of issues
// without a target.
func WithCaptureClock(now func() time.Time) CaptureStepOption {
	return func(s *CaptureStep) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCaptureLogger sets a custom logger for the capture step.
func WithCaptureLogger(logger *slog.Logger) CaptureStepOption {
	return func(s *CaptureStep) {
		s.logger = logger
	}
}

// NewCaptureStep creates a capture step reading slug, browser name,
// screenshot directory, timeouts and per-page settings from cfg.
func NewCaptureStep(cfg *config.Config, opts ...CaptureStepOption) *CaptureStep {
	s := &CaptureStep{
		cfg:      cfg,
		attacher: report.Discard,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name returns the step name.
func (s *CaptureStep) Name() string {
	return "capture"
}

// Do flattens job.Results into job.Issues. A page that cannot be opened is
// not fatal: every element then gets an error attachment instead of a
// screenshot.
func (s *CaptureStep) Do(ctx context.Context, job *model.Job) error {
	res := job.Results
	if res == nil {
		return ErrNotLoaded
	}
	if !res.HasViolations() {
		job.Issues = nil
		return nil
	}

	pc := s.cfg.PageConfig(res.URL)
	logger := s.logger.With("source", job.Source)

	opts := []report.Option{
		report.WithAttacher(s.attacher),
		report.WithScreenshotDir(s.cfg.ScreenshotDir),
		report.WithBrowserName(firstNonEmpty(pc.Browser, s.cfg.BrowserName)),
		report.WithClock(s.now),
		report.WithLogger(logger),
	}

	if s.opener != nil {
		page, err := s.opener.OpenPage(ctx, browser.PageOptions{
			URL:            res.URL,
			Width:          res.TestEnvironment.WindowWidth,
			Height:         res.TestEnvironment.WindowHeight,
			Headers:        pc.Headers,
			Cookie:         pc.Cookie,
			WaitSelector:   pc.WaitSelector,
			Timeout:        s.cfg.PageTimeout,
			ElementTimeout: s.cfg.ElementTimeout,
		})
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			logger.Warn("failed to open page, elements will not be captured",
				"url", res.URL,
				"error", err,
			)
			opts = append(opts, report.WithScreenshotter(unavailablePage{err: err}))
		default:
			defer page.Close()
			title, terr := page.Title(ctx)
			if terr != nil {
				logger.Debug("failed to read page title", "error", terr)
			}
			job.Title = title
			opts = append(opts, report.WithScreenshotter(page))
		}
	}

	// A slug set for the page in the config file beats the --slug default.
	job.Slug = report.PageSlug(firstNonEmpty(pc.Slug, s.cfg.Slug), job.Title, res.URL)
	opts = append(opts, report.WithSlug(job.Slug))

	issues, err := report.NewFlattener(opts...).Flatten(ctx, res)
	if err != nil {
		return fmt.Errorf("failed to flatten %s: %w", job.Source, err)
	}
	job.Issues = issues

	logger.Info("flattened violations",
		"url", res.URL,
		"issues", len(issues),
		"screenshots", job.Screenshots(),
	)
	return nil
}

// RunStore stores report runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *database.Run, issues []database.IssueRecord) (string, error)
}

// PersistStep stores the job in the history database.
type PersistStep struct {
	store  RunStore
	logger *slog.Logger
}

// NewPersistStep creates a persist step writing to store.
func NewPersistStep(store RunStore, logger *slog.Logger) *PersistStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistStep{
		store:  store,
		logger: logger,
	}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves the run and records its ID in job.RunID.
func (s *PersistStep) Do(ctx context.Context, job *model.Job) error {
	res := job.Results
	if res == nil {
		return ErrNotLoaded
	}

	run := NewRun(job)
	id, err := s.store.SaveRun(ctx, run, IssueRecords(job.Issues))
	if err != nil {
		return fmt.Errorf("failed to store run of %s: %w", job.Source, err)
	}
	job.RunID = id

	s.logger.Debug("stored run",
		"id", id,
		"url", res.URL,
	)
	return nil
}

// NewRun builds the stored run of a loaded job. A run whose scan time
// cannot be parsed is stored with the zero time.
func NewRun(job *model.Job) *database.Run {
	res := job.Results
	scannedAt, _ := res.ScanTime() //nolint:errcheck // zero time sorts last
	sum := report.Summarize(res)
	return &database.Run{
		URL:           res.URL,
		Source:        job.Source,
		ScannedAt:     scannedAt,
		Engine:        res.TestEngine.Name,
		EngineVersion: res.TestEngine.Version,
		Critical:      sum.Critical,
		Serious:       sum.Serious,
		Moderate:      sum.Moderate,
		Minor:         sum.Minor,
	}
}

// IssueRecords converts issues to their stored form.
func IssueRecords(issues []model.Issue) []database.IssueRecord {
	recs := make([]database.IssueRecord, 0, len(issues))
	for i, issue := range issues {
		recs = append(recs, database.IssueRecord{
			Ordinal:     i,
			Fingerprint: report.Fingerprint(issue),
			Rule:        issue.Rule,
			Impact:      issue.Impact,
			Target:      issue.Target,
			Parent:      issue.Parent,
			Screenshot:  issue.Screenshot,
		})
	}
	return recs
}

// Factory returns a pipeline factory for the batch processor. The capture
// step always runs; store may be nil to skip persistence.
func Factory(cfg *config.Config, store RunStore, logger *slog.Logger, captureOpts ...CaptureStepOption) func() *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	captureOpts = append([]CaptureStepOption{WithCaptureLogger(logger)}, captureOpts...)
	return func() *Pipeline {
		p := New(WithLogger(logger))
		p.AddSteps(
			NewLoadStep(),
			NewCaptureStep(cfg, captureOpts...),
		)
		if store != nil {
			p.AddStep(NewPersistStep(store, logger))
		}
		return p
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
