package report

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/a11yreport/internal/model"
)

// emptyRuleMarker marks rules about elements with no renderable content
// (empty-heading, empty-table-header, ...). Their elements are never
// screenshotted.
const emptyRuleMarker = "empty"

// unknownError is the attachment body used when a capture failure carries
// no message.
const unknownError = "Unknown error"

// Defaults for screenshot paths.
const (
	DefaultScreenshotDir = "screenshots"
	DefaultBrowserName   = "chromium"
)

// Screenshotter captures a PNG of the element matched by locator and writes
// it to path. Implementations are called one element at a time and must
// report every failure as an error.
type Screenshotter interface {
	ScreenshotElement(ctx context.Context, locator, path string) error
}

// Flattener turns nested axe results into a flat list of issues, capturing
// a screenshot of each affected element when a Screenshotter is configured.
type Flattener struct {
	shooter       Screenshotter
	attacher      Attacher
	serializer    Serializer
	header        bool
	slug          string
	browser       string
	screenshotDir string
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures a Flattener.
type Option func(*Flattener)

// WithScreenshotter enables element screenshots.
func WithScreenshotter(s Screenshotter) Option {
	return func(f *Flattener) {
		f.shooter = s
	}
}

// WithAttacher sets the sink for screenshot and error attachments.
func WithAttacher(a Attacher) Option {
	return func(f *Flattener) {
		if a != nil {
			f.attacher = a
		}
	}
}

// WithSerializer sets the serializer used by Generate. The default is CSV.
func WithSerializer(s Serializer) Option {
	return func(f *Flattener) {
		if s != nil {
			f.serializer = s
		}
	}
}

// WithHeader controls whether Generate emits a header row.
func WithHeader(header bool) Option {
	return func(f *Flattener) {
		f.header = header
	}
}

// WithSlug sets the page slug used in screenshot filenames.
func WithSlug(slug string) Option {
	return func(f *Flattener) {
		f.slug = slug
	}
}

// WithBrowserName sets the browser name used in screenshot paths.
func WithBrowserName(name string) Option {
	return func(f *Flattener) {
		if name != "" {
			f.browser = name
		}
	}
}

// WithScreenshotDir sets the root directory for screenshots.
func WithScreenshotDir(dir string) Option {
	return func(f *Flattener) {
		if dir != "" {
			f.screenshotDir = dir
		}
	}
}

// WithClock overrides the time source used for filenames of issues that
// have no target locator.
func WithClock(now func() time.Time) Option {
	return func(f *Flattener) {
		if now != nil {
			f.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flattener) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFlattener creates a Flattener. Without WithScreenshotter it only
// reshapes the results.
func NewFlattener(opts ...Option) *Flattener {
	f := &Flattener{
		attacher:      Discard,
		serializer:    NewCSVSerializer(),
		header:        true,
		browser:       DefaultBrowserName,
		screenshotDir: DefaultScreenshotDir,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Generate flattens res and serializes the issues. A result set without
// violations yields the empty string and nothing else happens: no
// metadata is read, no screenshot is attempted and the serializer is not
// called.
func (f *Flattener) Generate(ctx context.Context, res *model.Results) (string, error) {
	if len(res.Violations) == 0 {
		return "", nil
	}

	issues, err := f.Flatten(ctx, res)
	if err != nil {
		return "", err
	}
	return Serialize(f.serializer, issues, f.header)
}

// Flatten produces one issue per affected node, in violation then node
// order. Screenshot failures are reported through the Attacher and never
// abort the walk; only a cancelled context or an unparseable scan
// timestamp stops it.
func (f *Flattener) Flatten(ctx context.Context, res *model.Results) ([]model.Issue, error) {
	if len(res.Violations) == 0 {
		return nil, nil
	}

	meta := ExtractMetadata(res)

	var epochMillis string
	if f.shooter != nil {
		ts, err := res.ScanTime()
		if err != nil {
			return nil, err
		}
		epochMillis = strconv.FormatInt(ts.UnixMilli(), 10)
	}

	issues := make([]model.Issue, 0, res.NodeCount())
	for _, v := range res.Violations {
		category := ruleCategory(v)
		for _, node := range v.Nodes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			issue := model.Issue{
				ScanMetadata:    meta,
				RuleCategory:    category,
				IssueProperties: nodeProperties(node),
			}
			if f.shooter != nil {
				f.capture(ctx, &issue, epochMillis)
			}
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

// nodeProperties reads the per-element fields. Only the first check is
// examined even when a node failed several.
func nodeProperties(node model.Node) model.IssueProperties {
	props := model.IssueProperties{
		Impact:         node.Impact,
		FailureSummary: node.FailureSummary,
	}
	if len(node.Target) > 0 {
		props.Target = node.Target[0]
	}
	if len(node.Any) > 0 {
		check := node.Any[0]
		props.Message = check.Message
		if len(check.RelatedNodes) > 0 && len(check.RelatedNodes[0].Target) > 0 {
			props.Parent = check.RelatedNodes[0].Target[0]
		}
	}
	return props
}

// shouldCapture reports whether an issue's element can be screenshotted.
func shouldCapture(issue model.Issue) bool {
	return issue.Locator() != "" && !strings.Contains(issue.Rule, emptyRuleMarker)
}

// ScreenshotPath returns where an issue's screenshot is stored.
func (f *Flattener) ScreenshotPath(issue model.Issue, epochMillis string) string {
	return path.Join(f.screenshotDir, epochMillis, issue.Type, f.browser, ScreenshotFilename(issue, f.slug, f.now()))
}

// capture screenshots one issue's element. Every failure, including a
// panicking Screenshotter, stays inside this call.
func (f *Flattener) capture(ctx context.Context, issue *model.Issue, epochMillis string) {
	if !shouldCapture(*issue) {
		return
	}

	name := issue.Rule + " (" + issue.Impact.Label() + ")"
	p := f.ScreenshotPath(*issue, epochMillis)

	err := f.tryCapture(ctx, issue.Locator(), p, name)
	if err == nil {
		issue.Screenshot = p
		f.logger.Debug("captured element screenshot",
			"rule", issue.Rule,
			"locator", issue.Locator(),
			"path", p,
		)
		return
	}

	f.logger.Warn("element screenshot failed",
		"rule", issue.Rule,
		"locator", issue.Locator(),
		"error", err,
	)
	errAttachment := Attachment{ContentType: ContentTypeText, Body: failureMessage(err)}
	if aerr := f.attacher.Attach(ctx, "Error: "+name, errAttachment); aerr != nil {
		f.logger.Error("failed to attach screenshot error",
			"rule", issue.Rule,
			"error", aerr,
		)
	}
}

// tryCapture runs the screenshot and its success attachment, converting a
// panic into an error.
func (f *Flattener) tryCapture(ctx context.Context, locator, p, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	if err := f.shooter.ScreenshotElement(ctx, locator, p); err != nil {
		return err
	}
	return f.attacher.Attach(ctx, name, Attachment{ContentType: ContentTypePNG, Path: p})
}

// captureFailure carries a recovered panic value that had no message.
type captureFailure struct{}

func (captureFailure) Error() string { return "" }

func panicError(r any) error {
	switch v := r.(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return captureFailure{}
	}
}

// failureMessage is the text body of an error attachment.
func failureMessage(err error) string {
	if err == nil || err.Error() == "" {
		return unknownError
	}
	return err.Error()
}
