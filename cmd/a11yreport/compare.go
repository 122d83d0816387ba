package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/a11yreport/internal/config"
	"github.com/nao1215/a11yreport/internal/database"
)

// Constants for risk direction and summary messages.
const (
	riskDirectionWorsened  = "worsened"
	riskDirectionImproved  = "improved"
	riskDirectionUnchanged = "unchanged"
	noIssuesMessage        = "No issues"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [url]",
		Short: "Compare report runs stored in the history database",
		Long: `Compare displays differences between the two latest report runs of a page.

Issues are matched across runs by fingerprint (rule, target and related
element), so the comparison shows:
- New issues that appeared since the previous run
- Resolved issues that are no longer reported
- Changes in the number of affected elements per impact

Every 'a11yreport report' run is stored unless --no-history is given.

Examples:
  # Compare latest two runs for a page
  a11yreport compare https://example.com/

  # List all runs for a page
  a11yreport compare --list https://example.com/

  # Compare with a specific run
  a11yreport compare --with-run-id <id> https://example.com/

  # Compare with the first run after a date
  a11yreport compare --since 2025-01-01 https://example.com/

  # List all pages in the database
  a11yreport compare --list-urls`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List run history for the specified URL")
	cmd.Flags().BoolP("list-urls", "L", false,
		"List all pages in the database")

	cmd.Flags().StringP("with-run-id", "i", "",
		"Compare with a specific run by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run after this date (format: YYYY-MM-DD)")

	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	listURLs, err := cmd.Flags().GetBool("list-urls")
	if err != nil {
		return err
	}

	// Validate before opening the database.
	var pageURL string
	if !listURLs {
		if len(args) == 0 {
			return errors.New("page URL is required (use --list-urls to see available pages)")
		}
		pageURL = args[0]
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if listURLs {
		return listStoredURLs(ctx, out, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, out, db, pageURL)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	withRunID, err := cmd.Flags().GetString("with-run-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	result, err := runComparison(ctx, db, pageURL, withRunID, sinceDate)
	if err != nil {
		return err
	}

	switch {
	case jsonOutput:
		return outputComparisonJSON(out, result)
	case markdownOutput:
		return outputComparisonMarkdown(out, result)
	default:
		return outputComparisonText(out, result)
	}
}

func listStoredURLs(ctx context.Context, w io.Writer, db *database.ReportDB) error {
	urls, err := db.ListURLs(ctx)
	if err != nil {
		return err
	}

	if len(urls) == 0 {
		fmt.Fprintln(w, "No pages found in the database.")
		fmt.Fprintln(w, "\nUse 'a11yreport report <results.json>' to store a run.")
		return nil
	}

	fmt.Fprintf(w, "Stored pages (%d):\n\n", len(urls))
	for _, u := range urls {
		fmt.Fprintf(w, "  • %s\n", u)
	}
	fmt.Fprintln(w, "\nUse 'a11yreport compare --list <url>' to see run history for a page.")

	return nil
}

func listRunHistory(ctx context.Context, w io.Writer, db *database.ReportDB, pageURL string) error {
	runs, err := db.ListRuns(ctx, pageURL)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintf(w, "No run history found for %s\n", pageURL)
		return nil
	}

	fmt.Fprintf(w, "Run history for %s (%d runs):\n\n", pageURL, len(runs))
	fmt.Fprintf(w, "  %-36s  %-20s  %s\n", "ID", "Scanned", "Affected Elements")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 80))

	for _, run := range runs {
		fmt.Fprintf(w, "  %-36s  %-20s  %s\n",
			run.ID,
			run.ScannedAt.Format("2006-01-02 15:04:05"),
			formatCounts(run),
		)
	}

	fmt.Fprintln(w, "\nUse 'a11yreport compare <url>' to compare the latest two runs.")
	fmt.Fprintln(w, "Use 'a11yreport compare --with-run-id <id> <url>' to compare with a specific run.")

	return nil
}

// formatCounts formats per-impact counts as "C:1 S:2".
func formatCounts(run database.Run) string {
	var parts []string
	if run.Critical > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", run.Critical))
	}
	if run.Serious > 0 {
		parts = append(parts, fmt.Sprintf("S:%d", run.Serious))
	}
	if run.Moderate > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", run.Moderate))
	}
	if run.Minor > 0 {
		parts = append(parts, fmt.Sprintf("m:%d", run.Minor))
	}

	if len(parts) == 0 {
		return noIssuesMessage
	}
	return strings.Join(parts, " ")
}

// ComparisonResult holds the result of comparing two runs.
type ComparisonResult struct {
	URL string `json:"url"`

	PreviousRun RunMetadata `json:"previous_run"`
	CurrentRun  RunMetadata `json:"current_run"`

	NewIssues      []database.IssueRecord `json:"new_issues,omitempty"`
	ResolvedIssues []database.IssueRecord `json:"resolved_issues,omitempty"`
	UnchangedCount int                    `json:"unchanged_count"`

	RiskChange RiskChange `json:"risk_change"`
}

// RunMetadata describes one side of a comparison.
type RunMetadata struct {
	ID            string    `json:"id"`
	ScannedAt     time.Time `json:"scanned_at"`
	TotalIssues   int       `json:"total_issues"`
	CriticalCount int       `json:"critical_count"`
	SeriousCount  int       `json:"serious_count"`
	ModerateCount int       `json:"moderate_count"`
	MinorCount    int       `json:"minor_count"`
}

// RiskChange describes the change in affected elements between runs.
type RiskChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction     string `json:"direction"`
	CriticalDelta int    `json:"critical_delta"`
	SeriousDelta  int    `json:"serious_delta"`
	ModerateDelta int    `json:"moderate_delta"`
	MinorDelta    int    `json:"minor_delta"`
}

// runComparison picks the two runs to compare and diffs their issues.
// The current run is always the latest.
func runComparison(ctx context.Context, db *database.ReportDB, pageURL, withRunID, sinceDate string) (*ComparisonResult, error) {
	var (
		runs []database.Run
		err  error
	)
	if withRunID == "" && sinceDate == "" {
		runs, err = db.LatestRuns(ctx, pageURL, 2)
	} else {
		runs, err = db.ListRuns(ctx, pageURL)
	}
	if err != nil {
		return nil, err
	}

	if len(runs) == 0 {
		return nil, fmt.Errorf("no run history found for %s", pageURL)
	}
	if len(runs) < 2 && withRunID == "" && sinceDate == "" {
		return nil, fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}

	current := runs[0]
	var previous *database.Run

	switch {
	case withRunID != "":
		previous, err = db.GetRun(ctx, withRunID)
		if err != nil {
			return nil, err
		}
		if previous.URL != pageURL {
			return nil, fmt.Errorf("run %s belongs to %s, not %s", withRunID, previous.URL, pageURL)
		}
	case sinceDate != "":
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		// runs are newest first; the oldest match is the baseline
		for i := len(runs) - 1; i >= 0; i-- {
			if !runs[i].ScannedAt.Before(parsedDate) {
				previous = &runs[i]
				break
			}
		}
		if previous == nil {
			return nil, fmt.Errorf("no runs found since %s", sinceDate)
		}
		if previous.ID == current.ID {
			return nil, fmt.Errorf("only one run found since %s; at least 2 runs are required for comparison", sinceDate)
		}
	default:
		previous = &runs[1]
	}

	oldIssues, err := db.GetRunIssues(ctx, previous.ID)
	if err != nil {
		return nil, err
	}
	newIssues, err := db.GetRunIssues(ctx, current.ID)
	if err != nil {
		return nil, err
	}

	return compareRuns(*previous, current, database.DiffIssues(oldIssues, newIssues)), nil
}

func compareRuns(previous, current database.Run, diff database.Diff) *ComparisonResult {
	result := &ComparisonResult{
		URL:            current.URL,
		PreviousRun:    runMetadata(previous),
		CurrentRun:     runMetadata(current),
		NewIssues:      diff.Added,
		ResolvedIssues: diff.Resolved,
		UnchangedCount: diff.Unchanged,
	}
	result.RiskChange = calculateRiskChange(result.PreviousRun, result.CurrentRun)
	return result
}

func runMetadata(run database.Run) RunMetadata {
	return RunMetadata{
		ID:            run.ID,
		ScannedAt:     run.ScannedAt,
		TotalIssues:   run.IssueCount,
		CriticalCount: run.Critical,
		SeriousCount:  run.Serious,
		ModerateCount: run.Moderate,
		MinorCount:    run.Minor,
	}
}

// calculateRiskChange weighs critical and serious elements heavier when
// deciding the overall direction.
func calculateRiskChange(previous, current RunMetadata) RiskChange {
	change := RiskChange{
		CriticalDelta: current.CriticalCount - previous.CriticalCount,
		SeriousDelta:  current.SeriousCount - previous.SeriousCount,
		ModerateDelta: current.ModerateCount - previous.ModerateCount,
		MinorDelta:    current.MinorCount - previous.MinorCount,
	}

	previousScore := previous.CriticalCount*100 + previous.SeriousCount*50 + previous.ModerateCount*10 + previous.MinorCount*5
	currentScore := current.CriticalCount*100 + current.SeriousCount*50 + current.ModerateCount*10 + current.MinorCount*5

	switch {
	case currentScore < previousScore:
		change.Direction = riskDirectionImproved
	case currentScore > previousScore:
		change.Direction = riskDirectionWorsened
	default:
		change.Direction = riskDirectionUnchanged
	}

	return change
}

func outputComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// issueLocation is the selector shown for an issue.
func issueLocation(issue database.IssueRecord) string {
	if issue.Parent != "" {
		return issue.Parent
	}
	return issue.Target
}

func outputComparisonMarkdown(w io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(w)
	md.H1("Run Comparison: " + result.URL)
	md.PlainText("")
	md.H2("Summary")
	md.PlainText("")
	md.PlainText(markdown.Bold("Status:") + " " + formatRiskDirection(result.RiskChange.Direction))
	md.PlainText("")

	prev, cur, delta := result.PreviousRun, result.CurrentRun, result.RiskChange
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Date", prev.ScannedAt.Format("2006-01-02 15:04"), cur.ScannedAt.Format("2006-01-02 15:04"), "-"},
			{"Critical", strconv.Itoa(prev.CriticalCount), strconv.Itoa(cur.CriticalCount), formatDelta(delta.CriticalDelta)},
			{"Serious", strconv.Itoa(prev.SeriousCount), strconv.Itoa(cur.SeriousCount), formatDelta(delta.SeriousDelta)},
			{"Moderate", strconv.Itoa(prev.ModerateCount), strconv.Itoa(cur.ModerateCount), formatDelta(delta.ModerateDelta)},
			{"Minor", strconv.Itoa(prev.MinorCount), strconv.Itoa(cur.MinorCount), formatDelta(delta.MinorDelta)},
			{
				markdown.Bold("Total"),
				markdown.Bold(strconv.Itoa(prev.TotalIssues)),
				markdown.Bold(strconv.Itoa(cur.TotalIssues)),
				markdown.Bold(formatDelta(cur.TotalIssues - prev.TotalIssues)),
			},
		},
	})

	if len(result.NewIssues) > 0 {
		md.PlainText("")
		md.H2(fmt.Sprintf("New Issues (%d)", len(result.NewIssues)))
		md.PlainText("")
		items := make([]string, 0, len(result.NewIssues))
		for _, issue := range result.NewIssues {
			items = append(items, fmt.Sprintf("%s %s: %s",
				markdown.Bold("["+issue.Impact.Label()+"]"), issue.Rule, markdown.Code(issueLocation(issue))))
		}
		md.BulletList(items...)
	}

	if len(result.ResolvedIssues) > 0 {
		md.PlainText("")
		md.H2(fmt.Sprintf("Resolved Issues (%d)", len(result.ResolvedIssues)))
		md.PlainText("")
		items := make([]string, 0, len(result.ResolvedIssues))
		for _, issue := range result.ResolvedIssues {
			items = append(items, fmt.Sprintf("~~[%s] %s: %s~~",
				issue.Impact.Label(), issue.Rule, issueLocation(issue)))
		}
		md.BulletList(items...)
	}

	if result.UnchangedCount > 0 {
		md.PlainText("")
		md.HorizontalRule()
		md.PlainText("")
		md.PlainText(markdown.Italic(fmt.Sprintf("%d issues unchanged", result.UnchangedCount)))
	}

	return md.Build()
}

func outputComparisonText(w io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(w, "Run Comparison: %s\n", result.URL)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "\nStatus: %s\n", formatRiskDirection(result.RiskChange.Direction))

	fmt.Fprintf(w, "\nPrevious run: %s (%s)\n", result.PreviousRun.ScannedAt.Format("2006-01-02 15:04:05"), result.PreviousRun.ID)
	fmt.Fprintf(w, "Current run:  %s (%s)\n", result.CurrentRun.ScannedAt.Format("2006-01-02 15:04:05"), result.CurrentRun.ID)

	prev, cur, delta := result.PreviousRun, result.CurrentRun, result.RiskChange
	fmt.Fprintln(w, "\nAffected Elements:")
	fmt.Fprintf(w, "  %-10s  %-10s  %-10s  %-10s\n", "Impact", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 45))
	row := func(name string, p, c, d int) {
		fmt.Fprintf(w, "  %-10s  %-10d  %-10d  %-10s\n", name, p, c, formatDelta(d))
	}
	row("Critical", prev.CriticalCount, cur.CriticalCount, delta.CriticalDelta)
	row("Serious", prev.SeriousCount, cur.SeriousCount, delta.SeriousDelta)
	row("Moderate", prev.ModerateCount, cur.ModerateCount, delta.ModerateDelta)
	row("Minor", prev.MinorCount, cur.MinorCount, delta.MinorDelta)
	fmt.Fprintln(w, "  "+strings.Repeat("-", 45))
	row("Total", prev.TotalIssues, cur.TotalIssues, cur.TotalIssues-prev.TotalIssues)

	if len(result.NewIssues) > 0 {
		fmt.Fprintf(w, "\nNew Issues (%d):\n", len(result.NewIssues))
		for _, issue := range result.NewIssues {
			fmt.Fprintf(w, "  [+] [%s] %s: %s\n", issue.Impact.Label(), issue.Rule, issueLocation(issue))
		}
	}

	if len(result.ResolvedIssues) > 0 {
		fmt.Fprintf(w, "\nResolved Issues (%d):\n", len(result.ResolvedIssues))
		for _, issue := range result.ResolvedIssues {
			fmt.Fprintf(w, "  [-] [%s] %s: %s\n", issue.Impact.Label(), issue.Rule, issueLocation(issue))
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\nUnchanged: %d issues\n", result.UnchangedCount)
	}

	return nil
}

func formatRiskDirection(direction string) string {
	switch direction {
	case riskDirectionImproved:
		return "IMPROVED (fewer affected elements)"
	case riskDirectionWorsened:
		return "WORSENED (more affected elements)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
