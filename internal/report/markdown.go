package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/a11yreport/internal/model"
)

// MarkdownSerializer renders issues as a Markdown report grouped by rule.
// The header flag controls the page and severity summary preamble.
type MarkdownSerializer struct{}

// NewMarkdownSerializer creates a MarkdownSerializer.
func NewMarkdownSerializer() *MarkdownSerializer {
	return &MarkdownSerializer{}
}

// ContentType implements Serializer.
func (s *MarkdownSerializer) ContentType() string {
	return ContentTypeMarkdown
}

// Marshal implements Serializer.
func (s *MarkdownSerializer) Marshal(issues []model.Issue, header bool) (string, error) {
	var sb strings.Builder
	md := markdown.NewMarkdown(&sb)

	if header {
		md.H1("Accessibility Report")
		md.PlainText("")
		writePages(md, issues)
		writeSeverity(md, SummarizeIssues(issues))
	}
	writeRules(md, issues)
	writeFooter(md)

	if err := md.Build(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// writePages writes one row per scanned page found in issues.
func writePages(md *markdown.Markdown, issues []model.Issue) {
	rows := [][]string{}
	seen := map[string]bool{}
	for _, i := range issues {
		key := i.URL + "\x00" + i.Timestamp
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, []string{
			"`" + escapeCell(i.URL) + "`",
			i.Timestamp,
			i.Engine + " " + i.AxeVersion,
		})
	}
	if len(rows) == 0 {
		return
	}

	md.H2("Pages")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Scanned", "Engine"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSeverity writes the severity table, chart and alert.
func writeSeverity(md *markdown.Markdown, s Summary) {
	md.H2("Severity Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Impact", "Elements"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(s.Critical)},
			{"🟠 Serious", strconv.Itoa(s.Serious)},
			{"🟡 Moderate", strconv.Itoa(s.Moderate)},
			{"🔵 Minor", strconv.Itoa(s.Minor)},
			{"**Total**", "**" + strconv.Itoa(s.Total()) + "**"},
		},
	})
	md.PlainText("")

	if s.Total() > 0 {
		writePieChart(md, s)
	}
	writeAlert(md, s)
}

func writePieChart(md *markdown.Markdown, s Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Affected Elements by Impact"),
		piechart.WithShowData(true),
	)
	for _, impact := range model.Impacts() {
		if n := s.Count(impact); n > 0 {
			chart.LabelAndIntValue(impact.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func writeAlert(md *markdown.Markdown, s Summary) {
	switch s.Worst() {
	case model.ImpactCritical:
		md.Cautionf("%d element(s) have critical accessibility violations and block some users entirely.", s.Critical)
	case model.ImpactSerious:
		md.Warningf("%d element(s) have serious accessibility violations.", s.Serious)
	case model.ImpactModerate:
		md.Importantf("%d element(s) have moderate accessibility violations.", s.Moderate)
	case model.ImpactMinor:
		md.Note("Only minor accessibility violations detected.")
	default:
		md.Tip("No accessibility violations detected.")
	}
	md.PlainText("")
}

// writeRules writes one section per rule in first-seen order.
func writeRules(md *markdown.Markdown, issues []model.Issue) {
	md.H2("Violations")
	md.PlainText("")

	if len(issues) == 0 {
		md.PlainText("No accessibility violations detected.")
		md.PlainText("")
		return
	}

	var order []string
	byRule := map[string][]model.Issue{}
	for _, i := range issues {
		if _, ok := byRule[i.Rule]; !ok {
			order = append(order, i.Rule)
		}
		byRule[i.Rule] = append(byRule[i.Rule], i)
	}

	for _, rule := range order {
		group := byRule[rule]
		first := group[0]

		md.PlainText("### " + rule)
		md.PlainText("")
		if first.Help != "" {
			md.PlainTextf("%s ([rule documentation](%s))", first.Help, first.HelpURL)
			md.PlainText("")
		}

		rows := make([][]string, len(group))
		for n, i := range group {
			rows[n] = []string{
				i.Impact.Label(),
				"`" + escapeCell(truncateString(i.Target, 60)) + "`",
				cellOrDash(truncateString(i.Parent, 40)),
				cellOrDash(truncateString(i.Message, 80)),
				cellOrDash(i.Screenshot),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Impact", "Target", "Parent", "Message", "Screenshot"},
			Rows:   rows,
		})
		md.PlainText("")

		if first.Description != "" {
			md.Details(rule, first.Description)
			md.PlainText("")
		}
	}
}

func writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [a11yreport](https://github.com/nao1215/a11yreport)*")
}

func cellOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return escapeCell(s)
}

// escapeCell keeps table cells on one line and out of the column syntax.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.NewReplacer("\r\n", " ", "\n", " ").Replace(s)
}

// truncateString truncates s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// MarkdownWriter writes per-page severity summaries as Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteSummaries implements SummaryWriter.
func (w *MarkdownWriter) WriteSummaries(pages []PageSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Accessibility Summary")
	md.PlainText("")

	var total Summary
	rows := make([][]string, len(pages))
	for i, p := range pages {
		total.Add(p.Elements)
		rows[i] = []string{
			"`" + escapeCell(p.URL) + "`",
			strconv.Itoa(p.Violations),
			strconv.Itoa(p.Elements.Critical),
			strconv.Itoa(p.Elements.Serious),
			strconv.Itoa(p.Elements.Moderate),
			strconv.Itoa(p.Elements.Minor),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Rules", "Critical", "Serious", "Moderate", "Minor"},
		Rows:   rows,
	})
	md.PlainText("")

	writeSeverity(md, total)
	writeFooter(md)

	return len(md.String()), md.Build()
}
