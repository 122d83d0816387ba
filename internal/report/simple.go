package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nao1215/a11yreport/internal/model"
)

// SimpleWriter writes human-readable severity summaries for terminals.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether pages without violations are listed.
	showEmpty bool

	// renderer colors severity indicators when output is a terminal.
	renderer *lipgloss.Renderer
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to list clean pages too.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  true,
		renderer:   lipgloss.NewRenderer(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteSummaries implements SummaryWriter.
func (w *SimpleWriter) WriteSummaries(pages []PageSummary) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      ACCESSIBILITY SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	var total Summary
	for _, p := range pages {
		total.Add(p.Elements)
		if p.Elements.Total() == 0 && !w.showEmpty {
			continue
		}
		w.writePage(&sb, p)
	}

	if len(pages) > 1 {
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("ALL PAGES (%d)\n", len(pages)))
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		w.writeCounts(&sb, total)
	}

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writePage(sb *strings.Builder, p PageSummary) {
	sb.WriteString(fmt.Sprintf("URL:        %s\n", p.URL))
	sb.WriteString(fmt.Sprintf("Scanned:    %s\n", p.Timestamp))
	sb.WriteString(fmt.Sprintf("Rules:      %d violated, %d passed, %d incomplete\n", p.Violations, p.Passes, p.Incomplete))
	sb.WriteString("\n")
	w.writeCounts(sb, p.Elements)
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, s Summary) {
	for _, impact := range model.Impacts() {
		indicator := w.impactStyle(impact).Render(fmt.Sprintf("[%-3s]", severityIndicator(impact)))
		sb.WriteString(fmt.Sprintf("  %s %-9s %d\n", indicator, strings.ToUpper(impact.String())+":", s.Count(impact)))
	}
	sb.WriteString(fmt.Sprintf("        TOTAL:    %d elements\n", s.Total()))
	sb.WriteString("\n")
}

// severityIndicator returns a visual indicator for an impact.
func severityIndicator(impact model.Impact) string {
	switch impact {
	case model.ImpactCritical:
		return "!!!"
	case model.ImpactSerious:
		return "!!"
	case model.ImpactModerate:
		return "!"
	case model.ImpactMinor:
		return "-"
	default:
		return "?"
	}
}

// impactStyle returns the indicator style for an impact. Plain writers
// such as files and buffers get no escape sequences.
func (w *SimpleWriter) impactStyle(impact model.Impact) lipgloss.Style {
	style := w.renderer.NewStyle()
	switch impact {
	case model.ImpactCritical:
		return style.Foreground(lipgloss.Color("196"))
	case model.ImpactSerious:
		return style.Foreground(lipgloss.Color("208"))
	case model.ImpactModerate:
		return style.Foreground(lipgloss.Color("220"))
	case model.ImpactMinor:
		return style.Foreground(lipgloss.Color("245"))
	default:
		return style
	}
}
