package report

import (
	"io"

	"github.com/nao1215/a11yreport/internal/model"
)

// Writer writes a flat issue list to a destination.
type Writer interface {
	// Write serializes issues and writes them out, returning the number of
	// bytes written.
	Write(issues []model.Issue) (int, error)
}

// SummaryWriter writes per-page severity summaries.
type SummaryWriter interface {
	WriteSummaries(pages []PageSummary) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// IssueWriter writes issues through a Serializer.
type IssueWriter struct {
	baseWriter
	serializer Serializer
	header     bool
}

// NewIssueWriter creates an IssueWriter around s.
func NewIssueWriter(output io.Writer, s Serializer, header bool) *IssueWriter {
	return &IssueWriter{
		baseWriter: newBaseWriter(output),
		serializer: s,
		header:     header,
	}
}

// Write implements Writer. An empty issue list writes nothing for formats
// with a header row turned off, matching what Generate returns for a clean
// page.
func (w *IssueWriter) Write(issues []model.Issue) (int, error) {
	if len(issues) == 0 && !w.header {
		return 0, nil
	}
	text, err := Serialize(w.serializer, issues, w.header)
	if err != nil {
		return 0, err
	}
	return io.WriteString(w.output, text)
}
