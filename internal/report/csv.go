package report

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/a11yreport/internal/model"
)

// csvColumns is the column order of the CSV export: scan metadata, rule
// context, then the per-element fields.
var csvColumns = []string{
	"engine",
	"axeVersion",
	"userAgent",
	"windowWidth",
	"windowHeight",
	"orientationAngle",
	"orientationType",
	"timestamp",
	"url",
	"type",
	"rule",
	"description",
	"help",
	"helpUrl",
	"impact",
	"message",
	"target",
	"parent",
	"failureSummary",
	"screenshot",
}

// CSVSerializer renders issues as RFC 4180 CSV with one row per issue.
type CSVSerializer struct {
	comma            rune
	sanitizeFormulas bool
}

// CSVOption configures a CSVSerializer.
type CSVOption func(*CSVSerializer)

// WithDelimiter sets the field delimiter.
func WithDelimiter(r rune) CSVOption {
	return func(s *CSVSerializer) {
		if r != 0 {
			s.comma = r
		}
	}
}

// WithFormulaSanitizing prefixes cells that a spreadsheet would evaluate
// (=, +, -, @) with a single quote.
func WithFormulaSanitizing(on bool) CSVOption {
	return func(s *CSVSerializer) {
		s.sanitizeFormulas = on
	}
}

// NewCSVSerializer creates a CSV serializer.
func NewCSVSerializer(opts ...CSVOption) *CSVSerializer {
	s := &CSVSerializer{comma: ','}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ContentType implements Serializer.
func (s *CSVSerializer) ContentType() string {
	return ContentTypeCSV
}

// Marshal implements Serializer.
func (s *CSVSerializer) Marshal(issues []model.Issue, header bool) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Comma = s.comma

	if header {
		if err := w.Write(csvColumns); err != nil {
			return "", fmt.Errorf("failed to write csv header: %w", err)
		}
	}
	for i, issue := range issues {
		if err := w.Write(s.row(issue)); err != nil {
			return "", fmt.Errorf("failed to write csv row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return sb.String(), nil
}

func (s *CSVSerializer) row(i model.Issue) []string {
	angle := ""
	if i.OrientationAngle != nil {
		angle = strconv.Itoa(*i.OrientationAngle)
	}

	row := []string{
		i.Engine,
		i.AxeVersion,
		i.UserAgent,
		strconv.Itoa(i.WindowWidth),
		strconv.Itoa(i.WindowHeight),
		angle,
		i.OrientationType,
		i.Timestamp,
		i.URL,
		i.Type,
		i.Rule,
		i.Description,
		i.Help,
		i.HelpURL,
		string(i.Impact),
		i.Message,
		i.Target,
		i.Parent,
		i.FailureSummary,
		i.Screenshot,
	}
	if s.sanitizeFormulas {
		for k, v := range row {
			row[k] = sanitizeFormula(v)
		}
	}
	return row
}

func sanitizeFormula(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}
