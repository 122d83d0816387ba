package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/a11yreport/internal/model"
)

// ErrUnknownFormat is returned for an unsupported output format name.
var ErrUnknownFormat = errors.New("unknown report format")

// Format is an output format of the report.
type Format string

// Supported formats.
const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatSARIF    Format = "sarif"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatMarkdown, FormatSARIF:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q (want csv, json, markdown or sarif)", ErrUnknownFormat, s)
	}
}

// Extension returns the usual file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatMarkdown:
		return ".md"
	case FormatSARIF:
		return ".sarif"
	default:
		return ".csv"
	}
}

// Serializer renders a flat issue list as text.
type Serializer interface {
	// Marshal renders issues. header asks for a header row where the
	// format has one.
	Marshal(issues []model.Issue, header bool) (string, error)

	// ContentType is the MIME type of the rendered text.
	ContentType() string
}

// NewSerializer returns the serializer for a format.
func NewSerializer(f Format) (Serializer, error) {
	switch f {
	case FormatCSV:
		return NewCSVSerializer(), nil
	case FormatJSON:
		return NewJSONSerializer(), nil
	case FormatMarkdown:
		return NewMarkdownSerializer(), nil
	case FormatSARIF:
		return NewSARIFSerializer(""), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Serialize hands issues to s and returns its text terminated by exactly
// one newline. Serializer errors are returned unchanged.
func Serialize(s Serializer, issues []model.Issue, header bool) (string, error) {
	text, err := s.Marshal(issues, header)
	if err != nil {
		return "", err
	}
	// encoding/csv already ends its output with a newline; trim it so
	// exactly one remains for every format.
	return strings.TrimSuffix(text, "\n") + "\n", nil
}
