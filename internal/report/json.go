package report

import (
	"encoding/json"
	"fmt"

	"github.com/nao1215/a11yreport/internal/model"
)

// JSONSerializer renders issues as a JSON array.
type JSONSerializer struct {
	indent string
}

// JSONOption configures a JSONSerializer.
type JSONOption func(*JSONSerializer)

// WithIndent sets the indentation string; empty means compact output.
func WithIndent(indent string) JSONOption {
	return func(s *JSONSerializer) {
		s.indent = indent
	}
}

// NewJSONSerializer creates a JSON serializer with two-space indentation.
func NewJSONSerializer(opts ...JSONOption) *JSONSerializer {
	s := &JSONSerializer{indent: "  "}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ContentType implements Serializer.
func (s *JSONSerializer) ContentType() string {
	return ContentTypeJSON
}

// Marshal implements Serializer. JSON has no header row, so header is
// ignored.
func (s *JSONSerializer) Marshal(issues []model.Issue, _ bool) (string, error) {
	if issues == nil {
		issues = []model.Issue{}
	}

	var (
		data []byte
		err  error
	)
	if s.indent != "" {
		data, err = json.MarshalIndent(issues, "", s.indent)
	} else {
		data, err = json.Marshal(issues)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode issues: %w", err)
	}
	return string(data), nil
}
