package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ErrMissingTimestamp is returned when a result set has no scan timestamp.
var ErrMissingTimestamp = errors.New("axe results have no timestamp")

// Results is the result object produced by one axe-core run against a page.
// Only the fields consumed by the report are modelled; unknown keys are
// ignored when decoding.
type Results struct {
	// TestEngine identifies the accessibility engine.
	TestEngine TestEngine `json:"testEngine"`

	// TestEnvironment describes the browser the page was rendered in.
	TestEnvironment TestEnvironment `json:"testEnvironment"`

	// Timestamp is the ISO-8601 time the scan finished.
	Timestamp string `json:"timestamp"`

	// URL is the address of the scanned page.
	URL string `json:"url"`

	// Violations are the rules that failed, in engine order.
	Violations []Violation `json:"violations"`

	// Passes, Incomplete and Inapplicable are kept for summary counts only.
	// They are never flattened into issues.
	Passes       []Violation `json:"passes,omitempty"`
	Incomplete   []Violation `json:"incomplete,omitempty"`
	Inapplicable []Violation `json:"inapplicable,omitempty"`
}

// TestEngine is the name and version of the scanning engine.
type TestEngine struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// TestEnvironment is the browser context of a scan.
type TestEnvironment struct {
	UserAgent        string `json:"userAgent"`
	WindowWidth      int    `json:"windowWidth"`
	WindowHeight     int    `json:"windowHeight"`
	OrientationAngle *int   `json:"orientationAngle,omitempty"`
	OrientationType  string `json:"orientationType,omitempty"`
}

// Violation is one rule with the page elements it matched.
type Violation struct {
	ID          string   `json:"id"`
	Impact      Impact   `json:"impact,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description"`
	Help        string   `json:"help"`
	HelpURL     string   `json:"helpUrl"`
	Nodes       []Node   `json:"nodes"`
}

// Node is one affected element.
type Node struct {
	Impact         Impact        `json:"impact,omitempty"`
	HTML           string        `json:"html,omitempty"`
	Target         []string      `json:"target"`
	Any            []CheckResult `json:"any"`
	All            []CheckResult `json:"all,omitempty"`
	None           []CheckResult `json:"none,omitempty"`
	FailureSummary string        `json:"failureSummary,omitempty"`
}

// CheckResult is one check a node failed.
type CheckResult struct {
	ID           string        `json:"id,omitempty"`
	Impact       Impact        `json:"impact,omitempty"`
	Message      string        `json:"message"`
	RelatedNodes []RelatedNode `json:"relatedNodes,omitempty"`
}

// RelatedNode is an element a check points to as context, for example the
// label of an unlabeled input.
type RelatedNode struct {
	HTML   string   `json:"html,omitempty"`
	Target []string `json:"target"`
}

// ParseResults decodes an axe result object.
func ParseResults(r io.Reader) (*Results, error) {
	var res Results
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode axe results: %w", err)
	}
	return &res, nil
}

// LoadResults reads and decodes an axe result file.
func LoadResults(path string) (*Results, error) {
	f, err := os.Open(path) //nolint:gosec // results path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	res, err := ParseResults(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// ScanTime parses the scan timestamp.
func (r *Results) ScanTime() (time.Time, error) {
	if r.Timestamp == "" {
		return time.Time{}, ErrMissingTimestamp
	}
	t, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scan timestamp %q: %w", r.Timestamp, err)
	}
	return t, nil
}

// NodeCount returns the number of affected elements across all violations.
func (r *Results) NodeCount() int {
	n := 0
	for _, v := range r.Violations {
		n += len(v.Nodes)
	}
	return n
}

// HasViolations reports whether any rule failed.
func (r *Results) HasViolations() bool {
	return len(r.Violations) > 0
}
