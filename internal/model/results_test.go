package model

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleResults = `{
  "testEngine": {"name": "axe-core", "version": "4.8.2"},
  "testEnvironment": {
    "userAgent": "Mozilla/5.0 HeadlessChrome",
    "windowWidth": 1280,
    "windowHeight": 720,
    "orientationAngle": 0,
    "orientationType": "landscape-primary"
  },
  "timestamp": "2024-03-01T10:20:30.456Z",
  "url": "http://localhost:3000/",
  "violations": [
    {
      "id": "label",
      "impact": "critical",
      "description": "Ensures every form element has a label",
      "help": "Form elements must have labels",
      "helpUrl": "https://dequeuniversity.com/rules/axe/4.8/label",
      "nodes": [
        {
          "impact": "critical",
          "target": ["#email"],
          "any": [{"id": "aria-label", "message": "aria-label attribute does not exist or is empty", "relatedNodes": [{"target": ["label.email"]}]}],
          "failureSummary": "Fix any of the following"
        }
      ]
    }
  ],
  "passes": [],
  "unknownKey": true
}`

// TestParseResults tests decoding of an axe result object.
func TestParseResults(t *testing.T) {
	t.Parallel()

	t.Run("decodes engine, environment and violations", func(t *testing.T) {
		t.Parallel()

		res, err := ParseResults(strings.NewReader(sampleResults))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if res.TestEngine.Name != "axe-core" || res.TestEngine.Version != "4.8.2" {
			t.Errorf("unexpected engine: %+v", res.TestEngine)
		}
		if res.TestEnvironment.WindowWidth != 1280 {
			t.Errorf("expected window width 1280, got %d", res.TestEnvironment.WindowWidth)
		}
		if res.TestEnvironment.OrientationAngle == nil || *res.TestEnvironment.OrientationAngle != 0 {
			t.Errorf("expected orientation angle 0, got %v", res.TestEnvironment.OrientationAngle)
		}
		if len(res.Violations) != 1 {
			t.Fatalf("expected 1 violation, got %d", len(res.Violations))
		}
		v := res.Violations[0]
		if v.Impact != ImpactCritical {
			t.Errorf("expected critical impact, got %q", v.Impact)
		}
		if got := v.Nodes[0].Any[0].RelatedNodes[0].Target[0]; got != "label.email" {
			t.Errorf("expected related target label.email, got %q", got)
		}
	})

	t.Run("returns error for invalid json", func(t *testing.T) {
		t.Parallel()

		_, err := ParseResults(strings.NewReader("{not json"))
		if err == nil {
			t.Fatal("expected error for invalid json")
		}
	})

	t.Run("missing orientation stays nil", func(t *testing.T) {
		t.Parallel()

		res, err := ParseResults(strings.NewReader(`{"violations": []}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.TestEnvironment.OrientationAngle != nil {
			t.Error("expected nil orientation angle")
		}
		if res.HasViolations() {
			t.Error("expected no violations")
		}
	})
}

// TestLoadResults tests reading results from disk.
func TestLoadResults(t *testing.T) {
	t.Parallel()

	t.Run("loads file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "results.json")
		if err := os.WriteFile(path, []byte(sampleResults), 0600); err != nil {
			t.Fatal(err)
		}

		res, err := LoadResults(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.URL != "http://localhost:3000/" {
			t.Errorf("unexpected url %q", res.URL)
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		t.Parallel()

		_, err := LoadResults(filepath.Join(t.TempDir(), "missing.json"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("error names the file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "broken.json")
		if err := os.WriteFile(path, []byte("]"), 0600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadResults(path)
		if err == nil || !strings.Contains(err.Error(), "broken.json") {
			t.Errorf("expected error mentioning file name, got %v", err)
		}
	})
}

// TestResultsScanTime tests timestamp parsing.
func TestResultsScanTime(t *testing.T) {
	t.Parallel()

	t.Run("parses milliseconds", func(t *testing.T) {
		t.Parallel()

		res := &Results{Timestamp: "2024-03-01T10:20:30.456Z"}
		ts, err := res.ScanTime()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ts.UnixMilli() != 1709288430456 {
			t.Errorf("expected 1709288430456, got %d", ts.UnixMilli())
		}
	})

	t.Run("empty timestamp", func(t *testing.T) {
		t.Parallel()

		_, err := (&Results{}).ScanTime()
		if !errors.Is(err, ErrMissingTimestamp) {
			t.Errorf("expected ErrMissingTimestamp, got %v", err)
		}
	})

	t.Run("garbage timestamp", func(t *testing.T) {
		t.Parallel()

		_, err := (&Results{Timestamp: "yesterday"}).ScanTime()
		if err == nil {
			t.Error("expected error")
		}
	})
}

// TestResultsNodeCount tests the node total.
func TestResultsNodeCount(t *testing.T) {
	t.Parallel()

	res := &Results{Violations: []Violation{
		{ID: "a", Nodes: make([]Node, 2)},
		{ID: "b", Nodes: make([]Node, 3)},
	}}
	if got := res.NodeCount(); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}
