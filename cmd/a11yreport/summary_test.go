package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func runSummaryArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout bytes.Buffer
	cmd := NewSummaryCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRunSummaryCmd(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		contact := writeResultsFile(t, dir, "contact.json", contactResults)
		clean := writeResultsFile(t, dir, "clean.json", cleanResults)

		out, err := runSummaryArgs(t, contact, clean)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"ACCESSIBILITY SUMMARY",
			"https://example.com/contact",
			"https://example.com/",
			"SERIOUS:  2",
			"MINOR:    1",
			"ALL PAGES (2)",
			"TOTAL:    3 elements",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("hide clean pages", func(t *testing.T) {
		t.Parallel()

		clean := writeResultsFile(t, t.TempDir(), "clean.json", cleanResults)
		out, err := runSummaryArgs(t, "--hide-clean", clean)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(out, "URL:") {
			t.Errorf("expected clean page to be hidden, got:\n%s", out)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()

		contact := writeResultsFile(t, t.TempDir(), "contact.json", contactResults)
		out, err := runSummaryArgs(t, "--markdown", contact)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "# Accessibility Summary") {
			t.Errorf("expected markdown heading, got:\n%s", out)
		}
		if !strings.Contains(out, "`https://example.com/contact`") {
			t.Errorf("expected page row, got:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		first := writeResultsFile(t, dir, "a.json", contactResults)
		second := writeResultsFile(t, dir, "b.json", contactResults)

		out, err := runSummaryArgs(t, "--json", first, second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got summaryJSON
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(got.Pages) != 2 {
			t.Fatalf("expected 2 pages, got %d", len(got.Pages))
		}
		if got.Pages[0].Passes != 1 {
			t.Errorf("expected 1 passed rule, got %d", got.Pages[0].Passes)
		}
		if got.Total.Serious != 4 || got.Total.Minor != 2 {
			t.Errorf("unexpected total: %+v", got.Total)
		}
	})

	t.Run("json and markdown are exclusive", func(t *testing.T) {
		t.Parallel()

		contact := writeResultsFile(t, t.TempDir(), "contact.json", contactResults)
		if _, err := runSummaryArgs(t, "--json", "--markdown", contact); err == nil {
			t.Fatal("expected error for mutually exclusive flags")
		}
	})

	t.Run("no arguments", func(t *testing.T) {
		t.Parallel()

		_, err := runSummaryArgs(t)
		if err == nil {
			t.Fatal("expected error without results files")
		}
		if !strings.Contains(err.Error(), "no results files provided") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
