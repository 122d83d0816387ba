package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/a11yreport/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *ReportDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func newRun(url string, scannedAt time.Time) *Run {
	return &Run{
		URL:           url,
		Source:        "results/" + scannedAt.Format("150405") + ".json",
		ScannedAt:     scannedAt,
		Engine:        "axe-core",
		EngineVersion: "4.8.2",
		Serious:       2,
		Minor:         1,
	}
}

func sampleRecords() []IssueRecord {
	return []IssueRecord{
		{Fingerprint: "aaaa", Rule: "label", Impact: model.ImpactSerious, Target: "#email", Screenshot: "screenshots/1/violations/chromium/a.png"},
		{Fingerprint: "bbbb", Rule: "label", Impact: model.ImpactSerious, Target: "#name", Parent: "form"},
		{Fingerprint: "cccc", Rule: "region", Impact: model.ImpactMinor, Target: "footer"},
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")
		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected error to contain %q, got %q", "database not found", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		ctx := context.Background()
		id, err := db1.SaveRun(ctx, newRun("https://example.com/", time.Now()), sampleRecords())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()

		if _, err := db2.GetRun(ctx, id); err != nil {
			t.Errorf("expected run to persist: %v", err)
		}
	})
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

func TestSaveRun(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	scanned := time.Date(2024, 3, 1, 10, 20, 30, 456000000, time.UTC)
	run := newRun("https://example.com/contact", scanned)
	id, err := db.SaveRun(ctx, run, sampleRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" || run.ID != id {
		t.Fatalf("run ID not set: id=%q run.ID=%q", id, run.ID)
	}

	got, err := db.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.URL != run.URL || got.Source != run.Source {
		t.Errorf("got %+v", got)
	}
	if !got.ScannedAt.Equal(scanned) {
		t.Errorf("ScannedAt = %v, want %v", got.ScannedAt, scanned)
	}
	if got.Serious != 2 || got.Minor != 1 || got.IssueCount != 3 {
		t.Errorf("counts = %+v", got)
	}
	if got.EngineVersion != "4.8.2" {
		t.Errorf("EngineVersion = %q", got.EngineVersion)
	}

	issues, err := db.GetRunIssues(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(issues))
	}
	for i, issue := range issues {
		if issue.Ordinal != i {
			t.Errorf("issue %d has ordinal %d", i, issue.Ordinal)
		}
	}
	if issues[1].Parent != "form" || issues[0].Screenshot == "" {
		t.Errorf("issue fields not stored: %+v", issues)
	}
	if issues[2].Impact != model.ImpactMinor {
		t.Errorf("Impact = %q", issues[2].Impact)
	}
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	_, err := db.GetRun(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := range 3 {
		if _, err := db.SaveRun(ctx, newRun("https://example.com/", base.Add(time.Duration(i)*time.Hour)), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := db.SaveRun(ctx, newRun("https://example.org/", base), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("newest first", func(t *testing.T) {
		t.Parallel()

		runs, err := db.ListRuns(ctx, "https://example.com/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		for i := 1; i < len(runs); i++ {
			if runs[i].ScannedAt.After(runs[i-1].ScannedAt) {
				t.Errorf("runs not ordered newest first: %v", runs)
			}
		}
	})

	t.Run("latest limited", func(t *testing.T) {
		t.Parallel()

		runs, err := db.LatestRuns(ctx, "https://example.com/", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if !runs[0].ScannedAt.Equal(base.Add(2 * time.Hour)) {
			t.Errorf("latest run = %v", runs[0].ScannedAt)
		}
	})

	t.Run("urls", func(t *testing.T) {
		t.Parallel()

		urls, err := db.ListURLs(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://example.com/", "https://example.org/"}
		if strings.Join(urls, ",") != strings.Join(want, ",") {
			t.Errorf("ListURLs() = %v, want %v", urls, want)
		}
	})

	t.Run("unknown url", func(t *testing.T) {
		t.Parallel()

		runs, err := db.ListRuns(ctx, "https://unknown.example/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("expected no runs, got %d", len(runs))
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		zero bool
	}{
		{name: "stored scan time", in: "2024-03-01T10:20:30.456Z"},
		{name: "sqlite default", in: "2024-03-01 10:20:30"},
		{name: "rfc3339", in: "2024-03-01T10:20:30+09:00"},
		{name: "garbage", in: "yesterday", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.in)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v", tt.in, got)
			}
		})
	}
}
