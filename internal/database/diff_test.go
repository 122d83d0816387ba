package database

import "testing"

func fingerprints(recs []IssueRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Fingerprint)
	}
	return out
}

func records(fps ...string) []IssueRecord {
	out := make([]IssueRecord, 0, len(fps))
	for i, fp := range fps {
		out = append(out, IssueRecord{Ordinal: i, Fingerprint: fp, Rule: "rule-" + fp})
	}
	return out
}

func TestDiffIssues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		older     []IssueRecord
		newer     []IssueRecord
		added     []string
		resolved  []string
		unchanged int
	}{
		{
			name:  "first run",
			newer: records("a", "b"),
			added: []string{"a", "b"},
		},
		{
			name:      "identical",
			older:     records("a", "b"),
			newer:     records("a", "b"),
			unchanged: 2,
		},
		{
			name:      "added and resolved",
			older:     records("a", "b", "c"),
			newer:     records("b", "d"),
			added:     []string{"d"},
			resolved:  []string{"a", "c"},
			unchanged: 1,
		},
		{
			name:      "duplicate fingerprints",
			older:     records("a"),
			newer:     records("a", "a"),
			added:     []string{"a"},
			unchanged: 1,
		},
		{
			name:      "duplicate resolved",
			older:     records("a", "a", "b"),
			newer:     records("a"),
			resolved:  []string{"a", "b"},
			unchanged: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := DiffIssues(tt.older, tt.newer)
			if got := fingerprints(d.Added); !equal(got, tt.added) {
				t.Errorf("Added = %v, want %v", got, tt.added)
			}
			if got := fingerprints(d.Resolved); !equal(got, tt.resolved) {
				t.Errorf("Resolved = %v, want %v", got, tt.resolved)
			}
			if d.Unchanged != tt.unchanged {
				t.Errorf("Unchanged = %d, want %d", d.Unchanged, tt.unchanged)
			}
		})
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
