package database

import "slices"

// Diff is the change between two runs of the same URL.
type Diff struct {
	// Added are issues of the newer run missing from the older one.
	Added []IssueRecord
	// Resolved are issues of the older run missing from the newer one.
	Resolved []IssueRecord
	// Unchanged counts issues present in both.
	Unchanged int
}

// DiffIssues compares two runs by issue fingerprint. Duplicated
// fingerprints are matched one to one, so a rule that now fails on two
// identical elements instead of one reports one added issue.
func DiffIssues(older, newer []IssueRecord) Diff {
	remaining := make(map[string]int, len(older))
	for _, issue := range older {
		remaining[issue.Fingerprint]++
	}

	var d Diff
	for _, issue := range newer {
		if remaining[issue.Fingerprint] > 0 {
			remaining[issue.Fingerprint]--
			d.Unchanged++
			continue
		}
		d.Added = append(d.Added, issue)
	}

	for i := len(older) - 1; i >= 0; i-- {
		fp := older[i].Fingerprint
		if remaining[fp] > 0 {
			remaining[fp]--
			d.Resolved = append(d.Resolved, older[i])
		}
	}
	slices.Reverse(d.Resolved)
	return d
}
