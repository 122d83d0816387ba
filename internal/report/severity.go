package report

import "github.com/nao1215/a11yreport/internal/model"

// CountBySeverity returns how many affected elements belong to violations
// whose impact equals severity.
func CountBySeverity(res *model.Results, severity model.Impact) int {
	total := 0
	for _, v := range res.Violations {
		if v.Impact == severity {
			total += len(v.Nodes)
		}
	}
	return total
}

// Summary holds element counts per impact.
type Summary struct {
	Critical int `json:"critical"`
	Serious  int `json:"serious"`
	Moderate int `json:"moderate"`
	Minor    int `json:"minor"`
}

// Summarize counts affected elements per violation impact.
func Summarize(res *model.Results) Summary {
	return Summary{
		Critical: CountBySeverity(res, model.ImpactCritical),
		Serious:  CountBySeverity(res, model.ImpactSerious),
		Moderate: CountBySeverity(res, model.ImpactModerate),
		Minor:    CountBySeverity(res, model.ImpactMinor),
	}
}

// SummarizeIssues counts flattened issues per node impact.
func SummarizeIssues(issues []model.Issue) Summary {
	var s Summary
	for _, i := range issues {
		s.add(i.Impact, 1)
	}
	return s
}

// Add merges another summary into s.
func (s *Summary) Add(o Summary) {
	s.Critical += o.Critical
	s.Serious += o.Serious
	s.Moderate += o.Moderate
	s.Minor += o.Minor
}

func (s *Summary) add(impact model.Impact, n int) {
	switch impact {
	case model.ImpactCritical:
		s.Critical += n
	case model.ImpactSerious:
		s.Serious += n
	case model.ImpactModerate:
		s.Moderate += n
	case model.ImpactMinor:
		s.Minor += n
	}
}

// Count returns the count for one impact.
func (s Summary) Count(impact model.Impact) int {
	switch impact {
	case model.ImpactCritical:
		return s.Critical
	case model.ImpactSerious:
		return s.Serious
	case model.ImpactModerate:
		return s.Moderate
	case model.ImpactMinor:
		return s.Minor
	default:
		return 0
	}
}

// Total returns the sum over all impacts.
func (s Summary) Total() int {
	return s.Critical + s.Serious + s.Moderate + s.Minor
}

// Worst returns the most severe impact with a non-zero count, or "" when
// everything is zero.
func (s Summary) Worst() model.Impact {
	for _, impact := range model.Impacts() {
		if s.Count(impact) > 0 {
			return impact
		}
	}
	return ""
}

// PageSummary is the severity breakdown of one results file.
type PageSummary struct {
	URL        string  `json:"url"`
	Timestamp  string  `json:"timestamp"`
	Violations int     `json:"violations"`
	Passes     int     `json:"passes"`
	Incomplete int     `json:"incomplete"`
	Elements   Summary `json:"elements"`
}

// SummarizePage builds the PageSummary of res.
func SummarizePage(res *model.Results) PageSummary {
	return PageSummary{
		URL:        res.URL,
		Timestamp:  res.Timestamp,
		Violations: len(res.Violations),
		Passes:     len(res.Passes),
		Incomplete: len(res.Incomplete),
		Elements:   Summarize(res),
	}
}
