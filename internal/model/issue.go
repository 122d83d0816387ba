package model

// CategoryViolations is the only category the report flattens.
const CategoryViolations = "violations"

// ScanMetadata is the scan-wide context copied into every issue.
type ScanMetadata struct {
	Engine           string `json:"engine"`
	AxeVersion       string `json:"axeVersion"`
	UserAgent        string `json:"userAgent"`
	WindowWidth      int    `json:"windowWidth"`
	WindowHeight     int    `json:"windowHeight"`
	OrientationAngle *int   `json:"orientationAngle,omitempty"`
	OrientationType  string `json:"orientationType,omitempty"`
	Timestamp        string `json:"timestamp"`
	URL              string `json:"url"`
}

// RuleCategory describes the rule an issue belongs to.
type RuleCategory struct {
	Type        string `json:"type"`
	Rule        string `json:"rule"`
	Description string `json:"description"`
	Help        string `json:"help"`
	HelpURL     string `json:"helpUrl"`
}

// IssueProperties are the per-element fields of an issue.
type IssueProperties struct {
	Impact         Impact `json:"impact,omitempty"`
	Message        string `json:"message"`
	Target         string `json:"target,omitempty"`
	Parent         string `json:"parent,omitempty"`
	FailureSummary string `json:"failureSummary,omitempty"`
	Screenshot     string `json:"screenshot,omitempty"`
}

// Issue is one flattened report row: a single affected element of a single
// violated rule, carrying the scan and rule context with it.
type Issue struct {
	ScanMetadata
	RuleCategory
	IssueProperties
}

// Locator returns the selector used to find the element on the page.
// The related node is preferred because it is usually the more specific
// element.
func (i Issue) Locator() string {
	if i.Parent != "" {
		return i.Parent
	}
	return i.Target
}
