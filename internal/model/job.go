package model

// Job tracks one results file through the report pipeline.
type Job struct {
	// Source is the path of the axe results file.
	Source string

	// Results is the decoded results file. Nil until loaded.
	Results *Results

	// Title is the scanned page's document title, when a page was opened.
	Title string

	// Slug is the page slug used in screenshot filenames.
	Slug string

	// Issues are the flattened violations.
	Issues []Issue

	// RunID is the history database ID of the stored run.
	RunID string

	// Steps lists the steps that completed.
	Steps []string

	// Cancelled is set when the context ended before every step ran.
	Cancelled bool

	// Err is the error of the first failed step.
	Err error
}

// NewJob creates a job for the results file at source.
func NewJob(source string) *Job {
	return &Job{Source: source}
}

// URL returns the scanned page URL, or the empty string before loading.
func (j *Job) URL() string {
	if j.Results == nil {
		return ""
	}
	return j.Results.URL
}

// Screenshots counts issues that carry a screenshot.
func (j *Job) Screenshots() int {
	n := 0
	for _, issue := range j.Issues {
		if issue.Screenshot != "" {
			n++
		}
	}
	return n
}

// Failed reports whether a step failed.
func (j *Job) Failed() bool {
	return j.Err != nil
}
