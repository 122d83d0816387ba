// Package report turns axe-core results into flat issue reports.
//
// A Flattener walks the violations of a result set and produces one
// model.Issue per affected element, optionally screenshotting each element
// through a Screenshotter and announcing the outcome to an Attacher.
// Serializers render the issues as CSV, JSON, Markdown or SARIF, and the
// severity helpers count affected elements per impact for summaries.
package report
