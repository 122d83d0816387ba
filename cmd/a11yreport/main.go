// Package main provides the entry point for the a11yreport CLI.
//
// a11yreport turns axe-core accessibility results into flat issue reports
// (CSV, JSON, Markdown or SARIF), capturing a screenshot of every affected
// element with headless Chrome.
//
// Usage:
//
//	a11yreport report results.json
//	a11yreport summary results/*.json
//	a11yreport compare https://example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}
