// Package model defines the data structures shared by a11yreport.
//
// Results mirrors the JSON object produced by an axe-core scan. Issue is
// the flattened unit of output: one affected element of one violated rule,
// carrying the scan metadata, the rule it belongs to and its own
// properties. Job tracks one results file as it moves through the report
// pipeline.
package model
