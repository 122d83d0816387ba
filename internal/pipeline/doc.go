// Package pipeline runs axe results files through the report steps.
//
// Each results file becomes a model.Job that passes through the steps in
// order: loading, flattening with element screenshots, and storing the run
// in the history database. A BatchProcessor runs many jobs concurrently
// with errgroup while keeping results in input order. Every job opens its
// own page, so the screenshots of one page are always taken one at a time.
package pipeline
