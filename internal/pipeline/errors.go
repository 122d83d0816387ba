package pipeline

import "errors"

// ErrNotLoaded is returned by steps that need the results file when the
// load step has not run.
var ErrNotLoaded = errors.New("results not loaded")
