package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when no results file is given.
	ErrNoTarget = errors.New("no target specified: provide at least one axe results file")

	// ErrInvalidFormat is returned for an unknown report format.
	ErrInvalidFormat = errors.New("invalid format: must be csv, json, markdown or sarif")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidDelimiter is returned when the CSV delimiter is not a single
	// usable character.
	ErrInvalidDelimiter = errors.New("invalid delimiter: must be one character other than a quote or line break, or \"tab\"")

	// ErrInvalidElementTimeout is returned when the element timeout is not
	// positive.
	ErrInvalidElementTimeout = errors.New("invalid element timeout: must be positive")

	// ErrInvalidPageTimeout is returned when the page timeout is not positive.
	ErrInvalidPageTimeout = errors.New("invalid page timeout: must be positive")

	// ErrEmptyScreenshotDir is returned when screenshots are on but have no
	// directory.
	ErrEmptyScreenshotDir = errors.New("screenshot directory must not be empty")

	// ErrInvalidBrowserName is returned when the browser name is empty or
	// would add path segments.
	ErrInvalidBrowserName = errors.New("invalid browser name: must be a single path segment")

	// ErrNoDBDir is returned when history is enabled without a directory.
	ErrNoDBDir = errors.New("history is enabled but no database directory is set")
)
