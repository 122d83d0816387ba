// Package log provides slog loggers that mask secrets before they are
// written.
//
// Reports are built by replaying authenticated pages in a browser, so the
// values that pass through the logs include cookies, authorization headers
// and URLs with signed query strings. SecureHandler masks:
//   - attributes whose key names a secret (cookie, authorization, token, ...)
//   - string values shaped like credentials (JWTs, bearer and basic tokens)
//   - sensitive query parameters inside URL values
//   - sensitive entries of header maps
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("opening page",
//	    "url", "https://example.com/?token=abc", // https://example.com/?token=***REDACTED***
//	    "cookie", "session=abc123",              // ***REDACTED***
//	)
package log
