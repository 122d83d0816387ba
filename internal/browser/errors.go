package browser

import "errors"

var (
	// ErrEmptyLocator is returned when asked to capture an element without a
	// locator.
	ErrEmptyLocator = errors.New("element locator is empty")

	// ErrElementTimeout is returned when an element does not become visible
	// within the element timeout.
	ErrElementTimeout = errors.New("timed out waiting for element")

	// ErrEmptyScreenshot is returned when the browser returns no image data.
	ErrEmptyScreenshot = errors.New("browser returned an empty screenshot")

	// ErrNoURL is returned when a page is opened without a URL.
	ErrNoURL = errors.New("page URL is empty")
)
