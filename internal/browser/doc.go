// Package browser drives a headless Chrome through chromedp to capture
// screenshots of individual page elements.
//
// A Session owns one browser process. Each Page is a tab navigated to a
// scanned URL; its ScreenshotElement method satisfies report.Screenshotter.
// Pages of one Session may be used concurrently, but a single Page must be
// used by one goroutine at a time.
package browser
