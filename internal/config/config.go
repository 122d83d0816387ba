package config

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "a11yreport"

	// DefaultFormat is the report format used when none is given.
	DefaultFormat = "csv"

	// DefaultScreenshotDir is the root directory for element screenshots.
	DefaultScreenshotDir = "screenshots"

	// DefaultBrowserName is the browser segment of screenshot paths.
	DefaultBrowserName = "chromium"

	// DefaultElementTimeout bounds the wait for one element screenshot.
	// axe reports elements that may be hidden or detached, so a missing
	// element must fail quickly instead of stalling the report.
	DefaultElementTimeout = 5 * time.Second

	// DefaultPageTimeout bounds navigation to a scanned page.
	DefaultPageTimeout = 30 * time.Second

	// DefaultBatchSize is the number of results files processed at once.
	// Each file gets its own browser tab.
	DefaultBatchSize = 4
)

// formats lists the accepted values of Config.Format.
var formats = []string{"csv", "json", "markdown", "md", "sarif"}

// Config holds all options of a report run. It is populated from CLI
// flags and passed down explicitly.
type Config struct {
	// Targets are the axe results files to report on.
	Targets []string

	// Format is the output format: csv, json, markdown or sarif.
	Format string

	// ReportFile is the output path. Empty writes to stdout.
	ReportFile string

	// Header controls the header row of tabular formats.
	Header bool

	// Screenshots enables element screenshots through a headless browser.
	Screenshots bool

	// ScreenshotDir is the root directory for screenshots.
	ScreenshotDir string

	// BrowserName is the browser segment of screenshot paths.
	BrowserName string

	// ChromePath is the Chrome or Chromium binary. Empty searches PATH.
	ChromePath string

	// NoSandbox disables the Chrome sandbox.
	NoSandbox bool

	// ProxyServer routes browser traffic through a proxy.
	ProxyServer string

	// Slug names screenshot files of pages whose config file entry sets no
	// slug. Empty derives it from the page title.
	Slug string

	// ArtifactsDir receives attachment bodies and attachments.json.
	// Empty disables attachment persistence.
	ArtifactsDir string

	// SanitizeFormulas escapes CSV cells a spreadsheet would evaluate.
	SanitizeFormulas bool

	// Delimiter is the CSV field separator: one character, or "tab".
	// Empty means a comma.
	Delimiter string

	// Compact writes JSON reports without indentation.
	Compact bool

	// ElementTimeout bounds each element screenshot.
	ElementTimeout time.Duration

	// PageTimeout bounds navigation to each scanned page.
	PageTimeout time.Duration

	// BatchSize is the number of results files processed concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file. Empty searches
	// for .a11yreport in the current and home directories.
	ConfigFilePath string

	// PageConfigs holds per-page settings loaded from the config file.
	PageConfigs *File

	// DBDir is the directory of the history database.
	DBDir string

	// SaveToDB stores every run in the history database.
	SaveToDB bool

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Format:         DefaultFormat,
		Header:         true,
		Screenshots:    true,
		ScreenshotDir:  DefaultScreenshotDir,
		BrowserName:    DefaultBrowserName,
		NoSandbox:      true,
		ElementTimeout: DefaultElementTimeout,
		PageTimeout:    DefaultPageTimeout,
		BatchSize:      DefaultBatchSize,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
	}
}

// XDGDataDir returns the XDG data directory for a11yreport.
// On Linux: ~/.local/share/a11yreport
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for a11yreport.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for a11yreport.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if !slices.Contains(formats, strings.ToLower(c.Format)) {
		return ErrInvalidFormat
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if _, ok := c.comma(); !ok {
		return ErrInvalidDelimiter
	}
	if c.Screenshots {
		if c.ElementTimeout <= 0 {
			return ErrInvalidElementTimeout
		}
		if c.PageTimeout <= 0 {
			return ErrInvalidPageTimeout
		}
		if c.ScreenshotDir == "" {
			return ErrEmptyScreenshotDir
		}
		if c.BrowserName == "" || strings.ContainsAny(c.BrowserName, `/\`) {
			return ErrInvalidBrowserName
		}
	}
	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}
	return nil
}

// PageConfig returns the merged per-page settings for url, or zero
// settings when no config file was loaded.
func (c *Config) PageConfig(url string) PageConfig {
	if c.PageConfigs == nil {
		return PageConfig{}
	}
	return c.PageConfigs.GetPageConfig(url)
}

// Comma returns the CSV field separator, ',' when Delimiter is empty.
// Call Validate first; an invalid Delimiter also yields ','.
func (c *Config) Comma() rune {
	r, ok := c.comma()
	if !ok {
		return ','
	}
	return r
}

func (c *Config) comma() (rune, bool) {
	switch c.Delimiter {
	case "":
		return ',', true
	case "tab", `\t`:
		return '\t', true
	}
	r, size := utf8.DecodeRuneInString(c.Delimiter)
	if size != len(c.Delimiter) || r == utf8.RuneError {
		return 0, false
	}
	// encoding/csv rejects these as separators.
	if r == '"' || r == '\r' || r == '\n' {
		return 0, false
	}
	return r, true
}
