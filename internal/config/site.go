package config

import (
	"net/url"
	"strings"
)

// PageConfig holds settings for one scanned page, used when the page is
// reopened to capture screenshots.
type PageConfig struct {
	// Cookie is sent when loading the page.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with every request of the page.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Slug overrides the screenshot filename slug.
	Slug string `yaml:"slug,omitempty"`

	// WaitSelector must be visible before elements are captured.
	WaitSelector string `yaml:"waitSelector,omitempty"`

	// Browser overrides the browser segment of screenshot paths.
	Browser string `yaml:"browser,omitempty"`
}

// File represents the structure of the .a11yreport configuration file.
type File struct {
	// Pages maps page URLs, or bare hosts, to their settings.
	Pages map[string]PageConfig `yaml:"pages,omitempty"`

	// Defaults apply to every page unless overridden.
	Defaults PageConfig `yaml:"defaults,omitempty"`
}

// GetPageConfig returns the settings for a page URL merged over the
// defaults. An exact URL entry wins over a host entry.
func (cf *File) GetPageConfig(pageURL string) PageConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		if pc, ok := cf.Pages[u.Host]; ok {
			result = merge(result, pc)
		}
	}
	if pc, ok := cf.Pages[pageURL]; ok {
		result = merge(result, pc)
	} else if pc, ok := cf.Pages[strings.TrimSuffix(pageURL, "/")]; ok {
		result = merge(result, pc)
	}
	return result
}

func merge(base, over PageConfig) PageConfig {
	if over.Cookie != "" {
		base.Cookie = over.Cookie
	}
	if over.Slug != "" {
		base.Slug = over.Slug
	}
	if over.WaitSelector != "" {
		base.WaitSelector = over.WaitSelector
	}
	if over.Browser != "" {
		base.Browser = over.Browser
	}
	if len(over.Headers) > 0 {
		if base.Headers == nil {
			base.Headers = make(map[string]string, len(over.Headers))
		}
		for k, v := range over.Headers {
			base.Headers[k] = v
		}
	}
	return base
}
