package report

import "testing"

// TestSlugify tests slug generation.
func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "Contact Us | ACME", want: "contact-us-acme"},
		{in: "  Café Menu  ", want: "cafe-menu"},
		{in: "Ünïcödé---Title!", want: "unicode-title"},
		{in: "Große Straße", want: "große-straße"},
		{in: "!!!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestPageSlug tests slug fallbacks.
func TestPageSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		explicit string
		title    string
		url      string
		want     string
	}{
		{name: "explicit wins", explicit: "home", title: "Welcome", url: "http://example.com/", want: "home"},
		{name: "title", title: "Welcome Page", url: "http://example.com/", want: "welcome-page"},
		{name: "url host and path", url: "https://www.example.com/docs/intro?x=1", want: "example-com-docs-intro"},
		{name: "punycode host", url: "https://xn--bcher-kva.example/shop", want: "bucher-example-shop"},
		{name: "port kept", url: "http://localhost:8080/form", want: "localhost-8080-form"},
		{name: "unparseable url", url: "not a url", want: "not-a-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := PageSlug(tt.explicit, tt.title, tt.url); got != tt.want {
				t.Errorf("PageSlug() = %q, want %q", got, tt.want)
			}
		})
	}
}
