package report

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify turns a page title or URL into a filename-safe slug: accents are
// folded, letters lowercased and every run of other characters becomes a
// single dash.
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

// SlugFromURL slugifies the host and path of rawURL. Punycode hosts are
// decoded first so "xn--bcher-kva.example" reads as "bucher-example". It
// falls back to slugifying rawURL itself when it does not parse.
func SlugFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Slugify(rawURL)
	}
	host := u.Hostname()
	if decoded, err := idna.ToUnicode(host); err == nil {
		host = decoded
	}
	if port := u.Port(); port != "" {
		host += "-" + port
	}
	return Slugify(strings.TrimPrefix(host, "www.") + u.Path)
}

// PageSlug picks the slug for a page: explicit wins, then the page title,
// then the URL.
func PageSlug(explicit, title, rawURL string) string {
	if explicit != "" {
		return explicit
	}
	if s := Slugify(title); s != "" {
		return s
	}
	return SlugFromURL(rawURL)
}
