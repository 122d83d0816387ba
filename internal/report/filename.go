package report

import (
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/a11yreport/internal/model"
)

// slugLimit is how many characters of the page slug go into a filename.
const slugLimit = 15

// hashSize is the digest length in bytes; the hex form is twice as long.
const hashSize = 4

// shake returns the first size bytes of SHAKE256(parts joined by NUL) in hex.
func shake(size int, parts ...string) string {
	sum := make([]byte, size)
	sha3.ShakeSum256(sum, []byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum)
}

// LocatorHash returns an 8 character hex digest of a locator.
func LocatorHash(locator string) string {
	return shake(hashSize, locator)
}

// ScreenshotFilename builds the file name for an issue's screenshot:
// <slug[:15]>-<impact>-<rule>-<hash>.png. The hash covers the element's
// target locator; issues without a target hash the current time instead so
// they still get a name.
func ScreenshotFilename(issue model.Issue, slug string, now time.Time) string {
	var hash string
	if issue.Target != "" {
		hash = LocatorHash(issue.Target)
	} else {
		hash = LocatorHash(now.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	}

	return truncateRunes(slug, slugLimit) + "-" + issue.Impact.Label() + "-" + issue.Rule + "-" + hash + ".png"
}

// Fingerprint identifies an issue across runs of the same page. It ignores
// scan metadata and the message so a rerun of an unchanged page produces
// the same fingerprints.
func Fingerprint(issue model.Issue) string {
	return shake(2*hashSize, issue.Rule, issue.Target, issue.Parent)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
