package model

import (
	"fmt"
	"strings"
)

// Impact is the severity axe assigns to a violation or an affected node.
// The zero value means the engine reported no impact.
type Impact string

const (
	// ImpactCritical blocks some users from the content entirely.
	ImpactCritical Impact = "critical"

	// ImpactSerious causes significant barriers.
	ImpactSerious Impact = "serious"

	// ImpactModerate causes some difficulty.
	ImpactModerate Impact = "moderate"

	// ImpactMinor is an annoyance.
	ImpactMinor Impact = "minor"
)

// undefinedImpact is how a missing impact appears in attachment names and
// screenshot filenames.
const undefinedImpact = "undefined"

// Impacts lists all known impacts from most to least severe.
func Impacts() []Impact {
	return []Impact{ImpactCritical, ImpactSerious, ImpactModerate, ImpactMinor}
}

// ParseImpact parses an impact label, ignoring case and surrounding spaces.
func ParseImpact(s string) (Impact, error) {
	i := Impact(strings.ToLower(strings.TrimSpace(s)))
	if !i.Valid() {
		return "", fmt.Errorf("unknown impact %q (want one of critical, serious, moderate, minor)", s)
	}
	return i, nil
}

// Valid reports whether i is one of the four known impacts.
func (i Impact) Valid() bool {
	switch i {
	case ImpactCritical, ImpactSerious, ImpactModerate, ImpactMinor:
		return true
	default:
		return false
	}
}

// Rank orders impacts: critical is 4, minor is 1, anything else 0.
func (i Impact) Rank() int {
	switch i {
	case ImpactCritical:
		return 4
	case ImpactSerious:
		return 3
	case ImpactModerate:
		return 2
	case ImpactMinor:
		return 1
	default:
		return 0
	}
}

// Label returns the impact for use in names, or "undefined" when unset.
func (i Impact) Label() string {
	if i == "" {
		return undefinedImpact
	}
	return string(i)
}

// String returns the raw impact value.
func (i Impact) String() string {
	return string(i)
}
