package identity

import (
	"fmt"
	"regexp"
)

const tbtSuffixLen = 6

var tbtIDFormat = regexp.MustCompile(`^TBT-[0-9]{4}-[A-HJ-NP-Z2-9]{6}$`)

// TBTID returns a certificate identifier such as TBT-2026-K7Q2ZD.
func (g *Generator) TBTID(year int) (string, error) {
	suffix, err := g.symbols(tbtSuffixLen)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TBT-%04d-%s", year, suffix), nil
}

// ValidTBTID reports whether s is a well-formed TBT ID.
func ValidTBTID(s string) bool {
	return tbtIDFormat.MatchString(s)
}
