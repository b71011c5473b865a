// Package identity generates and normalizes the human-typable identifiers of a
// certified work: the public TBT ID and the one-time transfer code.
//
// Uniqueness is not guaranteed here. The work store's unique index rejects
// duplicates and callers regenerate on conflict.
package identity

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"
)

// Alphabet excludes the visually ambiguous I, O, 0 and 1.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeHalf = 4
	// MaxCodeInput is the longest raw input accepted (8 symbols plus hyphen).
	MaxCodeInput = 2*codeHalf + 1
)

var codeFormat = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`)

// Generator draws identifiers from an entropy source.
type Generator struct {
	entropy io.Reader
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy is for tests that need reproducible output.
func NewGeneratorWithEntropy(r io.Reader) *Generator {
	return &Generator{entropy: r}
}

// TransferCode returns a fresh code formatted XXXX-XXXX.
func (g *Generator) TransferCode() (string, error) {
	symbols, err := g.symbols(2 * codeHalf)
	if err != nil {
		return "", err
	}
	return symbols[:codeHalf] + "-" + symbols[codeHalf:], nil
}

// symbols reads n symbols from the alphabet. 256 is a multiple of 32, so
// masking a byte gives a uniform draw.
func (g *Generator) symbols(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(g.entropy, buf); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	for i, b := range buf {
		buf[i] = Alphabet[int(b)&(len(Alphabet)-1)]
	}
	return string(buf), nil
}

// NormalizeCode upper-cases raw input and strips all whitespace.
func NormalizeCode(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// CodeCandidates returns the lookup keys to try for raw input, in order: the
// normalized literal, then (for a bare 8-symbol string) the hyphenated form.
// Over-long input yields nothing.
func CodeCandidates(raw string) []string {
	code := NormalizeCode(raw)
	if code == "" || len(code) > MaxCodeInput {
		return nil
	}
	candidates := []string{code}
	if len(code) == 2*codeHalf && !strings.Contains(code, "-") {
		candidates = append(candidates, code[:codeHalf]+"-"+code[codeHalf:])
	}
	return candidates
}

// ValidCodeFormat reports whether code is a well-formed transfer code.
func ValidCodeFormat(code string) bool {
	return codeFormat.MatchString(code)
}
