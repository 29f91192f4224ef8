package normalize

import "strings"

// ApostrophePolicy decides what happens to the encoded apostrophes the platform leaves in
// names and free text.
type ApostrophePolicy int

const (
	// Decode turns every encoded apostrophe into a literal `'`.
	Decode ApostrophePolicy = iota
	// Strip removes apostrophes entirely, encoded or literal.
	Strip
)

func (p ApostrophePolicy) String() string {
	if p == Strip {
		return "strip"
	}
	return "decode"
}

// encodedApostrophes are the encodings seen in platform markup. The double-encoded forms
// survive one round of entity decoding by the markup parser, so they are listed first.
var encodedApostrophes = []string{
	"&amp;#039;",
	"&amp;#39;",
	"&amp;#x27;",
	"&amp;apos;",
	"&#039;",
	"&#39;",
	"&#x27;",
	"&apos;",
}

func newReplacer(replacement string, literal bool) *strings.Replacer {
	pairs := make([]string, 0, len(encodedApostrophes)*2+2)
	for _, encoded := range encodedApostrophes {
		pairs = append(pairs, encoded, replacement)
	}
	if literal {
		pairs = append(pairs, "'", replacement)
	}
	return strings.NewReplacer(pairs...)
}

var (
	decodeReplacer = newReplacer("'", false)
	stripReplacer  = newReplacer("", true)
)

// Apostrophes applies the policy to text.
func Apostrophes(text string, policy ApostrophePolicy) string {
	if policy == Strip {
		return stripReplacer.Replace(text)
	}
	return decodeReplacer.Replace(text)
}
