package override

import (
	"strings"

	"golang.org/x/text/cases"
)

// Variant is the conditional bucket a clip belongs to.
type Variant int

const (
	VariantDefault Variant = iota
	VariantMale            // class A
	VariantFemale          // class B
	VariantHurt            // class C

	variantCount
)

// markers are checked in order, first hit wins
var markers = []struct {
	token   string
	variant Variant
}{
	{`\male\`, VariantMale},
	{`\female\`, VariantFemale},
	{`\hurt\`, VariantHurt},
}

func (v Variant) String() string {
	switch v {
	case VariantMale:
		return "male"
	case VariantFemale:
		return "female"
	case VariantHurt:
		return "hurt"
	default:
		return "default"
	}
}

// ClassifyContext derives the variant from a clip path or a previous
// sequence name. An empty path means no context and yields VariantDefault.
func ClassifyContext(path string) Variant {
	if path == "" {
		return VariantDefault
	}
	folded := fold(path)
	for _, m := range markers {
		if strings.Contains(folded, m.token) {
			return m.variant
		}
	}
	return VariantDefault
}

// fold applies Unicode case folding so comparisons are case-insensitive.
func fold(s string) string {
	return cases.Fold().String(s)
}

// samePath reports whether two storage paths refer to the same clip.
func samePath(a, b string) bool {
	return fold(a) == fold(b)
}
