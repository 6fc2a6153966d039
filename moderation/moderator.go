// Package moderation masks blacklisted words in message bodies before
// they are persisted or fanned out.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator holds an Aho-Corasick automaton built over normalized
// blacklist entries. Normalization lowercases, strips punctuation and
// folds common leet-speak substitutions so "h3.l-l0" still matches "hello".
type Moderator struct {
	matcher  *goahocorasick.Machine
	maskRune rune
}

func NewModerator(words []string, maskRune rune) (Moderator, error) {
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i], _ = normalize([]rune(word))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return Moderator{}, err
	}
	return Moderator{matcher: m, maskRune: maskRune}, nil
}

// Censor replaces every character of a matched span with the mask rune,
// preserving the original spacing and punctuation around it.
func (m *Moderator) Censor(original string) string {
	origRunes := []rune(original)
	normalized, origIdx := normalize(origRunes)
	if len(normalized) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return original
	}

	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = m.maskRune
		}
	}
	return string(origRunes)
}

// normalize lowercases and folds the input, dropping noise characters.
// The second return value maps each normalized position back to the
// index of the originating rune, so matches can be masked in place.
func normalize(input []rune) ([]rune, []int) {
	norm := make([]rune, 0, len(input))
	origIdx := make([]int, 0, len(input))
	for i, r := range input {
		folded := foldLeet(r)
		if unicode.IsPunct(folded) || unicode.IsSpace(folded) || unicode.IsSymbol(folded) {
			continue
		}
		norm = append(norm, unicode.ToLower(folded))
		origIdx = append(origIdx, i)
	}
	return norm, origIdx
}

// foldLeet maps common leet-speak characters back to their alphabet counterparts.
func foldLeet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
