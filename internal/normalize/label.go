// Package normalize canonicalizes catalog category labels.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// PathSeparator joins the segments of a hierarchical category path
const PathSeparator = ": "

// DefaultStopWords are Spanish conjunctions, articles and prepositions kept lowercase
// unless they open a segment.
var DefaultStopWords = []string{"y", "e", "o", "de", "del", "la", "las", "el", "los", "para", "con", "en"}

type Normalizer struct {
	stopWords map[string]struct{}
}

// New creates a Normalizer. With no stop words DefaultStopWords is used.
func New(stopWords ...string) *Normalizer {
	if len(stopWords) == 0 {
		stopWords = DefaultStopWords
	}

	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}

	return &Normalizer{stopWords: set}
}

var defaultNormalizer = New()

// Label normalizes raw with the default stop words
func Label(raw string) string {
	return defaultNormalizer.Label(raw)
}

// Label title-cases every ":"-separated segment of raw and rejoins the segments with ": ".
func (n *Normalizer) Label(raw string) string {
	segments := strings.Split(norm.NFC.String(raw), ":")
	for i, segment := range segments {
		segments[i] = n.segment(segment)
	}
	return strings.Join(segments, PathSeparator)
}

// Join appends the normalized child label to an already normalized parent path
func (n *Normalizer) Join(parentPath, child string) string {
	if parentPath == "" {
		return n.Label(child)
	}
	return parentPath + PathSeparator + n.Label(child)
}

func (n *Normalizer) segment(segment string) string {
	words := strings.Fields(segment)
	for i, word := range words {
		lower := strings.ToLower(word)
		if _, stop := n.stopWords[lower]; stop && i != 0 {
			words[i] = lower
			continue
		}
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if first == utf8.RuneError {
		return strings.ToLower(word)
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(word[size:])
}
