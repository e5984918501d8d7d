package model

import (
	"regexp"
	"strings"
)

// Runs of Unicode separators, invisible format characters and newlines all
// collapse to a single ASCII space.
var searchableNormalizer = regexp.MustCompile(`[\p{Z}\p{Cf}\n]+`)

// NormalizeSearchable collapses whitespace-like runs and trims the result.
func NormalizeSearchable(s string) string {
	return strings.TrimSpace(searchableNormalizer.ReplaceAllLiteralString(s, " "))
}

// MakeSearchableString derives the canonical search text of a message from
// its rich text and typed payload. Derivation is deterministic: the same
// inputs always produce the same string.
func MakeSearchableString(text []RichTextElement, typed Typed) string {
	joinedText := JoinSearchable(text)

	var typedComponents []string
	switch tv := typed.(type) {
	case *MessageRegular:
		typedComponents = contentSearchable(tv.Content)
	case *MessageService:
		typedComponents = serviceSearchable(tv.Event)
	}

	parts := make([]string, 0, 2)
	for _, s := range []string{joinedText, strings.Join(typedComponents, " ")} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func joinNonEmpty(parts []string) string {
	return strings.Join(parts, " ")
}
