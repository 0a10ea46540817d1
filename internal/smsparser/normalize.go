package smsparser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeName turns a raw counterparty candidate into a display name.
//
// The name is cut at the earliest stop phrase, a UPI handle is reduced to the
// part before '@', dots become spaces and each word is title-cased. The
// result may be empty; callers treat that as UnknownCounterparty.
func NormalizeName(raw string) string {
	name := truncateAtStopPhrase(raw)

	if idx := strings.Index(name, "@"); idx != -1 {
		name = name[:idx]
	}

	name = strings.ReplaceAll(name, ".", " ")

	words := strings.Fields(name)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// truncateAtStopPhrase keeps the text before the earliest stop phrase.
// A trailing space is appended for matching so a phrase ending the name
// still counts.
func truncateAtStopPhrase(name string) string {
	lower := strings.ToLower(name) + " "
	cut := len(name)
	for _, phrase := range nameStopPhrases {
		if idx := strings.Index(lower, phrase); idx != -1 && idx < cut {
			cut = idx
		}
	}
	return name[:cut]
}

func titleWord(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return strings.ToLower(w)
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}
