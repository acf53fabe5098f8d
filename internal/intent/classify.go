package intent

import (
	"strings"
	"unicode"
)

// Intent is the routing decision for a line of user input.
type Intent int

const (
	NameSearch Intent = iota
	DiscoveryQuery
)

func (i Intent) String() string {
	switch i {
	case NameSearch:
		return "name"
	case DiscoveryQuery:
		return "discovery"
	default:
		return "unknown"
	}
}

// discoveryKeywords mark input that reads like a request rather than a name.
// The first word must equal one of them, ignoring case and surrounding
// punctuation, so names such as "Isabella" or "Dominic" are not caught.
var discoveryKeywords = map[string]bool{
	"show": true, "find": true, "tell": true, "give": true, "what": true,
	"which": true, "how": true, "list": true, "suggest": true, "can": true,
	"are": true, "is": true, "do": true, "name": true, "names": true,
	"any": true, "recommend": true,
}

// Classify decides whether input is a name to look up or a discovery query
// for the assistant. It is a heuristic: three-word phrases without a question
// mark or leading keyword ("strong warrior names") are treated as names.
func Classify(input string) Intent {
	trimmed := strings.TrimSpace(input)
	words := strings.Fields(trimmed)
	hasQuestionMark := strings.Contains(trimmed, "?")

	firstWord := ""
	if len(words) > 0 {
		firstWord = words[0]
	}

	if hasQuestionMark || startsWithKeyword(firstWord) {
		return DiscoveryQuery
	}
	// Up to three words still fits multi-part names like "Mary Jane Watson".
	if len(words) <= 3 {
		return NameSearch
	}
	return DiscoveryQuery
}

func startsWithKeyword(word string) bool {
	word = strings.TrimFunc(word, func(r rune) bool { return !unicode.IsLetter(r) })
	return discoveryKeywords[strings.ToLower(word)]
}
