// Package markup finds [Name] references in assistant replies.
package markup

import (
	"regexp"
	"strings"
)

var nameRef = regexp.MustCompile(`\[(.*?)\]`)

// Segment is a run of plain text or a name reference.
type Segment struct {
	Text string `json:"text"`
	Name bool   `json:"name,omitempty"`
}

// Segments splits text into plain runs and name references, in order.
// Empty brackets stay plain text.
func Segments(text string) []Segment {
	var out []Segment
	last := 0
	for _, m := range nameRef.FindAllStringSubmatchIndex(text, -1) {
		name := strings.TrimSpace(text[m[2]:m[3]])
		if name == "" {
			continue
		}
		if m[0] > last {
			out = append(out, Segment{Text: text[last:m[0]]})
		}
		out = append(out, Segment{Text: name, Name: true})
		last = m[1]
	}
	if last < len(text) {
		out = append(out, Segment{Text: text[last:]})
	}
	return out
}

// Names returns the distinct names referenced in text, first mention first.
func Names(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, s := range Segments(text) {
		if !s.Name || seen[s.Text] {
			continue
		}
		seen[s.Text] = true
		names = append(names, s.Text)
	}
	return names
}

// Plain replaces every name reference with the bare name.
func Plain(text string) string {
	var b strings.Builder
	for _, s := range Segments(text) {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Markdown renders name references as bold markdown.
func Markdown(text string) string {
	var b strings.Builder
	for _, s := range Segments(text) {
		if s.Name {
			b.WriteString("**" + s.Text + "**")
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
