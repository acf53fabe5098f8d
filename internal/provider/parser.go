package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/v7h-lab/Nomen-origins/internal/model"
)

// ParseEtymology parses the model's response text into an EtymologyResult.
// Tries multiple strategies: direct parse, brace extraction, code block
// extraction. The parsed result is validated before it is returned.
func ParseEtymology(text string) (*model.EtymologyResult, error) {
	text = strings.TrimSpace(text)

	for _, candidate := range jsonCandidates(text) {
		var result model.EtymologyResult
		if err := json.Unmarshal([]byte(candidate), &result); err != nil {
			continue
		}
		if err := normalize(&result); err != nil {
			return nil, err
		}
		return &result, nil
	}

	return nil, fmt.Errorf("failed to parse etymology response as JSON: %.200s...", text)
}

func jsonCandidates(text string) []string {
	candidates := []string{text}

	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			candidates = append(candidates, text[start:end+1])
		}
	}

	for _, fence := range []string{"```json", "```"} {
		if idx := strings.Index(text, fence); idx >= 0 {
			after := text[idx+len(fence):]
			if end := strings.Index(after, "```"); end >= 0 {
				candidates = append(candidates, strings.TrimSpace(after[:end]))
			}
		}
	}
	return candidates
}

// normalize trims free-text fields, canonicalises waypoint categories, and
// rejects results that are missing what the views rely on. Coordinates are
// not range-checked.
func normalize(r *model.EtymologyResult) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Meaning = strings.TrimSpace(r.Meaning)
	if r.Name == "" {
		return fmt.Errorf("malformed etymology: missing name")
	}
	if r.Meaning == "" {
		return fmt.Errorf("malformed etymology: missing meaning for %q", r.Name)
	}

	for i := range r.Locations {
		loc := &r.Locations[i]
		loc.Name = strings.TrimSpace(loc.Name)
		if loc.Name == "" {
			return fmt.Errorf("malformed etymology: location %d has no name", i)
		}
		cat, ok := model.ParseCategory(string(loc.Category))
		if !ok {
			return fmt.Errorf("malformed etymology: location %q has unknown type %q", loc.Name, loc.Category)
		}
		loc.Category = cat
	}

	r.RelatedNames = dedupeNames(r.RelatedNames)
	if r.OriginRoots == nil {
		r.OriginRoots = []string{}
	}
	if r.Locations == nil {
		r.Locations = []model.Waypoint{}
	}
	return nil
}

// dedupeNames drops blanks and case-insensitive repeats, keeping order.
func dedupeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
