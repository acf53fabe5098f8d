package provider

import (
	"testing"

	"github.com/v7h-lab/Nomen-origins/internal/model"
)

func TestParseEtymology_Direct(t *testing.T) {
	input := `{"name":"Sophia","meaning":"Wisdom","gender":"Feminine","originRoots":["Ancient Greek"],"locations":[{"name":"Athens","lat":37.98,"lng":23.72,"significance":"Birthplace of the word sophia","type":"origin"}],"history":"h","culturalSignificance":"c","relatedNames":["Sofia"],"funFact":"f"}`

	result, err := ParseEtymology(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "Sophia" {
		t.Errorf("expected name Sophia, got %s", result.Name)
	}
	if len(result.Locations) != 1 {
		t.Fatalf("expected 1 location, got %d", len(result.Locations))
	}
	loc := result.Locations[0]
	if loc.Latitude != 37.98 || loc.Longitude != 23.72 {
		t.Errorf("unexpected coordinates: %v, %v", loc.Latitude, loc.Longitude)
	}
	if loc.Category != model.CategoryOrigin {
		t.Errorf("expected origin category, got %q", loc.Category)
	}
}

func TestParseEtymology_WithPreamble(t *testing.T) {
	input := `Here is the analysis:
{
  "name": "Leo",
  "meaning": "Lion",
  "locations": []
}
Hope this helps.`

	result, err := ParseEtymology(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Meaning != "Lion" {
		t.Errorf("expected meaning Lion, got %q", result.Meaning)
	}
	if result.Locations == nil || result.OriginRoots == nil {
		t.Error("expected empty slices rather than nil")
	}
}

func TestParseEtymology_CodeBlock(t *testing.T) {
	input := "```json\n{\"name\":\"Maya\",\"meaning\":\"Illusion\",\"locations\":[]}\n```"

	result, err := ParseEtymology(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "Maya" {
		t.Errorf("expected Maya, got %q", result.Name)
	}
}

func TestParseEtymology_Invalid(t *testing.T) {
	if _, err := ParseEtymology("not json at all"); err == nil {
		t.Fatal("expected error for invalid input")
	}
}

func TestParseEtymology_NormalizesCategory(t *testing.T) {
	input := `{"name":"Ana","meaning":"Grace","locations":[{"name":"Madrid","lat":40.4,"lng":-3.7,"significance":"s","type":" Usage "}]}`

	result, err := ParseEtymology(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Locations[0].Category != model.CategoryUsage {
		t.Errorf("expected usage, got %q", result.Locations[0].Category)
	}
}

func TestParseEtymology_RejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"missing name":     `{"meaning":"Grace","locations":[]}`,
		"missing meaning":  `{"name":"Ana","locations":[]}`,
		"unknown category": `{"name":"Ana","meaning":"Grace","locations":[{"name":"X","type":"battlefield"}]}`,
		"unnamed location": `{"name":"Ana","meaning":"Grace","locations":[{"name":" ","type":"origin"}]}`,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseEtymology(input); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestParseEtymology_DedupesRelatedNames(t *testing.T) {
	input := `{"name":"Sophia","meaning":"Wisdom","locations":[],"relatedNames":["Sofia"," sofia ","","Sophie"]}`

	result, err := ParseEtymology(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.RelatedNames) != 2 || result.RelatedNames[0] != "Sofia" || result.RelatedNames[1] != "Sophie" {
		t.Errorf("unexpected related names: %v", result.RelatedNames)
	}
}
