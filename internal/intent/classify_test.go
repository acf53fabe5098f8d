package intent

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		input string
		want  Intent
	}{
		{"Sophia", NameSearch},
		{"Mary Jane Watson", NameSearch},
		{"  Jean-Luc  ", NameSearch},
		{"Ancient Greek warrior names", DiscoveryQuery},
		{"What names mean light?", DiscoveryQuery},
		{"show strong names", DiscoveryQuery},
		{"Aiden?", DiscoveryQuery},
		{"names", DiscoveryQuery},
		{"LIST irish names", DiscoveryQuery},
		// Known limitation: no keyword, no question mark, three words.
		{"strong warrior names", NameSearch},
		{"Isabella", NameSearch},
		{"Dominic Anya", NameSearch},
		{"Show, me", DiscoveryQuery},
		{"", NameSearch},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Classify(tt.input); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	inputs := []string{"Sophia", "What names mean light?", "Mary Jane Watson", "Ancient Greek warrior names"}
	for _, in := range inputs {
		first := Classify(in)
		for i := 0; i < 10; i++ {
			if got := Classify(in); got != first {
				t.Fatalf("Classify(%q) changed from %v to %v", in, first, got)
			}
		}
	}
}

func TestIntentString(t *testing.T) {
	if NameSearch.String() != "name" || DiscoveryQuery.String() != "discovery" {
		t.Errorf("unexpected intent names: %s, %s", NameSearch, DiscoveryQuery)
	}
}
