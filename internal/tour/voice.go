package tour

import "strings"

// Voice is a synthesis voice offered by a speech backend.
type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default,omitempty"`
}

// VoicePolicy picks the narration voice.
type VoicePolicy struct {
	// Preferred voice names, tried in order by exact match.
	Preferred []string
	// LangPrefix is matched against Voice.Lang when no preferred voice exists.
	LangPrefix string
}

// DefaultVoicePolicy prefers the high quality US English voices shipped by
// common browsers, then any English voice.
func DefaultVoicePolicy() VoicePolicy {
	return VoicePolicy{
		Preferred:  []string{"Google US English", "Samantha"},
		LangPrefix: "en",
	}
}

// Pick returns the voice to narrate with, or nil to leave the choice to the
// backend's default.
func (p VoicePolicy) Pick(voices []Voice) *Voice {
	for _, name := range p.Preferred {
		for i := range voices {
			if voices[i].Name == name {
				v := voices[i]
				return &v
			}
		}
	}
	if p.LangPrefix == "" {
		return nil
	}
	for i := range voices {
		if strings.HasPrefix(voices[i].Lang, p.LangPrefix) {
			v := voices[i]
			return &v
		}
	}
	return nil
}
