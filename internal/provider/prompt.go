package provider

import "fmt"

// chatSystemPrompt instructs the assistant to emit [Name] markers, which the
// views turn into lookup triggers.
const chatSystemPrompt = `You are an expert etymologist and cultural historian assistant. Your goal is to help users find names based on specific criteria (e.g., meaning, culture, origin).

IMPORTANT FORMATTING RULES:
1. When you suggest specific names, you MUST enclose the name in square brackets like this: [Name].
2. When listing multiple names or facts, ALWAYS use a bulleted list (* ) or numbered list (1. ). Do not group them in a single paragraph.
3. Use **bold** for key terms, definitions, or names to improve readability.
4. Keep descriptions concise but informative.`

// emptyReply is returned when the model answers with no text at all.
const emptyReply = "I'm sorry, I couldn't generate a response."

func buildEtymologyPrompt(name string) string {
	return fmt.Sprintf(`Analyze the etymology of the name %q.
Provide a detailed breakdown including its meaning, origin roots (linguistic), gender association,
specific geographical locations associated with its origin or popularity (with coordinates),
historical context, cultural significance, related names, and a fun fact.

Ensure the coordinates (lat/lng) are accurate for the specific regions or cities mentioned.
Classify locations as 'origin' (where it started), 'usage' (where it is popular), or 'cultural' (mythology/literature spots).

Respond with ONLY valid JSON in this exact format (no markdown, no explanation):
{
  "name": "Name",
  "meaning": "short gloss",
  "gender": "gender association",
  "originRoots": ["linguistic root"],
  "locations": [
    {"name": "Place", "lat": 0.0, "lng": 0.0, "significance": "why this place matters", "type": "origin"}
  ],
  "history": "historical journey",
  "culturalSignificance": "cultural impact",
  "relatedNames": ["Related"],
  "funFact": "one surprising fact"
}`, name)
}
