package model

import "strings"

// Category classifies a waypoint for marker colouring and legend grouping.
type Category string

const (
	CategoryOrigin   Category = "origin"
	CategoryUsage    Category = "usage"
	CategoryCultural Category = "cultural"
)

// Categories lists the allowed waypoint categories in legend order.
var Categories = []Category{CategoryOrigin, CategoryUsage, CategoryCultural}

// ParseCategory normalises s and reports whether it names a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return c, false
}

// Waypoint is one geographic point tied to a name's etymology.
type Waypoint struct {
	Name         string   `json:"name"`
	Latitude     float64  `json:"lat"`
	Longitude    float64  `json:"lng"`
	Significance string   `json:"significance"`
	Category     Category `json:"type"`
}

// EtymologyResult is one successful name lookup.
type EtymologyResult struct {
	Name                 string     `json:"name"`
	Meaning              string     `json:"meaning"`
	Gender               string     `json:"gender"`
	OriginRoots          []string   `json:"originRoots"`
	Locations            []Waypoint `json:"locations"`
	History              string     `json:"history"`
	CulturalSignificance string     `json:"culturalSignificance"`
	RelatedNames         []string   `json:"relatedNames"`
	FunFact              string     `json:"funFact"`
}

// CompactGender returns the gender association if it is short enough to
// show as a tag, or "" for empty, long, or compound values.
func (r *EtymologyResult) CompactGender() string {
	g := strings.TrimSpace(r.Gender)
	if g == "" || len(g) >= 20 || strings.ContainsAny(g, ";,") {
		return ""
	}
	return g
}

// Clone returns a deep copy so snapshots can be handed out freely.
func (r *EtymologyResult) Clone() *EtymologyResult {
	if r == nil {
		return nil
	}
	c := *r
	c.OriginRoots = append([]string(nil), r.OriginRoots...)
	c.Locations = append([]Waypoint(nil), r.Locations...)
	c.RelatedNames = append([]string(nil), r.RelatedNames...)
	return &c
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one transcript entry.
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
