package geo

import "github.com/v7h-lab/Nomen-origins/internal/model"

const (
	unknownColor  = "#64748b"
	selectedColor = "#1e293b"
)

var categoryColors = map[model.Category]string{
	model.CategoryOrigin:   "#6366f1",
	model.CategoryUsage:    "#10b981",
	model.CategoryCultural: "#f43f5e",
}

var categoryLabels = map[model.Category]string{
	model.CategoryOrigin:   "Origin Root",
	model.CategoryUsage:    "Popular Usage",
	model.CategoryCultural: "Cultural/Myth",
}

// CategoryColor returns the fill colour for a waypoint category.
func CategoryColor(c model.Category) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return unknownColor
}

// MarkerStyle describes how to draw one circle marker.
type MarkerStyle struct {
	Color       string  `json:"color"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
	Weight      int     `json:"weight"`
	Radius      int     `json:"radius"`
}

// StyleFor returns the marker style for a waypoint. Selected markers are
// larger and outlined dark.
func StyleFor(c model.Category, selected bool) MarkerStyle {
	fill := CategoryColor(c)
	if selected {
		return MarkerStyle{Color: selectedColor, FillColor: fill, FillOpacity: 0.9, Weight: 3, Radius: 12}
	}
	return MarkerStyle{Color: fill, FillColor: fill, FillOpacity: 0.6, Weight: 2, Radius: 8}
}

// Marker is a waypoint ready to draw.
type Marker struct {
	Index    int            `json:"index"`
	Waypoint model.Waypoint `json:"waypoint"`
	Selected bool           `json:"selected"`
	Style    MarkerStyle    `json:"style"`
}

// Markers styles every waypoint, marking the one at selected.
func Markers(waypoints []model.Waypoint, selected int) []Marker {
	out := make([]Marker, len(waypoints))
	for i, w := range waypoints {
		out[i] = Marker{
			Index:    i,
			Waypoint: w,
			Selected: i == selected,
			Style:    StyleFor(w.Category, i == selected),
		}
	}
	return out
}

type LegendEntry struct {
	Category model.Category `json:"category"`
	Label    string         `json:"label"`
	Color    string         `json:"color"`
}

// Legend lists the categories in display order.
func Legend() []LegendEntry {
	out := make([]LegendEntry, 0, len(model.Categories))
	for _, c := range model.Categories {
		out = append(out, LegendEntry{Category: c, Label: categoryLabels[c], Color: CategoryColor(c)})
	}
	return out
}
