// Package geo holds the map rules shared by the web and terminal views:
// which area to show and how to draw each waypoint.
package geo

import (
	"math"

	"github.com/v7h-lab/Nomen-origins/internal/model"
)

// Zoom limits for the map viewport.
const (
	SelectedMaxZoom = 8
	OverviewMaxZoom = 6
	WorldZoom       = 2
)

// WorldCenter is shown when there is nothing to frame.
var WorldCenter = Point{Lat: 20, Lng: 0}

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a latitude/longitude rectangle.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Center returns the midpoint of b.
func (b Bounds) Center() Point {
	return Point{Lat: (b.South + b.North) / 2, Lng: (b.West + b.East) / 2}
}

// Viewport tells a map what to show. Bounds is nil when the map should be
// set to Center at Zoom directly; otherwise the map fits Bounds without
// zooming past MaxZoom.
type Viewport struct {
	Bounds  *Bounds `json:"bounds,omitempty"`
	MaxZoom int     `json:"maxZoom,omitempty"`
	Center  Point   `json:"center"`
	Zoom    int     `json:"zoom,omitempty"`
}

// ViewportFor frames the selected waypoint, or all waypoints when selected
// is out of range, or the whole world when there are none.
func ViewportFor(waypoints []model.Waypoint, selected int) Viewport {
	if selected >= 0 && selected < len(waypoints) {
		b := boundsOf(waypoints[selected : selected+1])
		return Viewport{Bounds: &b, MaxZoom: SelectedMaxZoom, Center: b.Center()}
	}
	if len(waypoints) > 0 {
		b := boundsOf(waypoints)
		return Viewport{Bounds: &b, MaxZoom: OverviewMaxZoom, Center: b.Center()}
	}
	return Viewport{Center: WorldCenter, Zoom: WorldZoom}
}

func boundsOf(waypoints []model.Waypoint) Bounds {
	b := Bounds{
		South: waypoints[0].Latitude, North: waypoints[0].Latitude,
		West: waypoints[0].Longitude, East: waypoints[0].Longitude,
	}
	for _, w := range waypoints[1:] {
		b.South = math.Min(b.South, w.Latitude)
		b.North = math.Max(b.North, w.Latitude)
		b.West = math.Min(b.West, w.Longitude)
		b.East = math.Max(b.East, w.Longitude)
	}
	return b
}

// FitZoom estimates the Web Mercator zoom at which v fills a map of the
// given pixel size, as a tiled map's fit-bounds would pick it.
func FitZoom(v Viewport, width, height int) int {
	if v.Bounds == nil {
		return v.Zoom
	}
	b := *v.Bounds

	zoom := float64(v.MaxZoom)
	if span := b.East - b.West; span > 0 && width > 0 {
		zoom = math.Min(zoom, math.Log2(float64(width)*360/(256*span)))
	}
	if span := math.Abs(mercatorY(b.North) - mercatorY(b.South)); span > 0 && height > 0 {
		zoom = math.Min(zoom, math.Log2(float64(height)*2*math.Pi/(256*span)))
	}
	if zoom < 0 {
		return 0
	}
	return int(math.Floor(zoom))
}

func mercatorY(lat float64) float64 {
	// Clamp to the Web Mercator limit.
	lat = math.Max(-85.0511, math.Min(85.0511, lat))
	rad := lat * math.Pi / 180
	return math.Log(math.Tan(math.Pi/4 + rad/2))
}
