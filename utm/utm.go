// Package utm builds the Universal Transverse Mercator zone grid.
//
// The grid is computed, not downloaded: 60 six-degree zones split into
// eight-degree latitude bands C to X, four polar tiles, and the irregular
// zones around Norway and Svalbard.
package utm

import (
	"fmt"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
)

// Tile is one zone and latitude band.
type Tile struct {
	// Zone is 1..60, or 0 for the polar tiles.
	Zone int
	// Row is the latitude band letter.
	Row string
	// Code is the projected coordinate reference system for the tile.
	Code string
	// Polygon is the tile outline in longitude/latitude degrees.
	Polygon geom.Polygon
}

// Name returns the conventional zone designator, such as "32V".
func (t Tile) Name() string {
	if t.Zone == 0 {
		return t.Row
	}
	return fmt.Sprintf("%d%s", t.Zone, t.Row)
}

// Bounds returns the tile's bounding box.
func (t Tile) Bounds() *geom.Bounds {
	return t.Polygon.Bounds()
}

// Contains reports whether the point lies in the tile. West and south
// edges are inclusive, east and north exclusive, except on the 180th
// meridian and the north pole.
func (t Tile) Contains(lon, lat float64) bool {
	b := t.Bounds()
	if lon < b.Min.X || lat < b.Min.Y {
		return false
	}
	if lon > b.Max.X || (lon == b.Max.X && b.Max.X != 180) {
		return false
	}
	if lat > b.Max.Y || (lat == b.Max.Y && b.Max.Y != 90) {
		return false
	}
	return true
}

// GeoJSON encodes the tile outline.
func (t Tile) GeoJSON() (*geojson.Geometry, error) {
	return geojson.ToGeoJSON(t.Polygon)
}

func box(minX, minY, maxX, maxY float64) geom.Polygon {
	return geom.Polygon{{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
		{X: minX, Y: minY},
	}}
}

const (
	southRows = "CDEFGHJKLM"
	northRows = "NPQRSTUVW"
)

// exceptions replace the outlines of the irregular Norway and Svalbard zones.
var exceptions = map[string]geom.Polygon{
	"31V": box(0, 56, 3, 64),
	"32V": box(3, 56, 12, 64),
	"31X": box(0, 72, 9, 84),
	"33X": box(9, 72, 21, 84),
	"35X": box(21, 72, 33, 84),
	"37X": box(33, 72, 42, 84),
}

var (
	tilesOnce sync.Once
	tiles     []Tile
)

// Tiles returns every tile: the two south polar tiles, each zone's bands
// from C to X (zones 32, 34 and 36 have no X band), then the two north
// polar tiles. The result is shared; callers must not modify it.
func Tiles() []Tile {
	tilesOnce.Do(func() {
		tiles = build()
	})
	return tiles
}

func build() []Tile {
	out := []Tile{
		{Zone: 0, Row: "A", Code: "esri:102021", Polygon: box(-180, -90, 0, -80)},
		{Zone: 0, Row: "B", Code: "esri:102021", Polygon: box(0, -90, 180, -80)},
	}

	for zone := 1; zone <= 60; zone++ {
		west := float64((zone-1)*6 - 180)
		east := float64(zone*6 - 180)
		south := fmt.Sprintf("epsg:327%02d", zone)
		north := fmt.Sprintf("epsg:326%02d", zone)

		for i, row := range southRows {
			lat := float64(-80 + i*8)
			out = append(out, Tile{Zone: zone, Row: string(row), Code: south, Polygon: box(west, lat, east, lat+8)})
		}
		for i, row := range northRows {
			lat := float64(i * 8)
			out = append(out, Tile{Zone: zone, Row: string(row), Code: north, Polygon: box(west, lat, east, lat+8)})
		}
		if zone == 32 || zone == 34 || zone == 36 {
			continue
		}
		out = append(out, Tile{Zone: zone, Row: "X", Code: north, Polygon: box(west, 72, east, 84)})
	}

	out = append(out,
		Tile{Zone: 0, Row: "X", Code: "esri:102018", Polygon: box(-180, 84, 0, 90)},
		Tile{Zone: 0, Row: "Y", Code: "esri:102018", Polygon: box(0, 84, 180, 90)},
	)

	for i := range out {
		if p, ok := exceptions[out[i].Name()]; ok {
			out[i].Polygon = p
		}
	}
	return out
}

// Find returns the tile with the given zone and row.
func Find(zone int, row string) (Tile, bool) {
	for _, t := range Tiles() {
		if t.Zone == zone && t.Row == row {
			return t, true
		}
	}
	return Tile{}, false
}

// Locate returns the tile containing a longitude/latitude point.
func Locate(lon, lat float64) (Tile, error) {
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return Tile{}, fmt.Errorf("utm: point (%g, %g) is out of range", lon, lat)
	}
	for _, t := range Tiles() {
		if t.Contains(lon, lat) {
			return t, nil
		}
	}
	return Tile{}, fmt.Errorf("utm: no tile contains (%g, %g)", lon, lat)
}
