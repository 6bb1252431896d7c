package utm

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTilesCount(t *testing.T) {
	t.Parallel()

	all := Tiles()
	// 4 polar tiles, 60 zones x 19 bands, 57 X bands.
	assert.Len(t, all, 1201)

	seen := make(map[string]bool, len(all))
	for _, tile := range all {
		key := tile.Code + "/" + tile.Name()
		assert.False(t, seen[key], "duplicate tile %s", key)
		seen[key] = true
	}
}

func TestTilesMissingXBands(t *testing.T) {
	t.Parallel()

	for _, zone := range []int{32, 34, 36} {
		_, ok := Find(zone, "X")
		assert.False(t, ok, "zone %d has no X band", zone)
	}
	_, ok := Find(33, "X")
	assert.True(t, ok)
}

func TestNorwayExceptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		zone   int
		row    string
		bounds geom.Bounds
	}{
		{31, "V", geom.Bounds{Min: geom.Point{X: 0, Y: 56}, Max: geom.Point{X: 3, Y: 64}}},
		{32, "V", geom.Bounds{Min: geom.Point{X: 3, Y: 56}, Max: geom.Point{X: 12, Y: 64}}},
		{31, "X", geom.Bounds{Min: geom.Point{X: 0, Y: 72}, Max: geom.Point{X: 9, Y: 84}}},
		{33, "X", geom.Bounds{Min: geom.Point{X: 9, Y: 72}, Max: geom.Point{X: 21, Y: 84}}},
		{35, "X", geom.Bounds{Min: geom.Point{X: 21, Y: 72}, Max: geom.Point{X: 33, Y: 84}}},
		{37, "X", geom.Bounds{Min: geom.Point{X: 33, Y: 72}, Max: geom.Point{X: 42, Y: 84}}},
		{33, "V", geom.Bounds{Min: geom.Point{X: 12, Y: 56}, Max: geom.Point{X: 18, Y: 64}}},
	}
	for _, tt := range tests {
		tile, ok := Find(tt.zone, tt.row)
		require.True(t, ok)
		assert.Equal(t, tt.bounds, *tile.Bounds(), tile.Name())
	}
}

func TestTileCodes(t *testing.T) {
	t.Parallel()

	tile, ok := Find(18, "T")
	require.True(t, ok)
	assert.Equal(t, "epsg:32618", tile.Code)

	tile, ok = Find(5, "C")
	require.True(t, ok)
	assert.Equal(t, "epsg:32705", tile.Code)

	tile, ok = Find(0, "A")
	require.True(t, ok)
	assert.Equal(t, "esri:102021", tile.Code)
}

func TestLocate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lon, lat float64
		want     string
	}{
		{-74.0, 40.7, "18T"},
		{5, 60, "32V"},
		{2, 60, "31V"},
		{10, 80, "33X"},
		{0, 0, "31N"},
		{0, -80, "31C"},
		{180, 0, "60N"},
		{-180, -85, "A"},
		{179.9, 89, "Y"},
		{0, 84, "Y"},
	}
	for _, tt := range tests {
		tile, err := Locate(tt.lon, tt.lat)
		require.NoError(t, err)
		assert.Equal(t, tt.want, tile.Name(), "(%g, %g)", tt.lon, tt.lat)
	}

	_, err := Locate(200, 0)
	require.Error(t, err)
}

func TestGeoJSON(t *testing.T) {
	t.Parallel()

	tile, ok := Find(31, "N")
	require.True(t, ok)
	g, err := tile.GeoJSON()
	require.NoError(t, err)
	assert.Equal(t, "Polygon", g.Type)
}
