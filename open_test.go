package seadata

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"github.com/ctessum/cdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seareport/seadata/grid"
	"github.com/seareport/seadata/internal/testutil"
	"github.com/seareport/seadata/registry"
)

// classicGrid returns the bytes of a small classic netCDF file.
func classicGrid(t *testing.T) []byte {
	t.Helper()

	h := cdf.NewHeader([]string{"lat", "lon"}, []int{2, 2})
	h.AddVariable("bedrock_topography", []string{"lat", "lon"}, []float32{0})
	h.Define()

	path := filepath.Join(t.TempDir(), "rtopo.nc")
	ff, err := os.Create(path)
	require.NoError(t, err)
	f, err := cdf.Create(ff, h)
	require.NoError(t, err)
	_, err = f.Writer("bedrock_topography", []int{0, 0}, []int{2, 2}).Write([]float32{-500, -20, 10, 800})
	require.NoError(t, err)
	require.NoError(t, ff.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// hdf5Grid returns the bytes of a small netCDF-4 file.
func hdf5Grid(t *testing.T) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "srtm.nc")
	w, err := netcdf.OpenWriter(path, netcdf.KindHDF5)
	require.NoError(t, err)
	attrs, err := util.NewOrderedMap(nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.AddVar("z", api.Variable{
		Values:     [][]int16{{-5000, -12}, {3, 4200}},
		Dimensions: []string{"lat", "lon"},
		Attributes: attrs,
	}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// shorelines returns the bytes of a minimal GeoPackage with one layer.
func shorelines(t *testing.T) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gshhg.gpkg")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE gpkg_contents (table_name TEXT PRIMARY KEY, data_type TEXT, identifier TEXT, srs_id INTEGER)`,
		`CREATE TABLE gpkg_geometry_columns (table_name TEXT, column_name TEXT, geometry_type_name TEXT, srs_id INTEGER, z INTEGER, m INTEGER)`,
		`CREATE TABLE "gshhg_crude_l5" (fid INTEGER PRIMARY KEY, geom BLOB, level INTEGER)`,
		`INSERT INTO gpkg_contents VALUES ('gshhg_crude_l5', 'features', 'gshhg_crude_l5', 4326)`,
		`INSERT INTO gpkg_geometry_columns VALUES ('gshhg_crude_l5', 'geom', 'POLYGON', 4326, 0, 0)`,
		`INSERT INTO "gshhg_crude_l5" (level) VALUES (5), (5)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, db.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestOpenGridRTOPO(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	name := "RTopo-2.0.4_30sec_bedrock_topography.nc"
	content := classicGrid(t)
	fx.srv.Add("/rtopo/"+name, content)
	fx.set(map[string]any{
		"base_url": fx.srv.URL + "/rtopo/",
		"hashes":   registry.NewHashes(name, testutil.Hash(content)),
	}, "RTOPO", "2.0.4")
	c := fx.client()

	ds, err := c.OpenGrid(context.Background(), Request{Family: FamilyRTOPO, Dataset: "bedrock"}, "")
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, grid.FormatNetCDFClassic, ds.Format())
	values, err := ds.ReadFloat64("bedrock_topography")
	require.NoError(t, err)
	assert.Equal(t, []float64{-500, -20, 10, 800}, values)
}

func TestOpenGridSRTM15PlusHDF5(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.direct("SRTM15_V2.6.nc", hdf5Grid(t), "SRTM15+", "2.6")

	ds, err := fx.client().OpenGrid(context.Background(), Request{Family: FamilySRTM15Plus}, "")
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, grid.FormatHDF5, ds.Format())
	values, err := ds.ReadFloat64("z")
	require.NoError(t, err)
	assert.Equal(t, []float64{-5000, -12, 3, 4200}, values)
}

func TestOpenGridRejectsH5NetCDFForRTOPO(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	_, err := fx.client().OpenGrid(context.Background(),
		Request{Family: FamilyRTOPO, Dataset: "bedrock"}, EngineH5NetCDF)
	require.ErrorIs(t, err, ErrInvalidParameter)

	var perr *InvalidParameterError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "engine", perr.Name)
	assert.Zero(t, fx.srv.Requests())
}

func TestOpenGridRefusesVectorAndComposite(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	c := fx.client()

	_, err := c.OpenGrid(context.Background(), Request{Family: FamilyOSM}, "")
	require.Error(t, err)
	_, err = c.OpenGrid(context.Background(), Request{Family: FamilyEMODnet}, "")
	require.Error(t, err)
	_, err = c.OpenVector(context.Background(), Request{Family: FamilyGEBCO, Dataset: "ice"})
	require.Error(t, err)
	assert.Zero(t, fx.srv.Requests())
}

func TestOpenVectorGSHHG(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	name := "gshhg_crude_l5.gpkg"
	content := shorelines(t)
	fx.srv.Add("/gshhg/"+name, content)
	fx.set(map[string]any{
		"base_url": fx.srv.URL + "/gshhg/",
		"hashes":   registry.NewHashes(name, testutil.Hash(content)),
	}, "GSHHG", "2.3.7.1")

	ds, err := fx.client().OpenVector(context.Background(),
		Request{Family: FamilyGSHHG, Resolution: "c", Shoreline: "5"})
	require.NoError(t, err)
	defer ds.Close()

	layer, err := ds.Layer("")
	require.NoError(t, err)
	assert.Equal(t, "gshhg_crude_l5", layer.Name)
	assert.EqualValues(t, 2, layer.Features)

	// Opening read-only leaves the verified file intact.
	path := filepath.Join(fx.root, "GSHHG", "2.3.7.1", name)
	sum, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, testutil.Hash(content), sum)
}
