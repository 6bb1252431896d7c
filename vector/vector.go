// Package vector opens cached vector datasets stored as GeoPackage or
// OGR SQLite files and describes their layers.
package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var (
	// ErrNotVector is returned for SQLite files without a layer catalog.
	ErrNotVector = errors.New("vector: no geometry catalog")

	// ErrUnknownLayer is returned when a layer is not in the file.
	ErrUnknownLayer = errors.New("vector: unknown layer")
)

// Flavor is the SQLite layout a file follows.
type Flavor uint8

// Supported layouts.
const (
	FlavorGeoPackage Flavor = iota + 1
	FlavorOGRSQLite
)

// String returns the string representation of the flavor.
func (f Flavor) String() string {
	switch f {
	case FlavorGeoPackage:
		return "gpkg"
	case FlavorOGRSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// PandasAttrsKey is the layer metadata item holding data frame attributes
// as a JSON object.
const PandasAttrsKey = "PANDAS_ATTRS"

// Layer describes one feature table.
type Layer struct {
	Name           string
	GeometryColumn string
	GeometryType   string
	SRID           int
	Features       int64
	Fields         []string
	// Metadata holds GDAL layer metadata items.
	Metadata map[string]string
	// Attrs is the decoded PANDAS_ATTRS metadata item, if present.
	Attrs map[string]any
}

// Dataset is an open vector file.
type Dataset struct {
	path   string
	flavor Flavor
	db     *sql.DB
	layers []Layer
}

// Open opens path read-only and loads its layer catalog.
func Open(ctx context.Context, path string) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	dsn := (&url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("vector: open %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("vector: open %s: %w", path, err)
	}

	d := &Dataset{path: path, db: db}
	if err := d.load(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("vector: %s: %w", path, err)
	}
	return d, nil
}

// Close closes the database handle.
func (d *Dataset) Close() error {
	return d.db.Close()
}

// Path returns the file path.
func (d *Dataset) Path() string { return d.path }

// Flavor returns the file layout.
func (d *Dataset) Flavor() Flavor { return d.flavor }

// Layers returns every layer in catalog order.
func (d *Dataset) Layers() []Layer {
	return append([]Layer(nil), d.layers...)
}

// Layer returns the named layer, or the first one when name is empty.
func (d *Dataset) Layer(name string) (Layer, error) {
	if name == "" && len(d.layers) > 0 {
		return d.layers[0], nil
	}
	for _, l := range d.layers {
		if l.Name == name {
			return l, nil
		}
	}
	return Layer{}, fmt.Errorf("%w: %q", ErrUnknownLayer, name)
}

func (d *Dataset) load(ctx context.Context) error {
	switch {
	case d.hasTable(ctx, "gpkg_geometry_columns"):
		d.flavor = FlavorGeoPackage
		return d.loadGeoPackage(ctx)
	case d.hasTable(ctx, "geometry_columns"):
		d.flavor = FlavorOGRSQLite
		return d.loadOGR(ctx)
	default:
		return ErrNotVector
	}
}

func (d *Dataset) hasTable(ctx context.Context, name string) bool {
	var n int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?`, name).Scan(&n)
	return err == nil && n > 0
}

func (d *Dataset) loadGeoPackage(ctx context.Context) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT g.table_name, g.column_name, g.geometry_type_name, g.srs_id
		FROM gpkg_geometry_columns g
		LEFT JOIN gpkg_contents c ON c.table_name = g.table_name
		ORDER BY c.rowid, g.table_name`)
	if err != nil {
		return err
	}
	if err := d.scanLayers(rows, func(rows *sql.Rows, l *Layer) error {
		return rows.Scan(&l.Name, &l.GeometryColumn, &l.GeometryType, &l.SRID)
	}); err != nil {
		return err
	}

	metadata := d.hasTable(ctx, "gpkg_metadata") && d.hasTable(ctx, "gpkg_metadata_reference")
	for i := range d.layers {
		if err := d.describe(ctx, &d.layers[i]); err != nil {
			return err
		}
		if !metadata {
			continue
		}
		if err := d.loadMetadata(ctx, &d.layers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dataset) loadOGR(ctx context.Context) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT f_table_name, f_geometry_column, geometry_type, srid
		FROM geometry_columns`)
	if err != nil {
		return err
	}
	if err := d.scanLayers(rows, func(rows *sql.Rows, l *Layer) error {
		var code int
		if err := rows.Scan(&l.Name, &l.GeometryColumn, &code, &l.SRID); err != nil {
			return err
		}
		l.GeometryType = geometryTypeName(code)
		return nil
	}); err != nil {
		return err
	}
	for i := range d.layers {
		if err := d.describe(ctx, &d.layers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dataset) scanLayers(rows *sql.Rows, scan func(*sql.Rows, *Layer) error) error {
	defer rows.Close()
	for rows.Next() {
		var l Layer
		if err := scan(rows, &l); err != nil {
			return err
		}
		d.layers = append(d.layers, l)
	}
	return rows.Err()
}

// describe fills in the feature count and the non-geometry fields.
func (d *Dataset) describe(ctx context.Context, l *Layer) error {
	table := quoteIdent(l.Name)
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&l.Features); err != nil {
		return fmt.Errorf("count %s: %w", l.Name, err)
	}

	rows, err := d.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", l.Name)
	if err != nil {
		return fmt.Errorf("columns of %s: %w", l.Name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if !strings.EqualFold(name, l.GeometryColumn) {
			l.Fields = append(l.Fields, name)
		}
	}
	return rows.Err()
}

// gdalMetadata is the XML document GDAL stores per layer in gpkg_metadata.
type gdalMetadata struct {
	XMLName xml.Name `xml:"GDALMultiDomainMetadata"`
	Domains []struct {
		Domain string `xml:"domain,attr"`
		Items  []struct {
			Key   string `xml:"key,attr"`
			Value string `xml:",chardata"`
		} `xml:"MDI"`
	} `xml:"Metadata"`
}

// loadMetadata reads the default-domain GDAL metadata attached to a layer.
func (d *Dataset) loadMetadata(ctx context.Context, l *Layer) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT m.metadata
		FROM gpkg_metadata m
		JOIN gpkg_metadata_reference r ON r.md_file_id = m.id
		WHERE r.reference_scope = 'table'
		  AND lower(r.table_name) = lower(?)
		  AND m.md_standard_uri = 'http://gdal.org'
		  AND m.mime_type = 'text/xml'`, l.Name)
	if err != nil {
		return fmt.Errorf("metadata of %s: %w", l.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return err
		}
		var md gdalMetadata
		if err := xml.Unmarshal([]byte(doc), &md); err != nil {
			return fmt.Errorf("metadata of %s: %w", l.Name, err)
		}
		for _, dom := range md.Domains {
			if dom.Domain != "" {
				continue
			}
			for _, item := range dom.Items {
				if l.Metadata == nil {
					l.Metadata = make(map[string]string)
				}
				l.Metadata[item.Key] = item.Value
			}
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if raw, ok := l.Metadata[PandasAttrsKey]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &l.Attrs); err != nil {
			return fmt.Errorf("%s of %s: %w", PandasAttrsKey, l.Name, err)
		}
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var geometryTypes = map[int]string{
	0: "GEOMETRY",
	1: "POINT",
	2: "LINESTRING",
	3: "POLYGON",
	4: "MULTIPOINT",
	5: "MULTILINESTRING",
	6: "MULTIPOLYGON",
	7: "GEOMETRYCOLLECTION",
}

// geometryTypeName maps an OGR geometry_columns type code to its name,
// including the Z, M and ZM variants in the thousands.
func geometryTypeName(code int) string {
	base, ok := geometryTypes[code%1000]
	if !ok {
		return fmt.Sprintf("UNKNOWN(%d)", code)
	}
	switch code / 1000 {
	case 1:
		return base + " Z"
	case 2:
		return base + " M"
	case 3:
		return base + " ZM"
	}
	return base
}
