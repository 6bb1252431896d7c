// Package grid opens cached raster datasets.
//
// NetCDF classic and 64-bit offset files are read with ctessum/cdf and
// NetCDF-4 (HDF5) files with go-native-netcdf. GeoTIFF files are recognised
// by their signature and rejected with ErrUnsupportedFormat.
package grid

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"slices"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/ctessum/cdf"
)

var (
	// ErrUnsupportedFormat is returned for files without a reader.
	ErrUnsupportedFormat = errors.New("grid: unsupported format")

	// ErrEngineMismatch is returned when the requested engine cannot read
	// the file's format.
	ErrEngineMismatch = errors.New("grid: engine cannot read this format")

	// ErrUnknownVariable is returned when a variable is not in the file.
	ErrUnknownVariable = errors.New("grid: unknown variable")
)

// Format is an on-disk raster format.
type Format uint8

// Recognised formats.
const (
	FormatUnknown Format = iota
	FormatNetCDFClassic
	FormatNetCDF64
	FormatHDF5
	FormatGeoTIFF
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatNetCDFClassic:
		return "netcdf-classic"
	case FormatNetCDF64:
		return "netcdf-64bit-offset"
	case FormatHDF5:
		return "hdf5"
	case FormatGeoTIFF:
		return "geotiff"
	default:
		return "unknown"
	}
}

var hdf5Magic = []byte("\x89HDF\r\n\x1a\n")

// DetectFormat identifies a raster file from its leading bytes.
func DetectFormat(r io.ReaderAt) (Format, error) {
	head := make([]byte, 8)
	n, err := r.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return FormatUnknown, err
	}
	head = head[:n]
	switch {
	case bytes.HasPrefix(head, []byte("CDF\x01")):
		return FormatNetCDFClassic, nil
	case bytes.HasPrefix(head, []byte("CDF\x02")):
		return FormatNetCDF64, nil
	case bytes.HasPrefix(head, hdf5Magic):
		return FormatHDF5, nil
	case bytes.HasPrefix(head, []byte("II*\x00")), bytes.HasPrefix(head, []byte("MM\x00*")),
		bytes.HasPrefix(head, []byte("II+\x00")), bytes.HasPrefix(head, []byte("MM\x00+")):
		return FormatGeoTIFF, nil
	}
	return FormatUnknown, nil
}

// Engine names the reader a caller intends to use for a file.
type Engine string

// Engines, matching the names used by the dataset families.
const (
	EngineAuto     Engine = ""
	EngineScipy    Engine = "scipy"
	EngineNetCDF4  Engine = "netcdf4"
	EngineH5NetCDF Engine = "h5netcdf"
	EngineRasterio Engine = "rasterio"
)

var engineFormats = map[Engine][]Format{
	EngineScipy:    {FormatNetCDFClassic, FormatNetCDF64},
	EngineNetCDF4:  {FormatNetCDFClassic, FormatNetCDF64, FormatHDF5},
	EngineH5NetCDF: {FormatHDF5},
	EngineRasterio: {FormatNetCDFClassic, FormatNetCDF64, FormatHDF5, FormatGeoTIFF},
}

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	engine Engine
}

// WithEngine restricts Open to the formats engine can read.
func WithEngine(engine Engine) Option {
	return func(c *openConfig) {
		c.engine = engine
	}
}

// Variable describes one array in a dataset.
type Variable struct {
	Name       string
	Dimensions []string
	Shape      []int
}

// Dataset is an open raster file. Exactly one of nc and h5 is set.
type Dataset struct {
	path   string
	format Format
	file   *os.File
	nc     *cdf.File
	h5     api.Group
}

// Open opens the raster at path.
func Open(path string, opts ...Option) (*Dataset, error) {
	cfg := &openConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	f, err := os.Open(path) //nolint:gosec // path comes from the cache resolver
	if err != nil {
		return nil, err
	}
	format, err := DetectFormat(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("grid: read %s: %w", path, err)
	}

	if cfg.engine != EngineAuto {
		allowed, ok := engineFormats[cfg.engine]
		if !ok {
			f.Close()
			return nil, fmt.Errorf("grid: unknown engine %q", cfg.engine)
		}
		if !slices.Contains(allowed, format) {
			f.Close()
			return nil, fmt.Errorf("%w: %s cannot read %s (%s)", ErrEngineMismatch, cfg.engine, format, path)
		}
	}

	switch format {
	case FormatNetCDFClassic, FormatNetCDF64:
	case FormatHDF5:
		f.Close()
		g, err := netcdf.Open(path)
		if err != nil {
			return nil, fmt.Errorf("grid: open %s: %w", path, err)
		}
		return &Dataset{path: path, format: format, h5: g}, nil
	default:
		f.Close()
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, format, path)
	}

	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("grid: open %s: %w", path, err)
	}
	return &Dataset{path: path, format: format, file: f, nc: nc}, nil
}

// Close releases the underlying file.
func (d *Dataset) Close() error {
	if d.h5 != nil {
		d.h5.Close()
		return nil
	}
	return d.file.Close()
}

// Path returns the file path.
func (d *Dataset) Path() string { return d.path }

// Format returns the detected file format.
func (d *Dataset) Format() Format { return d.format }

// Variables lists the arrays in the file, in file order.
func (d *Dataset) Variables() []Variable {
	if d.h5 != nil {
		return d.h5Variables()
	}
	names := d.nc.Header.Variables()
	out := make([]Variable, len(names))
	for i, name := range names {
		out[i] = Variable{
			Name:       name,
			Dimensions: d.nc.Header.Dimensions(name),
			Shape:      d.nc.Header.Lengths(name),
		}
	}
	return out
}

// Attributes lists the attribute names of variable, or the global
// attributes when variable is empty.
func (d *Dataset) Attributes(variable string) []string {
	if d.h5 != nil {
		attrs, ok := d.h5Attributes(variable)
		if !ok {
			return nil
		}
		return attrs.Keys()
	}
	return d.nc.Header.Attributes(variable)
}

// Attribute returns one attribute value. Text attributes are strings;
// numeric attributes are slices of the stored type.
func (d *Dataset) Attribute(variable, name string) (any, bool) {
	if d.h5 != nil {
		attrs, ok := d.h5Attributes(variable)
		if !ok {
			return nil, false
		}
		return attrs.Get(name)
	}
	v := d.nc.Header.GetAttribute(variable, name)
	return v, v != nil
}

// ReadFloat64 reads a numeric variable in row-major order, converting to
// float64. Cells equal to the variable's _FillValue become NaN.
func (d *Dataset) ReadFloat64(variable string) ([]float64, error) {
	if d.h5 != nil {
		return d.h5ReadFloat64(variable)
	}
	if !slices.Contains(d.nc.Header.Variables(), variable) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, variable)
	}
	r := d.nc.Reader(variable, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("grid: read %s: %w", variable, err)
	}
	data, err := toFloat64(buf)
	if err != nil {
		return nil, fmt.Errorf("grid: %s: %w", variable, err)
	}

	if fill := d.nc.Header.GetAttribute(variable, "_FillValue"); fill != nil {
		if err := maskFill(data, fill); err != nil {
			return nil, fmt.Errorf("grid: %s: %w", variable, err)
		}
	}
	return data, nil
}

func (d *Dataset) h5Variables() []Variable {
	names := d.h5.ListVariables()
	out := make([]Variable, 0, len(names))
	for _, name := range names {
		vg, err := d.h5.GetVarGetter(name)
		if err != nil {
			continue
		}
		shape := make([]int, 0, len(vg.Shape()))
		for _, n := range vg.Shape() {
			shape = append(shape, int(n))
		}
		out = append(out, Variable{Name: name, Dimensions: vg.Dimensions(), Shape: shape})
	}
	return out
}

func (d *Dataset) h5Attributes(variable string) (api.AttributeMap, bool) {
	if variable == "" {
		return d.h5.Attributes(), true
	}
	vg, err := d.h5.GetVarGetter(variable)
	if err != nil {
		return nil, false
	}
	return vg.Attributes(), true
}

func (d *Dataset) h5ReadFloat64(variable string) ([]float64, error) {
	if !slices.Contains(d.h5.ListVariables(), variable) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, variable)
	}
	vg, err := d.h5.GetVarGetter(variable)
	if err != nil {
		return nil, fmt.Errorf("grid: read %s: %w", variable, err)
	}
	vals, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("grid: read %s: %w", variable, err)
	}
	data := make([]float64, 0, vg.Len())
	data, err = flatten(data, reflect.ValueOf(vals))
	if err != nil {
		return nil, fmt.Errorf("grid: %s: %w", variable, err)
	}
	if attrs := vg.Attributes(); attrs != nil {
		if fill, ok := attrs.Get("_FillValue"); ok {
			if err := maskFill(data, fill); err != nil {
				return nil, fmt.Errorf("grid: %s: %w", variable, err)
			}
		}
	}
	return data, nil
}

// flatten appends the numeric leaves of a nested slice in row-major order.
func flatten(dst []float64, v reflect.Value) ([]float64, error) {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		var err error
		for i := range v.Len() {
			if dst, err = flatten(dst, v.Index(i)); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case reflect.Float32, reflect.Float64:
		return append(dst, v.Float()), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return append(dst, float64(v.Int())), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return append(dst, float64(v.Uint())), nil
	default:
		return nil, fmt.Errorf("non-numeric kind %s", v.Kind())
	}
}

func maskFill(data []float64, fill any) error {
	fv, err := flatten(nil, reflect.ValueOf(fill))
	if err != nil || len(fv) == 0 {
		return fmt.Errorf("invalid _FillValue %T", fill)
	}
	for i, v := range data {
		if v == fv[0] {
			data[i] = math.NaN()
		}
	}
	return nil
}

func toFloat64(v any) ([]float64, error) {
	switch vals := v.(type) {
	case []float64:
		return vals, nil
	case []float32:
		return convert(vals), nil
	case []int32:
		return convert(vals), nil
	case []int16:
		return convert(vals), nil
	case []int8:
		return convert(vals), nil
	default:
		return nil, fmt.Errorf("non-numeric type %T", v)
	}
}

func convert[T float32 | int32 | int16 | int8](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
