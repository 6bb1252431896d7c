package seadata

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/seareport/seadata/internal/archive"
	"github.com/seareport/seadata/registry"
)

// Dataset family names, as keyed in the registry.
const (
	FamilyGEBCO      = "GEBCO"
	FamilyETOPO      = "ETOPO"
	FamilyIBCAO      = "IBCAO"
	FamilyRTOPO      = "RTOPO"
	FamilySRTM15Plus = "SRTM15+"
	FamilyANTGG      = "ANTGG"
	FamilyGSHHG      = "GSHHG"
	FamilyEMODnet    = "EMODnet"
	FamilyOSM        = "OSM"
	FamilyCopernicus = "COPERNICUS"
)

// Reader engines a family's files are meant to be opened with.
const (
	EngineH5NetCDF = "h5netcdf"
	EngineRasterio = "rasterio"
	EngineScipy    = "scipy"
	EnginePyogrio  = "pyogrio"
)

// Kind says whether a family resolves to raster grids or vector layers.
type Kind uint8

// Dataset kinds.
const (
	KindGrid Kind = iota
	KindVector
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindGrid:
		return "grid"
	case KindVector:
		return "vector"
	default:
		return "unknown"
	}
}

// part names one request field used to build registry keys and cache paths.
type part uint8

const (
	partFamily part = iota
	partVersion
	partDataset
	partResolution
)

// source says where a family's files come from and how they are named.
type source uint8

const (
	// sourceRecord: the record carries url, filename, hash and maybe archive.
	sourceRecord source = iota
	// sourceBaseURL: one derived filename below base_url, hash from hashes.
	sourceBaseURL
	// sourceComposite: every hashes entry below base_url, each as name.zip.
	sourceComposite
	// sourceMarine: fetched by the marine service client using dataset_id.
	sourceMarine
)

// param is one closed-set request parameter.
type param struct {
	values []string
	// def is used when the caller leaves the parameter empty. A parameter
	// with values and no default is required.
	def string
}

func (p param) used() bool { return len(p.values) > 0 }

// family is the declarative description of one dataset family.
type family struct {
	name        string
	description string
	kind        Kind
	engine      string

	// versions lists the known versions in declared order; the last is the
	// default. versionsBy overrides it per dataset.
	versions   []string
	versionsBy map[string][]string

	dataset    param
	resolution param
	shoreline  param

	key    []part
	layout []part
	source source

	// filename derives the file name for sourceBaseURL families.
	filename func(Request) string
}

// Request selects one dataset. Empty fields take the family default;
// fields a family does not use must stay empty.
type Request struct {
	Family     string
	Version    string
	Dataset    string
	Resolution string
	Shoreline  string
}

func (r Request) String() string {
	fields := []string{r.Family}
	for _, v := range []string{r.Dataset, r.Resolution, r.Shoreline, r.Version} {
		if v != "" {
			fields = append(fields, v)
		}
	}
	return strings.Join(fields, " ")
}

var gshhgResolutions = map[string]string{
	"c": "crude",
	"l": "low",
	"i": "intermediate",
	"h": "high",
	"f": "full",
}

// rtopoFilename names an RTopo grid; the bedrock and ice base grids carry
// a _topography suffix.
func rtopoFilename(r Request) string {
	name := r.Dataset
	if name == "bedrock" || name == "ice_base" {
		name += "_topography"
	}
	return fmt.Sprintf("RTopo-%s_30sec_%s.nc", r.Version, name)
}

// gshhgFilename names a GSHHG layer. Resolutions are accepted as one letter
// in either case or spelled out; all map to the long lower-case form.
func gshhgFilename(r Request) string {
	long := gshhgResolutions[strings.ToLower(r.Resolution[:1])]
	return fmt.Sprintf("gshhg_%s_l%s.gpkg", long, r.Shoreline)
}

var families = []*family{
	{
		name:        FamilyGEBCO,
		description: "GEBCO global bathymetry grid",
		kind:        KindGrid,
		engine:      EngineH5NetCDF,
		versions:    []string{"2021", "2022", "2023", "2024", "2025"},
		dataset:     param{values: []string{"ice", "sub_ice"}},
		key:         []part{partFamily, partVersion, partDataset},
		layout:      []part{partFamily, partVersion, partDataset},
		source:      sourceRecord,
	},
	{
		name:        FamilyETOPO,
		description: "NOAA ETOPO 2022 global relief",
		kind:        KindGrid,
		engine:      EngineH5NetCDF,
		versions:    []string{"2022"},
		dataset:     param{values: []string{"bedrock", "surface", "geoid"}},
		resolution:  param{values: []string{"30sec", "60sec"}, def: "30sec"},
		key:         []part{partFamily, partVersion, partResolution, partDataset},
		layout:      []part{partFamily, partVersion},
		source:      sourceRecord,
	},
	{
		name:        FamilyIBCAO,
		description: "International Bathymetric Chart of the Arctic Ocean",
		kind:        KindGrid,
		engine:      EngineRasterio,
		versions:    []string{"2025"},
		dataset:     param{values: []string{"ice", "bedrock"}},
		resolution:  param{values: []string{"100m", "200m", "400m"}},
		key:         []part{partFamily, partVersion, partResolution, partDataset},
		layout:      []part{partFamily, partVersion, partDataset},
		source:      sourceRecord,
	},
	{
		name:        FamilyRTOPO,
		description: "RTopo-2 Antarctic ice and bed topography",
		kind:        KindGrid,
		engine:      EngineScipy,
		versions:    []string{"2.0.4"},
		dataset:     param{values: []string{"bedrock", "ice_base", "ice_thickness", "surface_elevation"}},
		key:         []part{partFamily, partVersion},
		layout:      []part{partFamily, partVersion},
		source:      sourceBaseURL,
		filename:    rtopoFilename,
	},
	{
		name:        FamilySRTM15Plus,
		description: "SRTM15+ global bathymetry and topography",
		kind:        KindGrid,
		engine:      EngineH5NetCDF,
		versions:    []string{"2.6"},
		key:         []part{partFamily, partVersion},
		layout:      []part{partFamily, partVersion},
		source:      sourceRecord,
	},
	{
		name:        FamilyANTGG,
		description: "Antarctic gravity grid",
		kind:        KindGrid,
		engine:      EngineRasterio,
		versions:    []string{"2022"},
		key:         []part{partFamily, partVersion},
		layout:      []part{partFamily, partVersion},
		source:      sourceRecord,
	},
	{
		name:        FamilyGSHHG,
		description: "GSHHG global shorelines",
		kind:        KindVector,
		engine:      EnginePyogrio,
		versions:    []string{"2.3.7.1"},
		resolution: param{values: []string{
			"c", "l", "i", "h", "f",
			"C", "L", "I", "H", "F",
			"crude", "low", "intermediate", "high", "full",
		}},
		shoreline: param{values: []string{"5", "6"}},
		key:       []part{partFamily, partVersion},
		layout:    []part{partFamily, partVersion},
		source:    sourceBaseURL,
		filename:  gshhgFilename,
	},
	{
		name:        FamilyEMODnet,
		description: "EMODnet Digital Terrain Model tiles",
		kind:        KindGrid,
		engine:      EngineH5NetCDF,
		versions:    []string{"2022"},
		key:         []part{partFamily, partVersion},
		layout:      []part{partFamily, partVersion},
		source:      sourceComposite,
	},
	{
		name:        FamilyOSM,
		description: "OpenStreetMap land and ice polygons",
		kind:        KindVector,
		engine:      EnginePyogrio,
		versions:    []string{"2025-01", "2025-05", "2025-10"},
		dataset:     param{values: []string{"land", "ice"}, def: "land"},
		key:         []part{partFamily, partVersion, partDataset},
		layout:      []part{partFamily, partVersion},
		source:      sourceRecord,
	},
	{
		name:        FamilyCopernicus,
		description: "Copernicus Marine global bathymetry",
		kind:        KindGrid,
		engine:      EngineH5NetCDF,
		versionsBy:  map[string][]string{"bathy": {"202511"}},
		dataset:     param{values: []string{"bathy"}, def: "bathy"},
		key:         []part{partFamily, partDataset, partVersion},
		layout:      []part{partFamily, partDataset, partVersion},
		source:      sourceMarine,
	},
}

func lookupFamily(name string) (*family, error) {
	for _, f := range families {
		if f.name == name {
			return f, nil
		}
	}
	names := make([]string, len(families))
	for i, f := range families {
		names[i] = f.name
	}
	return nil, &InvalidParameterError{Family: name, Name: "family", Value: name, Allowed: names}
}

// versionsFor returns the declared versions for a dataset.
func (f *family) versionsFor(dataset string) []string {
	if f.versionsBy != nil {
		return f.versionsBy[dataset]
	}
	return f.versions
}

// normalize validates every parameter of r and fills in defaults. It does
// no I/O.
func (f *family) normalize(r Request) (Request, error) {
	r.Family = f.name

	check := func(name string, p param, value *string) error {
		if !p.used() {
			if *value != "" {
				return &InvalidParameterError{Family: f.name, Name: name, Value: *value}
			}
			return nil
		}
		if *value == "" {
			*value = p.def
		}
		if !slices.Contains(p.values, *value) {
			return &InvalidParameterError{Family: f.name, Name: name, Value: *value, Allowed: p.values}
		}
		return nil
	}
	if err := check("dataset", f.dataset, &r.Dataset); err != nil {
		return r, err
	}
	if err := check("resolution", f.resolution, &r.Resolution); err != nil {
		return r, err
	}
	if err := check("shoreline", f.shoreline, &r.Shoreline); err != nil {
		return r, err
	}

	versions := f.versionsFor(r.Dataset)
	if r.Version == "" && len(versions) > 0 {
		r.Version = versions[len(versions)-1]
	}
	if !slices.Contains(versions, r.Version) {
		return r, &InvalidParameterError{Family: f.name, Name: "version", Value: r.Version, Allowed: versions}
	}
	return r, nil
}

func (f *family) parts(r Request, ps []part) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		switch p {
		case partFamily:
			out[i] = f.name
		case partVersion:
			out[i] = r.Version
		case partDataset:
			out[i] = r.Dataset
		case partResolution:
			out[i] = r.Resolution
		}
	}
	return out
}

// target is one file a request resolves to.
type target struct {
	name      string
	path      string
	url       string
	archive   string
	format    archive.Format
	hash      string
	datasetID string
}

// targets expands a record into the files to fetch and verify, in
// registry order.
func (f *family) targets(r Request, key []string, rec registry.Record, dir string) ([]target, error) {
	need := func(field, value string) error {
		if value == "" {
			return &UnknownRecordError{Keys: key, Missing: field}
		}
		return nil
	}
	hashFor := func(name string) (string, error) {
		h, ok := rec.Hashes.Get(name)
		if !ok {
			return "", &UnknownRecordError{Keys: append(slices.Clone(key), "hashes"), Missing: name}
		}
		return h, nil
	}

	switch f.source {
	case sourceRecord:
		if err := need("filename", rec.Filename); err != nil {
			return nil, err
		}
		if err := need("url", rec.URL); err != nil {
			return nil, err
		}
		t := target{
			name: rec.Filename,
			path: filepath.Join(dir, rec.Filename),
			url:  rec.URL,
			hash: rec.Hash,
		}
		if rec.Archive != "" {
			t.archive = rec.Archive
			t.format = archive.FormatFor(rec.Archive)
		}
		return []target{t}, nil

	case sourceBaseURL:
		if err := need("base_url", rec.BaseURL); err != nil {
			return nil, err
		}
		name := f.filename(r)
		h, err := hashFor(name)
		if err != nil {
			return nil, err
		}
		return []target{{
			name: name,
			path: filepath.Join(dir, name),
			url:  rec.BaseURL + name,
			hash: h,
		}}, nil

	case sourceComposite:
		if err := need("base_url", rec.BaseURL); err != nil {
			return nil, err
		}
		if rec.Hashes.Len() == 0 {
			return nil, &UnknownRecordError{Keys: key, Missing: "hashes"}
		}
		out := make([]target, 0, rec.Hashes.Len())
		for _, name := range rec.Hashes.Names() {
			h, _ := rec.Hashes.Get(name)
			out = append(out, target{
				name:    name,
				path:    filepath.Join(dir, name),
				url:     rec.BaseURL + name + ".zip",
				archive: name + ".zip",
				format:  archive.FormatZip,
				hash:    h,
			})
		}
		return out, nil

	case sourceMarine:
		if err := need("filename", rec.Filename); err != nil {
			return nil, err
		}
		if err := need("dataset_id", rec.DatasetID); err != nil {
			return nil, err
		}
		return []target{{
			name:      rec.Filename,
			path:      filepath.Join(dir, rec.Filename),
			hash:      rec.Hash,
			datasetID: rec.DatasetID,
		}}, nil
	}
	return nil, fmt.Errorf("family %s: unknown source %d", f.name, f.source)
}

// FamilyInfo describes a dataset family and its accepted parameters.
type FamilyInfo struct {
	Name        string
	Description string
	Kind        Kind
	Engine      string
	Composite   bool
	// Versions lists versions in declared order; the last is the default.
	// For families whose versions depend on the dataset, it is the union.
	Versions []string
	// Parameters maps a parameter name to its accepted values.
	Parameters map[string][]string
	// Defaults maps a parameter name to its default, when it has one.
	Defaults map[string]string
}

// Families describes every supported family in a stable order.
func Families() []FamilyInfo {
	out := make([]FamilyInfo, 0, len(families))
	for _, f := range families {
		info := FamilyInfo{
			Name:        f.name,
			Description: f.description,
			Kind:        f.kind,
			Engine:      f.engine,
			Composite:   f.source == sourceComposite,
			Parameters:  make(map[string][]string),
			Defaults:    make(map[string]string),
		}
		if f.versionsBy != nil {
			for _, ds := range f.dataset.values {
				for _, v := range f.versionsBy[ds] {
					if !slices.Contains(info.Versions, v) {
						info.Versions = append(info.Versions, v)
					}
				}
			}
		} else {
			info.Versions = slices.Clone(f.versions)
		}
		for name, p := range map[string]param{
			"dataset":    f.dataset,
			"resolution": f.resolution,
			"shoreline":  f.shoreline,
		} {
			if !p.used() {
				continue
			}
			info.Parameters[name] = slices.Clone(p.values)
			if p.def != "" {
				info.Defaults[name] = p.def
			}
		}
		out = append(out, info)
	}
	return out
}
