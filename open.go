package seadata

import (
	"context"
	"fmt"

	"github.com/seareport/seadata/grid"
	"github.com/seareport/seadata/vector"
)

// OpenGrid resolves a grid family and opens the file. engine overrides
// the family's reader engine; leave it empty for the default.
//
// Composite families resolve to several files and cannot be opened as one
// grid; resolve them and open each path with grid.Open.
func (c *Client) OpenGrid(ctx context.Context, req Request, engine string, opts ...ResolveOption) (*grid.Dataset, error) {
	f, err := lookupFamily(req.Family)
	if err != nil {
		return nil, err
	}
	if f.kind != KindGrid {
		return nil, fmt.Errorf("%s is a %s family", f.name, f.kind)
	}
	if f.source == sourceComposite {
		return nil, fmt.Errorf("%s resolves to several files", f.name)
	}
	if engine == "" {
		engine = f.engine
	}
	// RTopo is netCDF classic, which the HDF5-based engine cannot read.
	if f.name == FamilyRTOPO && engine == EngineH5NetCDF {
		return nil, &InvalidParameterError{
			Family:  f.name,
			Name:    "engine",
			Value:   engine,
			Allowed: []string{EngineScipy, string(grid.EngineNetCDF4), EngineRasterio},
		}
	}

	paths, err := c.Resolve(ctx, req, opts...)
	if err != nil {
		return nil, err
	}
	return grid.Open(paths[0], grid.WithEngine(grid.Engine(engine)))
}

// OpenVector resolves a vector family and opens the file.
func (c *Client) OpenVector(ctx context.Context, req Request, opts ...ResolveOption) (*vector.Dataset, error) {
	f, err := lookupFamily(req.Family)
	if err != nil {
		return nil, err
	}
	if f.kind != KindVector {
		return nil, fmt.Errorf("%s is a %s family", f.name, f.kind)
	}

	paths, err := c.Resolve(ctx, req, opts...)
	if err != nil {
		return nil, err
	}
	return vector.Open(ctx, paths[0])
}
