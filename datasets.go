package seadata

import "context"

// The methods below are typed entry points over Resolve. Empty string
// arguments select the family default; the version default is always the
// last declared version.

// GEBCO resolves a GEBCO grid. dataset is "ice" or "sub_ice".
func (c *Client) GEBCO(ctx context.Context, dataset, version string, opts ...ResolveOption) ([]string, error) {
	return c.Resolve(ctx, Request{Family: FamilyGEBCO, Dataset: dataset, Version: version}, opts...)
}

// ETOPO resolves an ETOPO grid. dataset is "bedrock", "surface" or
// "geoid"; resolution is "30sec" (default) or "60sec".
func (c *Client) ETOPO(ctx context.Context, dataset, resolution, version string, opts ...ResolveOption) ([]string, error) {
	return c.Resolve(ctx, Request{Family: FamilyETOPO, Dataset: dataset, Resolution: resolution, Version: version}, opts...)
}

// IBCAO resolves an IBCAO grid. dataset is "ice" or "bedrock"; resolution
// is required and one of "100m", "200m", "400m".
func (c *Client) IBCAO(ctx context.Context, dataset, resolution, version string, opts ...ResolveOption) ([]string, error) {
	return c.Resolve(ctx, Request{Family: FamilyIBCAO, Dataset: dataset, Resolution: resolution, Version: version}, opts...)
}

// RTOPO resolves an RTopo-2 grid. dataset is "bedrock", "ice_base",
// "ice_thickness" or "surface_elevation".
func (c *Client) RTOPO(ctx context.Context, dataset, version string, opts ...ResolveOption) ([]string, error) {
	return c.Resolve(ctx, Request{Family: FamilyRTOPO, Dataset: dataset, Version: version}, opts...)
}

// SRTM15Plus resolves the SRTM15+ grid.
func (c *Client) SRTM15Plus(ctx context.Context, version string, opts ...ResolveOption) ([]string, error) {
	return c.Resolve(ctx, Request{Family: FamilySRTM15Plus, Version: version}, opts...)
}

// ANTGG resolves the Antarctic gravity grid.
func (c *Client) ANTGG(ctx context.Context, version string, opts ...ResolveOption) ([]string, error) {
	return c.Resolve(ctx, Request{Family: FamilyANTGG, Version: version}, opts...)
}

// GSHHG resolves a GSHHG shoreline layer. resolution accepts a single
// letter (c, l, i, h, f, either case) or the long name; shoreline is
// "5" or "6".
func (c *Client) GSHHG(ctx context.Context, resolution, shoreline, version string, opts ...ResolveOption) ([]string, error) {
	return c.Resolve(ctx, Request{Family: FamilyGSHHG, Resolution: resolution, Shoreline: shoreline, Version: version}, opts...)
}

// EMODnet resolves every EMODnet tile, in registry order.
func (c *Client) EMODnet(ctx context.Context, version string, opts ...ResolveOption) ([]string, error) {
	return c.Resolve(ctx, Request{Family: FamilyEMODnet, Version: version}, opts...)
}

// OSM resolves OpenStreetMap polygons. dataset is "land" (default) or "ice".
func (c *Client) OSM(ctx context.Context, dataset, version string, opts ...ResolveOption) ([]string, error) {
	return c.Resolve(ctx, Request{Family: FamilyOSM, Dataset: dataset, Version: version}, opts...)
}

// Copernicus resolves a Copernicus Marine product through the configured
// MarineClient. dataset defaults to "bathy".
func (c *Client) Copernicus(ctx context.Context, dataset, version string, opts ...ResolveOption) ([]string, error) {
	return c.Resolve(ctx, Request{Family: FamilyCopernicus, Dataset: dataset, Version: version}, opts...)
}
