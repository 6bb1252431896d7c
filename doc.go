// Package seadata gives cached, verified access to public geoscientific
// datasets: bathymetry and relief grids (GEBCO, ETOPO, IBCAO, RTopo,
// SRTM15+, EMODnet, Copernicus Marine), gravity (ANTGG) and vector layers
// (GSHHG shorelines, OpenStreetMap land and ice polygons).
//
// Every call follows the same steps: validate the parameters, look up the
// versioned record in the registry, download the file into the local cache
// if it is absent (unpacking zip, gzip or zstd archives), verify its
// XXH3-128 digest, and return the local path.
//
// # Quick Start
//
//	c, err := seadata.NewClient()
//	if err != nil {
//	    return err
//	}
//	paths, err := c.GEBCO(ctx, "ice", "")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(paths[0]) // ~/.cache/seareport_data/GEBCO/2025/ice/GEBCO_2025.nc
//
// # Cache
//
// The cache root is WithCacheDir if given, else SEAREPORT_DATA_DIR, else the
// platform cache directory. Entries are never evicted and are re-verified on
// every access, so a corrupted file is reported rather than returned.
//
// # Registry
//
// The registry is embedded in the module. Point WithRegistryURL (or
// FromRegistryURL for one call) at a JSON document with the same layout to
// use another catalog, or inject a loaded one with WithRegistry.
package seadata
