package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seareport/seadata"
	"github.com/seareport/seadata/cache"
	"github.com/seareport/seadata/utm"
)

func (a *App) fetchCommand() *cobra.Command {
	var (
		req           seadata.Request
		skipDownload  bool
		skipHashCheck bool
	)
	cmd := &cobra.Command{
		Use:   "fetch FAMILY",
		Short: "Resolve a dataset into the cache and print its paths",
		Example: `  seadata fetch GEBCO --dataset ice
  seadata fetch GSHHG --resolution c --shoreline 5
  seadata fetch ETOPO --dataset surface --resolution 60sec`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Family = args[0]
			var opts []seadata.ResolveOption
			if skipDownload {
				opts = append(opts, seadata.SkipDownload())
			}
			if skipHashCheck {
				opts = append(opts, seadata.SkipHashCheck())
			}

			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			paths, err := c.Resolve(cmd.Context(), req, opts...)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Dataset, "dataset", "", "dataset within the family")
	f.StringVar(&req.Version, "version", "", "dataset version (default latest)")
	f.StringVar(&req.Resolution, "resolution", "", "grid or shoreline resolution")
	f.StringVar(&req.Shoreline, "shoreline", "", "GSHHG shoreline level")
	f.BoolVar(&skipDownload, "no-download", false, "only use files already in the cache")
	f.BoolVar(&skipHashCheck, "no-hash-check", false, "do not verify the files")
	return cmd
}

func (a *App) hashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash FILE...",
		Short: "Print the registry digest of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				sum, err := seadata.HashFile(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", sum, path)
			}
			return nil
		},
	}
}

func (a *App) cacheDirCommand() *cobra.Command {
	var usage bool
	cmd := &cobra.Command{
		Use:   "cache-dir",
		Short: "Print the cache root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, c.CacheDir())
			if !usage {
				return nil
			}

			entries, err := cache.Entries(c.CacheDir())
			if err != nil {
				return err
			}
			var total int64
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, e := range entries {
				total += e.Size
				fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Rel, e.Size, e.ModTime.Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(tw, "total\t%d\t\n", total)
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&usage, "usage", false, "list cached files and their sizes")
	return cmd
}

func (a *App) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the supported dataset families",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FAMILY\tKIND\tVERSIONS\tPARAMETERS")
			for _, f := range seadata.Families() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					f.Name, f.Kind, strings.Join(f.Versions, ","), describeParams(f))
			}
			return tw.Flush()
		},
	}
}

func describeParams(f seadata.FamilyInfo) string {
	names := make([]string, 0, len(f.Parameters))
	for name := range f.Parameters {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		values := f.Parameters[name]
		if def, ok := f.Defaults[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s (default %s)", name, strings.Join(values, "|"), def))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(values, "|")))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func (a *App) utmCommand() *cobra.Command {
	var (
		lon, lat float64
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "utm",
		Short: "List UTM tiles, or locate the tile containing a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			tiles := utm.Tiles()
			if flags.Changed("lon") || flags.Changed("lat") {
				if !flags.Changed("lon") || !flags.Changed("lat") {
					return errors.New("--lon and --lat must be given together")
				}
				t, err := utm.Locate(lon, lat)
				if err != nil {
					return err
				}
				tiles = []utm.Tile{t}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeTiles(out, tiles)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TILE\tCODE\tBOUNDS")
			for _, t := range tiles {
				b := t.Bounds()
				fmt.Fprintf(tw, "%s\t%s\t%g %g %g %g\n", t.Name(), t.Code, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
			}
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.Float64Var(&lon, "lon", 0, "longitude in degrees")
	f.Float64Var(&lat, "lat", 0, "latitude in degrees")
	f.BoolVar(&asJSON, "geojson", false, "write a GeoJSON feature collection")
	return cmd
}

type feature struct {
	Type       string         `json:"type"`
	Geometry   any            `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

func writeTiles(w io.Writer, tiles []utm.Tile) error {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(tiles))}
	for _, t := range tiles {
		g, err := t.GeoJSON()
		if err != nil {
			return fmt.Errorf("encode %s: %w", t.Name(), err)
		}
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			Geometry: g,
			Properties: map[string]any{
				"zone": t.Zone,
				"row":  t.Row,
				"code": t.Code,
			},
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}
