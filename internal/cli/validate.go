package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seareport/seadata"
	"github.com/seareport/seadata/internal/fsutil"
	"github.com/seareport/seadata/utm"
)

// DefaultValidateDir is the cache root validate uses when none is configured.
const DefaultValidateDir = "./seareport_data_temp"

// ErrValidationFailed is returned by validate when any resource failed.
var ErrValidationFailed = errors.New("validation failed")

// Case is one resource checked by validate.
type Case struct {
	Name   string
	Family string
	Run    func(ctx context.Context, c *seadata.Client) error
}

func resolveCase(name string, req seadata.Request) Case {
	return Case{
		Name:   name,
		Family: req.Family,
		Run: func(ctx context.Context, c *seadata.Client) error {
			_, err := c.Resolve(ctx, req)
			return err
		},
	}
}

// vectorCase opens the resolved file so its layer catalog is read too.
func vectorCase(name string, req seadata.Request) Case {
	return Case{
		Name:   name,
		Family: req.Family,
		Run: func(ctx context.Context, c *seadata.Client) error {
			ds, err := c.OpenVector(ctx, req)
			if err != nil {
				return err
			}
			return ds.Close()
		},
	}
}

// Cases enumerates every resource combination the registry publishes.
func Cases() []Case {
	var cases []Case

	for _, res := range []string{"crude", "low", "intermediate", "high", "full"} {
		for _, shore := range []string{"5", "6"} {
			cases = append(cases, vectorCase(fmt.Sprintf("GSHHG %s %s", res, shore),
				seadata.Request{Family: seadata.FamilyGSHHG, Resolution: res, Shoreline: shore}))
		}
	}

	cases = append(cases, resolveCase("Copernicus bathy 202511",
		seadata.Request{Family: seadata.FamilyCopernicus, Dataset: "bathy", Version: "202511"}))

	for _, ds := range []string{"ice", "sub_ice"} {
		for _, v := range []string{"2021", "2022", "2023", "2024", "2025"} {
			cases = append(cases, resolveCase(fmt.Sprintf("GEBCO %s %s", ds, v),
				seadata.Request{Family: seadata.FamilyGEBCO, Dataset: ds, Version: v}))
		}
	}

	for _, ds := range []string{"land", "ice"} {
		for _, v := range []string{"2025-10", "2025-05", "2025-01"} {
			cases = append(cases, vectorCase(fmt.Sprintf("OSM %s %s", ds, v),
				seadata.Request{Family: seadata.FamilyOSM, Dataset: ds, Version: v}))
		}
	}

	for _, ds := range []string{"bedrock", "surface", "geoid"} {
		for _, res := range []string{"30sec", "60sec"} {
			cases = append(cases, resolveCase(fmt.Sprintf("ETOPO %s %s 2022", ds, res),
				seadata.Request{Family: seadata.FamilyETOPO, Dataset: ds, Resolution: res, Version: "2022"}))
		}
	}

	for _, ds := range []string{"bedrock", "ice_base", "ice_thickness", "surface_elevation"} {
		cases = append(cases, resolveCase("RTOPO "+ds,
			seadata.Request{Family: seadata.FamilyRTOPO, Dataset: ds}))
	}

	cases = append(cases, resolveCase("SRTM15+", seadata.Request{Family: seadata.FamilySRTM15Plus}))

	cases = append(cases, Case{
		Name:   "UTM",
		Family: "UTM",
		Run: func(context.Context, *seadata.Client) error {
			if n := len(utm.Tiles()); n != 1201 {
				return fmt.Errorf("built %d tiles, want 1201", n)
			}
			return nil
		},
	})
	return cases
}

type failure struct {
	name string
	err  error
}

func (a *App) validateCommand() *cobra.Command {
	var (
		only []string
		keep bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Download and verify every published resource",
		Long: `validate resolves every family and parameter combination in turn,
removing the cache directory after each one to bound disk usage. It prints a
summary and fails if any resource could not be downloaded or verified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var extra []seadata.Option
			if a.cfg.CacheDir == "" {
				extra = append(extra, seadata.WithCacheDir(DefaultValidateDir))
			}
			c, err := a.client(cmd, extra...)
			if err != nil {
				return err
			}

			cases := Cases()
			if len(only) > 0 {
				cases = slices.DeleteFunc(cases, func(tc Case) bool {
					return !slices.ContainsFunc(only, func(f string) bool { return strings.EqualFold(f, tc.Family) })
				})
			}
			return a.runValidate(cmd, c, cases, keep)
		},
	}
	cmd.Flags().StringSliceVar(&only, "family", nil, "only validate these families")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep downloaded files instead of clearing the cache after each resource")
	return cmd
}

func (a *App) runValidate(cmd *cobra.Command, c *seadata.Client, cases []Case, keep bool) error {
	out := cmd.OutOrStdout()
	rule := strings.Repeat("=", 60)

	fmt.Fprintf(out, "Data directory: %s\n", c.CacheDir())
	fmt.Fprintf(out, "Total resources to validate: %d\n\n%s\n", len(cases), rule)

	var (
		succeeded []string
		failed    []failure
	)
	for i, tc := range cases {
		fmt.Fprintf(out, "\n[%d/%d] Downloading %s...\n", i+1, len(cases), tc.Name)
		err := tc.Run(cmd.Context(), c)
		if err != nil {
			fmt.Fprintf(out, "FAIL %s: %v\n", tc.Name, err)
			failed = append(failed, failure{tc.Name, err})
		} else {
			fmt.Fprintf(out, "OK   %s\n", tc.Name)
			succeeded = append(succeeded, tc.Name)
		}
		if !keep {
			fsutil.LenientRemoveAll(a.logger, c.CacheDir())
		}
		if cmd.Context().Err() != nil {
			break
		}
	}

	fmt.Fprintf(out, "\n%s\nVALIDATION SUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(out, "Total resources: %d\n", len(cases))
	fmt.Fprintf(out, "Succeeded: %d\n", len(succeeded))
	fmt.Fprintf(out, "Failed: %d\n", len(failed))
	if len(succeeded) > 0 {
		fmt.Fprintf(out, "\nSuccessful downloads (%d):\n", len(succeeded))
		for _, name := range succeeded {
			fmt.Fprintf(out, "  + %s\n", name)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(out, "\nFailed downloads (%d):\n", len(failed))
		for _, f := range failed {
			fmt.Fprintf(out, "  - %s: %v\n", f.name, f.err)
		}
		return fmt.Errorf("%w: %d of %d resources", ErrValidationFailed, len(failed), len(cases))
	}
	fmt.Fprintln(out, "\nAll resources validated successfully.")
	return nil
}
