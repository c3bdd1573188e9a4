package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/automuseums-gpx/internal/app"
	"github.com/JakeFAU/automuseums-gpx/internal/clock"
)

// now is replaced in tests.
var now clock.Clock = clock.New()

func newCountriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List the country names accepted by --country",
		Long: `Prints every country of the directory with the age of its cached listing.
The country list itself is served from cache while it is fresh.`,
		Args: cobra.NoArgs,
		RunE: runCountries,
	}
}

func runCountries(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	dir, err := app.NewDirectory(cfg, now, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	countries, err := dir.Countries(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, c := range countries {
		age := "never cached"
		if !c.NeverCached() {
			age = now.Now().Sub(c.CacheTimestamp).Truncate(time.Minute).String() + " old"
		}
		fmt.Fprintf(w, "%s\t%s\n", c.Name, age)
	}
	return w.Flush()
}
