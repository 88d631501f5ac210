package cmd

import (
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var catalogPath string

// sectionsCmd prints the venue catalog
var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the venue's section tiers",
	Long: `Print every tier in the venue catalog with its elevation, price band,
sections, and the center and corner subsets used for scoring.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(catalogPath)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetTitle("%s (catalog %s)", catalog.Venue, catalog.Version)
		t.AppendHeader(table.Row{"Tier", "Elevation", "Price Band", "Sections", "Center", "Corners"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 4, WidthMax: 40},
		})
		t.Style().Options.SeparateRows = true

		for _, tier := range catalog.Tiers() {
			t.AppendRow(table.Row{
				tier.Name,
				tier.Elevation.String(),
				"$" + tier.PriceLow.StringFixed(0) + "-$" + tier.PriceHigh.StringFixed(0),
				strings.Join(tier.Sections, " "),
				setList(tier.Center),
				setList(tier.Corner),
			})
		}
		t.Render()
		return nil
	},
}

func init() {
	sectionsCmd.Flags().StringVar(&catalogPath, "catalog", "", "venue catalog YAML (default: built-in)")
}

func setList(set map[string]struct{}) string {
	if len(set) == 0 {
		return "-"
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, " ")
}
