package cmd

import (
	"fmt"

	"github.com/giygas/govdata-api/chart"
	"github.com/giygas/govdata-api/mortality"
	"github.com/spf13/cobra"
)

var (
	flagFrom         string
	flagTo           string
	flagJurisdiction string
	flagCauses       []string
	flagOverlay      string
)

// mortalityQuery builds a query from the --from, --to and --jurisdiction flags
func mortalityQuery() (mortality.Query, error) {
	q := mortality.Query{Jurisdiction: flagJurisdiction}
	if flagFrom != "" {
		t, err := mortality.ParseDate(flagFrom)
		if err != nil {
			return q, fmt.Errorf("invalid --from value: %w", err)
		}
		q.From = t
	}
	if flagTo != "" {
		t, err := mortality.ParseDate(flagTo)
		if err != nil {
			return q, fmt.Errorf("invalid --to value: %w", err)
		}
		q.To = t
	}
	return q, nil
}

var mortalityCmd = &cobra.Command{
	Use:   "mortality",
	Short: "Print merged CDC weekly death counts, or a chart with --cause",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := mortalityQuery()
		if err != nil {
			return err
		}

		cl, err := buildClients(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cl.Close()

		records, err := cl.mortality.Obtain(cmd.Context())
		if err != nil {
			return err
		}

		if len(flagCauses) == 0 {
			return printJSON(cmd.OutOrStdout(), mortality.Filter(records, q))
		}

		var overlay *chart.Series
		if flagOverlay != "" {
			s, err := mortality.Series(mortality.Filter(records, q), flagOverlay)
			if err != nil {
				return err
			}
			overlay = &s
		}
		fig, err := mortality.Chart(records, q, flagCauses, overlay)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), fig)
	},
}

func init() {
	mortalityCmd.Flags().StringVar(&flagFrom, "from", "", "first week-ending date (YYYY-MM-DD)")
	mortalityCmd.Flags().StringVar(&flagTo, "to", "", "last week-ending date (YYYY-MM-DD)")
	mortalityCmd.Flags().StringVar(&flagJurisdiction, "jurisdiction", "", "jurisdiction of occurrence, e.g. Texas")
	mortalityCmd.Flags().StringSliceVar(&flagCauses, "cause", nil, "print a Plotly figure of these causes instead of the records")
	mortalityCmd.Flags().StringVar(&flagOverlay, "overlay", "", "cause drawn on a secondary axis (with --cause)")
}
