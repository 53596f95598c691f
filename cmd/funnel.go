package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

var funnelCmd = &cobra.Command{
	Use:   "funnel <campaign-id>",
	Short: "Print funnel metrics for a stored campaign",
	Long: `Prints both campaign funnels for a completed run.

The Land Acquisition funnel tracks parcels from the input file through the
private-owner and residential filters. The Contact Processing funnel tracks
the fan-out from parcels to owners to mailing addresses and the final
direct-mail/agency routing split.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		campaign, err := st.GetCampaign(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "funnel")
		}
		if campaign.Result == nil {
			return eris.Errorf("campaign %s has no result (status %s)", campaign.ID, campaign.Status)
		}

		fmt.Printf("Campaign: %s (%s)\n\n", campaign.Name, campaign.ID)
		fmt.Println("Land Acquisition")
		formatFunnel(os.Stdout, campaign.Result.LandFunnel)
		fmt.Println("\nContact Processing")
		formatFunnel(os.Stdout, campaign.Result.ContactFunnel)

		if len(campaign.Result.Violations) > 0 {
			fmt.Printf("\n%d consistency violation(s):\n", len(campaign.Result.Violations))
			for _, v := range campaign.Result.Violations {
				fmt.Printf("  %s: expected %.2f, got %.2f (%s)\n", v.CheckName, v.Expected, v.Actual, v.Detail)
			}
		}
		return nil
	},
}

// formatFunnel writes one funnel's stages as a table.
func formatFunnel(out io.Writer, stages []model.FunnelStageMetric) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STAGE\tCOUNT\tHECTARES\tCONV%\tRET%\tRULE")

	for _, s := range stages {
		conv := "-"
		if s.ConversionRate != nil {
			conv = fmt.Sprintf("%.1f", *s.ConversionRate)
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f\t%s\t%.1f\t%s\n",
			s.StageName, s.Count, s.Hectares, conv, s.RetentionRate, s.BusinessRule)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(funnelCmd)
}
