package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored campaign runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaign runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		campaigns, err := st.ListCampaigns(ctx, store.CampaignFilter{
			Status: model.CampaignStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(campaigns) == 0 {
			fmt.Fprintln(os.Stderr, "No campaigns found.")
			return nil
		}

		formatCampaignList(os.Stdout, campaigns)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <campaign-id>",
	Short: "Show full details of a campaign run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		campaign, err := st.GetCampaign(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(campaign)
	},
}

// formatCampaignList writes a tabular list of campaigns to w.
func formatCampaignList(out io.Writer, campaigns []model.Campaign) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSTATUS\tADDRESSES\tCOST_EUR\tCREATED")

	for _, c := range campaigns {
		addresses, costEUR := "", ""
		if c.Result != nil {
			addresses = fmt.Sprintf("%d", c.Result.TotalAddresses)
			if c.Result.TotalCostEUR > 0 {
				costEUR = fmt.Sprintf("%.2f", c.Result.TotalCostEUR)
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(c.ID), c.Name, c.Status, addresses, costEUR,
			c.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// shortID returns the first 8 characters of a UUID for compact display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by status (queued, classifying, complete, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of campaigns to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
