package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/pipeline"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/report"
)

var reportOutput string

var reportCmd = &cobra.Command{
	Use:   "report <campaign-id>",
	Short: "Write the workbook for a stored campaign",
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
			return eris.Wrap(err, "report")
		}
		if campaign.Result == nil {
			return eris.Errorf("campaign %s has no result (status %s)", campaign.ID, campaign.Status)
		}

		// Raw input addresses are not persisted, so regenerated workbooks
		// carry classification rows without the raw-address column.
		rep := pipeline.AssembleReport(*campaign, pipeline.CampaignInput{}, campaign.Result)

		path := reportOutput
		if path == "" {
			path = filepath.Join(cfg.Report.OutputDir, campaign.ID+".xlsx")
		}
		if err := report.WriteWorkbook(rep, path); err != nil {
			return err
		}

		zap.L().Info("workbook written",
			zap.String("campaign_id", campaign.ID),
			zap.String("path", path))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOutput, "output", "", "workbook path (default <output_dir>/<campaign-id>.xlsx)")
	rootCmd.AddCommand(reportCmd)
}
