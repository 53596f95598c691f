package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/cost"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/fetcher"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/pipeline"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/report"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/store"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/pkg/catasto"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/pkg/geocode"
)

var (
	runName      string
	runParcels   string
	runOwnership string
	runAddresses string
	runRegistry  bool
	runUTF8      bool
	runNoReport  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a land acquisition campaign",
	Long:  "Loads the parcel list, resolves ownership (from files or the registry), geocodes owner addresses, classifies them, and stores the campaign result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		tracker := cost.NewTracker(cost.NewCalculator(cost.Rates{
			Registry: cost.RegistryRate{PerParcel: cfg.Pricing.RegistryPerParcel},
			Geocode:  cost.GeocodeRate{PerRequest: cfg.Pricing.GeocodePerAddress},
		}), cfg.Pricing.StartingBalanceEUR)

		input, err := loadCampaignInput(ctx, st, tracker)
		if err != nil {
			return err
		}

		campaign, err := st.CreateCampaign(ctx, runName)
		if err != nil {
			return err
		}
		if err := st.UpdateCampaignStatus(ctx, campaign.ID, model.CampaignClassifying); err != nil {
			return err
		}

		res, err := pipeline.New(cfg).Run(ctx, input)
		if err != nil {
			if stErr := st.UpdateCampaignStatus(ctx, campaign.ID, model.CampaignFailed); stErr != nil {
				zap.L().Error("failed to mark campaign failed", zap.Error(stErr))
			}
			return eris.Wrap(err, "pipeline run")
		}

		summary := tracker.Summary()
		res.TotalCostEUR = summary.SpentEUR

		if err := st.SaveCampaignResult(ctx, campaign.ID, res); err != nil {
			return err
		}

		if !runNoReport {
			rep := pipeline.AssembleReport(*campaign, input, res)
			path := filepath.Join(cfg.Report.OutputDir, campaign.ID+".xlsx")
			if err := report.WriteWorkbook(rep, path); err != nil {
				return err
			}
			zap.L().Info("workbook written", zap.String("path", path))
		}

		zap.L().Info("campaign complete",
			zap.String("campaign_id", campaign.ID),
			zap.Int("addresses", res.TotalAddresses),
			zap.Int("violations", len(res.Violations)),
			zap.Float64("cost_eur", summary.SpentEUR),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"campaign_id":  campaign.ID,
			"addresses":    res.TotalAddresses,
			"distribution": res.Distribution,
			"violations":   res.Violations,
			"cost":         summary,
		})
	},
}

// loadCampaignInput assembles parcels, ownership records, and candidate
// addresses either from local export files or live from the registry.
// Addresses still lacking a geocoding result are resolved through the
// provider, cache first.
func loadCampaignInput(ctx context.Context, st store.Store, tracker *cost.Tracker) (pipeline.CampaignInput, error) {
	var input pipeline.CampaignInput

	parcels, err := fetcher.ReadParcelXLSX(runParcels, fetcher.ParcelXLSXOptions{})
	if err != nil {
		return input, err
	}
	input.Parcels = parcels

	if runRegistry {
		if cfg.Registry.BaseURL == "" {
			return input, eris.New("registry.base_url is required with --from-registry")
		}
		client := catasto.NewClient(cfg.Registry.BaseURL, cfg.Registry.APIKey,
			catasto.WithRateLimit(cfg.Registry.RateLimit),
			catasto.WithCostRecorder(tracker),
		)
		extracts, err := client.LookupAll(ctx, parcels)
		if err != nil {
			return input, eris.Wrap(err, "registry lookup")
		}
		for _, ex := range extracts {
			input.Records = append(input.Records, ex.Records...)
			input.Addresses = append(input.Addresses, ex.Addresses...)
		}
	} else {
		csvOpts := fetcher.CSVOptions{Windows1252: !runUTF8}

		ownership, err := os.Open(runOwnership)
		if err != nil {
			return input, eris.Wrap(err, "open ownership file")
		}
		defer ownership.Close() //nolint:errcheck
		input.Records, err = fetcher.ReadOwnershipCSV(ownership, csvOpts)
		if err != nil {
			return input, err
		}

		if runAddresses != "" {
			addresses, err := os.Open(runAddresses)
			if err != nil {
				return input, eris.Wrap(err, "open addresses file")
			}
			defer addresses.Close() //nolint:errcheck
			input.Addresses, err = fetcher.ReadAddressCSV(addresses, csvOpts)
			if err != nil {
				return input, err
			}
		}
	}

	if pending := countPending(input.Addresses); pending > 0 {
		if cfg.Geocode.BaseURL == "" {
			zap.L().Warn("geocode.base_url not set, leaving addresses unresolved",
				zap.Int("pending", pending))
			return input, nil
		}
		geocodePending(ctx, st, tracker, input.Addresses)
	}

	return input, nil
}

func countPending(addrs []model.CandidateAddress) int {
	n := 0
	for _, a := range addrs {
		if a.Status == model.GeocodingNotAttempted {
			n++
		}
	}
	return n
}

func geocodePending(ctx context.Context, st store.Store, tracker *cost.Tracker, addrs []model.CandidateAddress) {
	client := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.APIKey,
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
		geocode.WithCache(st, time.Duration(cfg.Geocode.CacheTTLDays)*24*time.Hour),
		geocode.WithCostRecorder(tracker),
	)

	for i, addr := range addrs {
		if addr.Status != model.GeocodingNotAttempted {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		addrs[i] = geocode.Resolve(ctx, client, addr)
	}
}

func init() {
	runCmd.Flags().StringVar(&runName, "name", "", "campaign name (required)")
	runCmd.Flags().StringVar(&runParcels, "parcels", "", "parcel list XLSX (required)")
	runCmd.Flags().StringVar(&runOwnership, "ownership", "", "ownership CSV export (file mode)")
	runCmd.Flags().StringVar(&runAddresses, "addresses", "", "owner addresses CSV (file mode, optional)")
	runCmd.Flags().BoolVar(&runRegistry, "from-registry", false, "fetch ownership live from the registry instead of files")
	runCmd.Flags().BoolVar(&runUTF8, "utf8", false, "input CSVs are UTF-8 instead of Windows-1252")
	runCmd.Flags().BoolVar(&runNoReport, "no-report", false, "skip writing the campaign workbook")
	_ = runCmd.MarkFlagRequired("name")
	_ = runCmd.MarkFlagRequired("parcels")
	rootCmd.AddCommand(runCmd)
}
