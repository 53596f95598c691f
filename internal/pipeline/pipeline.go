package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/config"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

// Pipeline runs a full campaign: classify every candidate address, then
// reduce the classified set into funnel metrics, quality distribution and
// consistency checks. Classification is deterministic and idempotent, so a
// failed run is simply retried from scratch.
type Pipeline struct {
	classifier *Classifier
	workers    int
}

// New builds a Pipeline from configuration.
func New(cfg *config.Config) *Pipeline {
	workers := cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		classifier: NewClassifier(cfg.Classifier),
		workers:    workers,
	}
}

// Run executes the campaign over the given input. Per-address
// classification is embarrassingly parallel (pure function, no shared
// state); the aggregation stages run only after the classification barrier
// because rates are computed against global totals.
func (p *Pipeline) Run(ctx context.Context, input CampaignInput) (*model.CampaignResult, error) {
	log := zap.L().With(zap.Int("addresses", len(input.Addresses)))
	log.Info("pipeline: classification started",
		zap.Int("parcels", len(input.Parcels)),
		zap.Int("records", len(input.Records)),
		zap.Int("workers", p.workers),
	)

	classified, err := p.classifyAll(ctx, input.Addresses)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: classify")
	}

	land, contact := BuildFunnels(input, classified)

	result := &model.CampaignResult{
		Classified:     classified,
		LandFunnel:     land,
		ContactFunnel:  contact,
		Distribution:   BuildDistribution(classified),
		TotalAddresses: len(input.Addresses),
	}
	result.Violations = ValidateCampaign(result)

	log.Info("pipeline: campaign complete",
		zap.Int("direct_mail", countChannel(classified, model.ChannelDirectMail)),
		zap.Int("agency", countChannel(classified, model.ChannelAgency)),
		zap.Int("violations", len(result.Violations)),
	)
	return result, nil
}

// classifyAll fans classification out over a bounded worker group. Output
// order matches input order regardless of scheduling.
func (p *Pipeline) classifyAll(ctx context.Context, addrs []model.CandidateAddress) ([]model.ClassifiedAddress, error) {
	classified := make([]model.ClassifiedAddress, len(addrs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			classified[i] = p.classifier.Classify(addr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return classified, nil
}

func countChannel(classified []model.ClassifiedAddress, ch model.RoutingChannel) int {
	n := 0
	for _, c := range classified {
		if c.Channel == ch {
			n++
		}
	}
	return n
}
