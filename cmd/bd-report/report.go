package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"brewsignal/internal/exporter"
	"brewsignal/internal/services"
	"brewsignal/pkg/contracts/domain"
)

// buildReport evaluates every bundle with its launch plan and ranks the results.
// Plans follow ranking order.
func buildReport(ctx context.Context, svc *services.EvaluationService, bundles []domain.EntityBundle, concurrency int) (exporter.Report, error) {
	evals := make([]domain.Evaluation, len(bundles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, b := range bundles {
		g.Go(func() error {
			eval, err := svc.Evaluate(gctx, b, services.EvaluateOptions{IncludePlan: true})
			if err != nil {
				return fmt.Errorf("evaluate %q: %w", b.EntityID, err)
			}
			evals[i] = eval
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return exporter.Report{}, err
	}

	plans := make(map[string]domain.LaunchPlan, len(evals))
	for _, e := range evals {
		if e.LaunchPlan != nil {
			plans[e.EntityID] = *e.LaunchPlan
		}
	}

	report := exporter.Report{Ranking: services.RankEvaluations(evals)}
	for _, entry := range report.Ranking {
		if plan, ok := plans[entry.EntityID]; ok {
			report.Plans = append(report.Plans, exporter.EntityPlan{EntityID: entry.EntityID, Plan: plan})
		}
	}
	return report, nil
}

// printRanking writes the ranking as an aligned text table
func printRanking(out io.Writer, entries []domain.RankEntry, timeFormat string) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tENTITY\tDECISION\tBD SCORE\tCONFIDENCE\tLAUNCH WEEK")
	for _, e := range entries {
		week := "-"
		if e.RecommendedWeek != nil {
			week = e.RecommendedWeek.Format(timeFormat)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%d (%s)\t%s\n",
			e.Rank, e.EntityID, e.Decision, e.BDScore, e.ConfidenceScore, e.ConfidenceBand, week)
	}
	return tw.Flush()
}
