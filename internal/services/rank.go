package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "brewsignal/internal/errors"
	"brewsignal/pkg/contracts/domain"
)

// Rank evaluates every bundle with its launch plan and orders them by bd_score,
// highest first, ties broken by entity id. It stops at the first failure.
func (s *EvaluationService) Rank(ctx context.Context, bundles []domain.EntityBundle) ([]domain.RankEntry, error) {
	if s.maxRankBundles > 0 && len(bundles) > s.maxRankBundles {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("ranking accepts at most %d bundles", s.maxRankBundles)).
			WithContext("bundles", len(bundles))
	}

	ctx, span := s.tracer.Start(ctx, "evaluation.rank")
	defer span.End()

	start := time.Now()
	evals := make([]domain.Evaluation, len(bundles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.rankConcurrency)
	for i, b := range bundles {
		g.Go(func() error {
			eval, err := s.Evaluate(gctx, b, EvaluateOptions{IncludePlan: true})
			if err != nil {
				return fmt.Errorf("evaluate %q: %w", b.EntityID, err)
			}
			evals[i] = eval
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "ranking aborted", "bundles", len(bundles), "error", err)
		return nil, err
	}

	entries := RankEvaluations(evals)
	s.metrics.RecordRanking(ctx, len(entries))
	s.logger.InfoContext(ctx, "entities ranked",
		"bundles", len(entries),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return entries, nil
}

// RankEvaluations orders evaluations by bd_score and assigns 1-based ranks
func RankEvaluations(evals []domain.Evaluation) []domain.RankEntry {
	entries := make([]domain.RankEntry, 0, len(evals))
	for _, e := range evals {
		entries = append(entries, domain.NewRankEntry(e))
	}
	slices.SortStableFunc(entries, func(a, b domain.RankEntry) int {
		switch {
		case a.BDScore > b.BDScore:
			return -1
		case a.BDScore < b.BDScore:
			return 1
		default:
			return strings.Compare(a.EntityID, b.EntityID)
		}
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
