package http

import (
	"context"

	"brewsignal/internal/policy"
	"brewsignal/internal/services"
	"brewsignal/pkg/contracts/domain"
)

// EvaluationService is what the entity handlers need from the service layer
type EvaluationService interface {
	Evaluate(ctx context.Context, b domain.EntityBundle, opts services.EvaluateOptions) (domain.Evaluation, error)
	Rank(ctx context.Context, bundles []domain.EntityBundle) ([]domain.RankEntry, error)
	LaunchPlan(ctx context.Context, b domain.EntityBundle, overrides map[string]float64) (domain.LaunchPlan, error)
	Policy() policy.Policy
}

var _ EvaluationService = (*services.EvaluationService)(nil)
