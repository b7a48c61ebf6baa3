package services_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"brewsignal/internal/policy"
	"brewsignal/internal/services"
	"brewsignal/internal/shared/testutil"
	"brewsignal/pkg/contracts/domain"
)

func ExampleEvaluationService_Evaluate() {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc, err := services.NewEvaluationService(policy.Default(), services.Options{}, logger)
	if err != nil {
		panic(err)
	}

	b := testutil.Bundle("no-data")
	eval, err := svc.Evaluate(context.Background(), b, services.EvaluateOptions{
		Overrides: map[string]float64{domain.KeyAdultFit: 0.1},
	})
	if err != nil {
		panic(err)
	}

	fmt.Println(eval.Allocation.Decision, eval.Allocation.FitGateScore, eval.DryRun)
	for _, line := range eval.Allocation.Explanations {
		fmt.Println(line)
	}
	// Output:
	// REJECT 10 true
	// Fit gate failed (10): entity does not meet minimum brand fit criteria
	// Moderate demand (50), market gap at 50
	// Low data confidence (3%): score significantly discounted
}
