package policies

import (
	"context"

	"fleetrent/internal/domain/pricing"
)

// EstimatorPort shields handlers from the concrete pricing engine; a remote
// pricing service would satisfy the same port.
type EstimatorPort interface {
	Estimate(ctx context.Context, input pricing.EstimateInput) (pricing.CostBreakdown, error)
}

// StaticEstimator adapts the in-process estimator to the port.
type StaticEstimator struct {
	Engine pricing.Estimator
}

func (a StaticEstimator) Estimate(_ context.Context, input pricing.EstimateInput) (pricing.CostBreakdown, error) {
	return a.Engine.Estimate(input)
}

var _ EstimatorPort = StaticEstimator{}
