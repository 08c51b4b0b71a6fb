package api

import (
	"context"

	"github.com/soyaya/boardling-sub002/internal/metrics"
	"github.com/soyaya/boardling-sub002/internal/models"
)

// ResolveAccess runs the privacy gate and records the outcome.
func (s *SettlementService) ResolveAccess(ctx context.Context, dataPackageId, requesterId string) (*models.AccessDecision, error) {
	decision, err := s.db.ResolveAccess(ctx, dataPackageId, requesterId)
	if err != nil {
		return nil, err
	}

	outcome := "denied"
	switch {
	case decision.Owner:
		outcome = "owner"
	case decision.Allowed:
		outcome = "granted"
	case decision.RequiresPayment:
		outcome = "payment_required"
	}
	metrics.RecordAccessDecision(outcome)
	return decision, nil
}
