package audit

import (
	"context"
	"errors"
	"fmt"

	"afdaudit/internal/domain"
	"afdaudit/internal/infra"
	"afdaudit/internal/metrics"
)

// BindingService links members to donors through a verified order.
type BindingService struct {
	resolver  *Resolver
	relations domain.RelationRepository
	metrics   *metrics.Collector
	logger    infra.Logger
}

func NewBindingService(resolver *Resolver, relations domain.RelationRepository, m *metrics.Collector, logger infra.Logger) *BindingService {
	return &BindingService{resolver: resolver, relations: relations, metrics: m, logger: logger}
}

// Bind resolves tradeNo for group and records the donor against member.
// On ErrAlreadyBoundBySelf the donor id is still returned.
func (s *BindingService) Bind(ctx context.Context, member, group int64, tradeNo string) (string, error) {
	order, err := s.Find(ctx, member, group, tradeNo)
	if err != nil {
		s.metrics.Bind(bindOutcome(err))
		return "", err
	}
	err = s.relations.Bind(ctx, member, order.DonorID)
	s.metrics.Bind(bindOutcome(err))
	switch {
	case err == nil:
		s.logger.Info().Int64("group_id", group).Int64("user_id", member).Str("donor_id", order.DonorID).Msg("audit: member bound")
		return order.DonorID, nil
	case errors.Is(err, domain.ErrAlreadyBoundBySelf):
		return order.DonorID, err
	case errors.Is(err, domain.ErrAlreadyBoundByOther):
		s.logger.Info().Int64("group_id", group).Int64("user_id", member).Str("donor_id", order.DonorID).Msg("audit: donor owned by another member")
		return "", err
	default:
		return "", fmt.Errorf("audit: bind: %w", err)
	}
}

// Find resolves tradeNo for group and returns the single matching order.
func (s *BindingService) Find(ctx context.Context, member, group int64, tradeNo string) (domain.DonorOrder, error) {
	res, err := s.resolver.Resolve(ctx, group, tradeNo)
	if err != nil {
		return domain.DonorOrder{}, err
	}
	s.logger.Debug().
		Int64("group_id", group).
		Int64("user_id", member).
		Stringer("result", res.Status).
		Msg("audit: manual lookup")
	switch res.Status {
	case LookupFound:
		return res.Order, nil
	case LookupAmbiguous:
		return domain.DonorOrder{}, domain.ErrOrderAmbiguous
	case LookupNoMatchingAccount:
		return domain.DonorOrder{}, domain.ErrNoMatchingAccount
	default:
		return domain.DonorOrder{}, domain.ErrOrderNotFound
	}
}

func bindOutcome(err error) string {
	switch {
	case err == nil:
		return "bound"
	case errors.Is(err, domain.ErrAlreadyBoundBySelf):
		return "already_self"
	case errors.Is(err, domain.ErrAlreadyBoundByOther):
		return "already_other"
	case errors.Is(err, domain.ErrGroupNotConfigured):
		return "not_configured"
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrNoMatchingAccount):
		return "not_found"
	case errors.Is(err, domain.ErrOrderAmbiguous):
		return "ambiguous"
	default:
		return "error"
	}
}
