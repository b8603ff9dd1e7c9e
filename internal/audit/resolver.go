package audit

import (
	"context"
	"errors"

	"afdaudit/internal/domain"
	"afdaudit/internal/infra"
	"afdaudit/internal/metrics"
)

// LookupStatus is the terminal state of an order resolution.
type LookupStatus int

const (
	LookupFound LookupStatus = iota
	LookupNotFound
	LookupAmbiguous
	LookupNoMatchingAccount
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	case LookupAmbiguous:
		return "ambiguous"
	case LookupNoMatchingAccount:
		return "no_matching_account"
	default:
		return "unknown"
	}
}

// LookupResult describes how a trade number resolved. AccountID names the
// account that answered; it is empty for LookupNoMatchingAccount.
type LookupResult struct {
	Status    LookupStatus
	Order     domain.DonorOrder
	AccountID string
	Count     int
}

// Resolver walks a group's author accounts in order until one of them
// answers a trade-number query.
type Resolver struct {
	creds    domain.CredentialBinding
	sessions domain.SessionRegistry
	metrics  *metrics.Collector
	logger   infra.Logger
}

// NewResolver wires a Resolver. metrics may be nil.
func NewResolver(creds domain.CredentialBinding, sessions domain.SessionRegistry, m *metrics.Collector, logger infra.Logger) *Resolver {
	return &Resolver{creds: creds, sessions: sessions, metrics: m, logger: logger}
}

// Configured reports whether group has any author accounts.
func (r *Resolver) Configured(group int64) bool {
	return len(r.creds.Authors(group)) > 0
}

// Resolve queries the group's authors sequentially. The first account that
// answers without error ends the walk, even when its answer is empty.
func (r *Resolver) Resolve(ctx context.Context, group int64, tradeNo string) (LookupResult, error) {
	authors := r.creds.Authors(group)
	if len(authors) == 0 {
		return LookupResult{}, domain.ErrGroupNotConfigured
	}
	log := r.logger.With().Int64("group_id", group).Str("trade_no", MaskOrder(tradeNo)).Logger()

	for _, accountID := range authors {
		session, ok := r.sessions.Session(accountID)
		if !ok {
			log.Warn().Str("account_id", accountID).Err(domain.ErrAccountUnavailable).Msg("audit: session missing, trying next author")
			continue
		}
		querier, ok := session.(domain.OrderQuerier)
		if !ok {
			log.Warn().Str("account_id", accountID).Err(domain.ErrAccountUnavailable).Msg("audit: session cannot query orders, trying next author")
			continue
		}

		orders, err := querier.QueryOrderByTradeNo(ctx, tradeNo)
		if err != nil {
			if errors.Is(err, domain.ErrAccountMismatch) {
				log.Info().Str("account_id", accountID).Err(err).Msg("audit: order rejected by author, trying next")
			} else {
				log.Error().Str("account_id", accountID).Err(err).Msg("audit: order query failed, trying next author")
			}
			continue
		}

		res := LookupResult{AccountID: accountID, Count: len(orders)}
		switch len(orders) {
		case 0:
			res.Status = LookupNotFound
		case 1:
			res.Status = LookupFound
			res.Order = orders[0]
		default:
			res.Status = LookupAmbiguous
		}
		log.Debug().Str("account_id", accountID).Stringer("result", res.Status).Int("count", res.Count).Msg("audit: order resolved")
		r.metrics.Lookup(res.Status.String())
		return res, nil
	}

	log.Warn().Int("authors", len(authors)).Msg("audit: no author recognized the order")
	r.metrics.Lookup(LookupNoMatchingAccount.String())
	return LookupResult{Status: LookupNoMatchingAccount}, nil
}
