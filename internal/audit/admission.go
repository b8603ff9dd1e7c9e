package audit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/juju/clock"

	"afdaudit/internal/domain"
	"afdaudit/internal/i18n"
	"afdaudit/internal/infra"
	"afdaudit/internal/metrics"
)

// Reasons attached to ignored and held requests.
const (
	IgnoreEmptyComment  = "empty_comment"
	IgnoreNotAdd        = "not_add"
	IgnoreNotConfigured = "not_configured"
	IgnoreDuplicate     = "duplicate"
	IgnoreAuditDisabled = "audit_disabled"

	HoldLevelUnavailable = "level_unavailable"
)

const (
	defaultMinDelay     = 3 * time.Second
	defaultMaxDelay     = 5 * time.Second
	defaultSeenCapacity = 1024
)

// Outcome reports how a join request was settled.
type Outcome struct {
	State   domain.AdmissionState
	Reason  string
	TradeNo string
	DonorID string
	Delay   time.Duration
}

// AdmissionOptions wires an AdmissionEngine. Decisions, Metrics, Printer and
// Clock are optional.
type AdmissionOptions struct {
	Resolver     *Resolver
	Relations    domain.RelationRepository
	Configs      domain.GroupConfigRepository
	Messenger    domain.Messenger
	Responder    domain.JoinRequestResponder
	Members      domain.MemberInfo
	Decisions    domain.DecisionRepository
	Printer      *i18n.Printer
	Clock        clock.Clock
	MinDelay     time.Duration
	MaxDelay     time.Duration
	SeenCapacity int
	Metrics      *metrics.Collector
	Logger       infra.Logger
}

// AdmissionEngine audits join requests against donation orders.
type AdmissionEngine struct {
	resolver  *Resolver
	relations domain.RelationRepository
	configs   domain.GroupConfigRepository
	messenger domain.Messenger
	responder domain.JoinRequestResponder
	members   domain.MemberInfo
	decisions domain.DecisionRepository
	printer   *i18n.Printer
	clock     clock.Clock
	minDelay  time.Duration
	maxDelay  time.Duration
	seen      *lru.Cache
	metrics   *metrics.Collector
	logger    infra.Logger
}

func NewAdmissionEngine(opts AdmissionOptions) (*AdmissionEngine, error) {
	if opts.Resolver == nil || opts.Relations == nil || opts.Configs == nil {
		return nil, errors.New("audit: resolver, relations and configs are required")
	}
	if opts.Messenger == nil || opts.Responder == nil || opts.Members == nil {
		return nil, errors.New("audit: messenger, responder and member info are required")
	}
	minDelay, maxDelay := opts.MinDelay, opts.MaxDelay
	if minDelay <= 0 && maxDelay <= 0 {
		minDelay, maxDelay = defaultMinDelay, defaultMaxDelay
	}
	if minDelay < 0 || maxDelay < minDelay {
		return nil, fmt.Errorf("audit: invalid approval delay bounds [%s, %s)", minDelay, maxDelay)
	}
	capacity := opts.SeenCapacity
	if capacity <= 0 {
		capacity = defaultSeenCapacity
	}
	seen, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("audit: seen cache: %w", err)
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	printer := opts.Printer
	if printer == nil {
		printer = i18n.NewPrinter("")
	}
	return &AdmissionEngine{
		resolver:  opts.Resolver,
		relations: opts.Relations,
		configs:   opts.Configs,
		messenger: opts.Messenger,
		responder: opts.Responder,
		members:   opts.Members,
		decisions: opts.Decisions,
		printer:   printer,
		clock:     clk,
		minDelay:  minDelay,
		maxDelay:  maxDelay,
		seen:      seen,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}, nil
}

// Handle runs one join request to a terminal state. Requests whose flag was
// already handled are ignored.
func (e *AdmissionEngine) Handle(ctx context.Context, req domain.JoinRequest) (Outcome, error) {
	tradeNo := strings.TrimSpace(req.Comment)
	log := e.logger.With().Int64("group_id", req.GroupID).Int64("user_id", req.UserID).Logger()

	switch {
	case tradeNo == "":
		log.Debug().Msg("admission: empty comment, ignored")
		return e.ignore(IgnoreEmptyComment), nil
	case req.SubType != domain.JoinRequestSubTypeAdd:
		log.Debug().Str("sub_type", req.SubType).Msg("admission: not an add request, ignored")
		return e.ignore(IgnoreNotAdd), nil
	case !e.resolver.Configured(req.GroupID):
		log.Warn().Msg("admission: group has no authors, ignored")
		return e.ignore(IgnoreNotConfigured), nil
	}
	if req.Flag != "" {
		if seen, _ := e.seen.ContainsOrAdd(req.Flag, struct{}{}); seen {
			log.Info().Str("flag", req.Flag).Msg("admission: duplicate request, ignored")
			return e.ignore(IgnoreDuplicate), nil
		}
	}

	cfg, err := e.configs.Get(ctx, req.GroupID)
	if err != nil {
		return Outcome{}, fmt.Errorf("audit: load group config: %w", err)
	}
	if !cfg.EnableAudit {
		log.Info().Msg("admission: audit disabled for group, ignored")
		return e.ignore(IgnoreAuditDisabled), nil
	}

	log = log.With().Str("trade_no", MaskOrder(tradeNo)).Logger()
	out, err := e.audit(ctx, log, req, cfg, tradeNo)
	out.TradeNo = tradeNo
	if err != nil {
		log.Error().Err(err).Str("state", string(out.State)).Msg("admission: audit failed")
	} else {
		log.Info().Str("state", string(out.State)).Str("reason", out.Reason).Msg("admission: settled")
	}
	if out.State != "" {
		e.record(ctx, log, req, out)
	}
	return out, err
}

func (e *AdmissionEngine) audit(ctx context.Context, log infra.Logger, req domain.JoinRequest, cfg domain.GroupConfig, tradeNo string) (Outcome, error) {
	user := strconv.FormatInt(req.UserID, 10)
	group := strconv.FormatInt(req.GroupID, 10)

	res, err := e.resolver.Resolve(ctx, req.GroupID, tradeNo)
	if err != nil {
		return Outcome{}, err
	}
	switch res.Status {
	case LookupNotFound:
		notice := e.printer.Sprintf(i18n.NoticeNotFound, user, MaskAccount(res.AccountID), e.suffix(cfg))
		return e.notifyAndDecide(ctx, log, req, cfg, notice, i18n.ReasonNotFound)
	case LookupNoMatchingAccount:
		notice := e.printer.Sprintf(i18n.NoticeNoAccount, user, MaskOrder(tradeNo), group, e.suffix(cfg))
		return e.notifyAndDecide(ctx, log, req, cfg, notice, i18n.ReasonNoAccount)
	case LookupAmbiguous:
		e.notify(ctx, log, req.GroupID, e.printer.Sprintf(i18n.NoticeAmbiguous, user, MaskOrder(tradeNo)))
		return Outcome{State: domain.AdmissionManualHold, Reason: e.printer.Sprintf(i18n.ReasonAmbiguous)}, nil
	}

	donor := res.Order.DonorID
	owner, owned, err := e.relations.OwnerOf(ctx, donor)
	if err != nil {
		return Outcome{DonorID: donor}, fmt.Errorf("audit: owner lookup: %w", err)
	}
	if owned && owner != req.UserID {
		return e.boundElsewhere(ctx, log, req, cfg, donor, owner)
	}

	if err := e.relations.Bind(ctx, req.UserID, donor); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyBoundBySelf):
		case errors.Is(err, domain.ErrAlreadyBoundByOther):
			owner, _, lookupErr := e.relations.OwnerOf(ctx, donor)
			if lookupErr != nil {
				return Outcome{DonorID: donor}, fmt.Errorf("audit: owner lookup: %w", lookupErr)
			}
			return e.boundElsewhere(ctx, log, req, cfg, donor, owner)
		default:
			return Outcome{DonorID: donor}, fmt.Errorf("audit: record relation: %w", err)
		}
	}

	if cfg.LevelRequired {
		level, err := e.members.Level(ctx, req.UserID)
		if err != nil {
			log.Error().Err(err).Msg("admission: level lookup failed, holding")
			e.notify(ctx, log, req.GroupID, e.printer.Sprintf(i18n.NoticeLevelUnknown, user))
			return Outcome{State: domain.AdmissionManualHold, Reason: HoldLevelUnavailable, DonorID: donor}, nil
		}
		if level < cfg.LevelRequiredValue {
			notice := e.printer.Sprintf(i18n.NoticeLevelLow, user, strconv.Itoa(level), group, strconv.Itoa(cfg.LevelRequiredValue), e.suffix(cfg))
			out, err := e.notifyAndDecide(ctx, log, req, cfg, notice, i18n.ReasonLevelTooLow)
			out.DonorID = donor
			return out, err
		}
	}

	delay := e.approvalDelay()
	log.Debug().Dur("delay", delay).Str("donor_id", donor).Msg("admission: approving after delay")
	e.metrics.ApprovalDelay(delay)
	select {
	case <-e.clock.After(delay):
	case <-ctx.Done():
		return Outcome{State: domain.AdmissionManualHold, DonorID: donor, Delay: delay}, ctx.Err()
	}
	if err := e.responder.ApproveJoin(ctx, req); err != nil {
		return Outcome{State: domain.AdmissionManualHold, DonorID: donor, Delay: delay}, fmt.Errorf("audit: approve: %w", err)
	}
	return Outcome{State: domain.AdmissionApproved, DonorID: donor, Delay: delay}, nil
}

func (e *AdmissionEngine) boundElsewhere(ctx context.Context, log infra.Logger, req domain.JoinRequest, cfg domain.GroupConfig, donor string, owner int64) (Outcome, error) {
	notice := e.printer.Sprintf(i18n.NoticeBoundOther,
		strconv.FormatInt(req.UserID, 10), strconv.FormatInt(owner, 10), e.suffix(cfg))
	out, err := e.notifyAndDecide(ctx, log, req, cfg, notice, i18n.ReasonBoundOther)
	out.DonorID = donor
	return out, err
}

// notifyAndDecide tells the group, then rejects when auto-reject is on and
// leaves the request pending otherwise.
func (e *AdmissionEngine) notifyAndDecide(ctx context.Context, log infra.Logger, req domain.JoinRequest, cfg domain.GroupConfig, notice, reasonKey string) (Outcome, error) {
	e.notify(ctx, log, req.GroupID, notice)
	reason := e.printer.Sprintf(reasonKey)
	if !cfg.EnableAutoReject {
		return Outcome{State: domain.AdmissionManualHold, Reason: reason}, nil
	}
	if err := e.responder.RejectJoin(ctx, req, reason); err != nil {
		return Outcome{State: domain.AdmissionManualHold, Reason: reason}, fmt.Errorf("audit: reject: %w", err)
	}
	return Outcome{State: domain.AdmissionRejected, Reason: reason}, nil
}

func (e *AdmissionEngine) notify(ctx context.Context, log infra.Logger, group int64, text string) {
	if err := e.messenger.SendGroupMessage(ctx, group, text); err != nil {
		log.Error().Err(err).Msg("admission: group notice not delivered")
	}
}

func (e *AdmissionEngine) suffix(cfg domain.GroupConfig) string {
	if cfg.EnableAutoReject {
		return e.printer.Sprintf(i18n.SuffixRejected)
	}
	return e.printer.Sprintf(i18n.SuffixManual)
}

// approvalDelay draws uniformly from [minDelay, maxDelay).
func (e *AdmissionEngine) approvalDelay() time.Duration {
	span := e.maxDelay - e.minDelay
	if span <= 0 {
		return e.minDelay
	}
	return e.minDelay + rand.N(span)
}

func (e *AdmissionEngine) ignore(reason string) Outcome {
	e.metrics.Decision(string(domain.AdmissionIgnored))
	return Outcome{State: domain.AdmissionIgnored, Reason: reason}
}

func (e *AdmissionEngine) record(ctx context.Context, log infra.Logger, req domain.JoinRequest, out Outcome) {
	e.metrics.Decision(string(out.State))
	if e.decisions == nil {
		return
	}
	err := e.decisions.Record(ctx, &domain.Decision{
		GroupID: req.GroupID,
		UserID:  req.UserID,
		Flag:    req.Flag,
		TradeNo: out.TradeNo,
		DonorID: out.DonorID,
		State:   out.State,
		Reason:  out.Reason,
	})
	if err != nil {
		log.Error().Err(err).Msg("admission: decision not journaled")
	}
}
