package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"afdaudit/internal/domain"
	"afdaudit/internal/i18n"
	"afdaudit/internal/infra"
)

// Binder performs the bind and find flows.
type Binder interface {
	Bind(ctx context.Context, member, group int64, tradeNo string) (string, error)
	Find(ctx context.Context, member, group int64, tradeNo string) (domain.DonorOrder, error)
}

// ConfigUpdater applies a group setting change and echoes the stored value.
type ConfigUpdater interface {
	Update(ctx context.Context, group int64, key, value string) (string, error)
}

// Message is a group chat message addressed to the bot.
type Message struct {
	GroupID int64
	UserID  int64
	Text    string
	// Manager is true when the sender owns or administers the group.
	Manager bool
}

// Handler turns chat commands into replies.
type Handler struct {
	parser     *Parser
	binder     Binder
	configs    ConfigUpdater
	messenger  domain.Messenger
	printer    *i18n.Printer
	superusers map[int64]struct{}
	logger     infra.Logger
}

type HandlerOptions struct {
	Parser     *Parser
	Binder     Binder
	Configs    ConfigUpdater
	Messenger  domain.Messenger
	Printer    *i18n.Printer
	Superusers []int64
	Logger     infra.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	su := make(map[int64]struct{}, len(opts.Superusers))
	for _, id := range opts.Superusers {
		su[id] = struct{}{}
	}
	parser := opts.Parser
	if parser == nil {
		parser = NewParser(nil)
	}
	printer := opts.Printer
	if printer == nil {
		printer = i18n.NewPrinter("")
	}
	return &Handler{
		parser:     parser,
		binder:     opts.Binder,
		configs:    opts.Configs,
		messenger:  opts.Messenger,
		printer:    printer,
		superusers: su,
		logger:     opts.Logger,
	}
}

// Handle answers msg when it is an afd command. It reports false for any
// other message.
func (h *Handler) Handle(ctx context.Context, msg Message) (bool, error) {
	cmd, ok := h.parser.Parse(msg.Text)
	if !ok {
		return false, nil
	}
	reply, err := h.Reply(ctx, msg, cmd)
	if sendErr := h.messenger.SendGroupMessage(ctx, msg.GroupID, reply); sendErr != nil {
		return true, errors.Join(err, fmt.Errorf("command: send reply: %w", sendErr))
	}
	return true, err
}

// Reply computes the text answering cmd. A non-nil error accompanies the
// generic internal-error reply.
func (h *Handler) Reply(ctx context.Context, msg Message, cmd Command) (string, error) {
	p := h.printer
	log := h.logger.With().Int64("group_id", msg.GroupID).Int64("user_id", msg.UserID).Logger()

	switch cmd.Kind {
	case KindHelp:
		return p.Sprintf(i18n.Help), nil
	case KindUsage:
		return p.Sprintf(i18n.Usage, p.Sprintf(cmd.Problem, cmd.ProblemArg)), nil

	case KindBind:
		donor, err := h.binder.Bind(ctx, msg.UserID, msg.GroupID, cmd.OrderID)
		switch {
		case err == nil:
			return p.Sprintf(i18n.BindOK, donor), nil
		case errors.Is(err, domain.ErrGroupNotConfigured):
			return p.Sprintf(i18n.BindNotConfigured), nil
		case errors.Is(err, domain.ErrAlreadyBoundBySelf):
			return p.Sprintf(i18n.BindAlreadySelf, donor), nil
		case errors.Is(err, domain.ErrAlreadyBoundByOther):
			return p.Sprintf(i18n.BindAlreadyOther), nil
		}
		if text, ok := h.lookupFailure(err); ok {
			return text, nil
		}
		log.Error().Err(err).Msg("command: bind failed")
		return p.Sprintf(i18n.InternalError), err

	case KindFind:
		order, err := h.binder.Find(ctx, msg.UserID, msg.GroupID, cmd.OrderID)
		if err == nil {
			return p.Sprintf(i18n.FindOK, order.TradeNo, order.DonorID, order.Amount, strconv.Itoa(order.Status)), nil
		}
		if errors.Is(err, domain.ErrGroupNotConfigured) {
			return p.Sprintf(i18n.FindNotConfigured), nil
		}
		if text, ok := h.lookupFailure(err); ok {
			return text, nil
		}
		log.Error().Err(err).Msg("command: find failed")
		return p.Sprintf(i18n.InternalError), err

	case KindConfig:
		if !h.mayConfigure(msg) {
			log.Info().Str("key", cmd.Key).Msg("command: config change refused")
			return p.Sprintf(i18n.ConfigForbidden), nil
		}
		echo, err := h.configs.Update(ctx, msg.GroupID, cmd.Key, cmd.Value)
		switch {
		case err == nil:
			return p.Sprintf(i18n.ConfigUpdated, cmd.Key, echo), nil
		case errors.Is(err, domain.ErrUnknownConfigKey):
			return p.Sprintf(i18n.ConfigUnknownKey, cmd.Key), nil
		case errors.Is(err, domain.ErrInvalidConfigValue):
			return p.Sprintf(i18n.ConfigInvalidValue, cmd.Key, cmd.Value), nil
		}
		log.Error().Err(err).Msg("command: config update failed")
		return p.Sprintf(i18n.InternalError), err
	}
	return p.Sprintf(i18n.Help), nil
}

func (h *Handler) lookupFailure(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrNoMatchingAccount):
		return h.printer.Sprintf(i18n.OrderNotFound), true
	case errors.Is(err, domain.ErrOrderAmbiguous):
		return h.printer.Sprintf(i18n.OrderAmbiguous), true
	}
	return "", false
}

func (h *Handler) mayConfigure(msg Message) bool {
	if msg.Manager {
		return true
	}
	_, ok := h.superusers[msg.UserID]
	return ok
}
