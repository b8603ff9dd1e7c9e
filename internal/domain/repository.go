package domain

import "context"

// RelationRepository stores member to donor bindings.
type RelationRepository interface {
	HasBinding(ctx context.Context, member int64, donor string) (bool, error)
	OwnerOf(ctx context.Context, donor string) (int64, bool, error)
	Bind(ctx context.Context, member int64, donor string) error
}

// GroupConfigRepository stores per-group audit settings.
type GroupConfigRepository interface {
	Get(ctx context.Context, group int64) (GroupConfig, error)
	Update(ctx context.Context, group int64, key, value string) (GroupConfig, error)
}

// DecisionRepository journals settled join requests.
type DecisionRepository interface {
	Record(ctx context.Context, decision *Decision) error
}

// CredentialBinding lists the author accounts configured for a group, in
// the order they should be consulted.
type CredentialBinding interface {
	Authors(group int64) []string
}

// Session is a live connection for one author account.
type Session interface {
	AccountID() string
}

// OrderQuerier is implemented by sessions that can query the donation
// platform. A nil error means the platform answered authoritatively, even
// with an empty list. Errors matching ErrAccountMismatch mean the platform
// rejected the query for this account; any other error is transient.
type OrderQuerier interface {
	Session
	QueryOrderByTradeNo(ctx context.Context, tradeNo string) ([]DonorOrder, error)
}

// SessionRegistry resolves author accounts to sessions.
type SessionRegistry interface {
	Session(accountID string) (Session, bool)
}

// Messenger delivers text to a chat group.
type Messenger interface {
	SendGroupMessage(ctx context.Context, group int64, text string) error
}

// JoinRequestResponder answers pending join requests.
type JoinRequestResponder interface {
	ApproveJoin(ctx context.Context, req JoinRequest) error
	RejectJoin(ctx context.Context, req JoinRequest, reason string) error
}

// MemberInfo looks up chat-platform member details.
type MemberInfo interface {
	Level(ctx context.Context, member int64) (int, error)
}
