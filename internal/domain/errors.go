package domain

import "errors"

var (
	ErrGroupNotConfigured  = errors.New("group not configured")
	ErrAccountUnavailable  = errors.New("account unavailable")
	ErrAccountMismatch     = errors.New("order not recognized by account")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderAmbiguous      = errors.New("multiple orders found")
	ErrNoMatchingAccount   = errors.New("no account recognized the order")
	ErrAlreadyBoundBySelf  = errors.New("donor already bound to member")
	ErrAlreadyBoundByOther = errors.New("donor already bound to another member")
	ErrUnknownConfigKey    = errors.New("unknown config key")
	ErrInvalidConfigValue  = errors.New("invalid config value")
)
