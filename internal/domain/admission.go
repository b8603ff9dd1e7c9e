package domain

import "time"

// JoinRequestSubTypeAdd marks a member asking to join, as opposed to an invite.
const JoinRequestSubTypeAdd = "add"

// JoinRequest is a pending request to join a group.
type JoinRequest struct {
	GroupID int64
	UserID  int64
	Comment string
	SubType string
	// Flag is the platform handle used to answer the request.
	Flag string
}

// AdmissionState names the terminal states of a join-request audit.
type AdmissionState string

const (
	AdmissionIgnored    AdmissionState = "IGNORED"
	AdmissionApproved   AdmissionState = "APPROVED"
	AdmissionRejected   AdmissionState = "REJECTED"
	AdmissionManualHold AdmissionState = "MANUAL_HOLD"
)

// Decision records how a join request was settled.
type Decision struct {
	ID        string
	GroupID   int64
	UserID    int64
	Flag      string
	TradeNo   string
	DonorID   string
	State     AdmissionState
	Reason    string
	CreatedAt time.Time
}
