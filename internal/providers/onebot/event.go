package onebot

import (
	"encoding/json"
	"fmt"

	"afdaudit/internal/domain"
)

const (
	PostTypeMessage = "message"
	PostTypeRequest = "request"

	MessageTypeGroup = "group"
	RequestTypeGroup = "group"
)

// Sender roles reported on group messages.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Sender describes the author of a message event.
type Sender struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	Card     string `json:"card"`
	Role     string `json:"role"`
}

// Event is the subset of a OneBot v11 event the service reacts to.
type Event struct {
	Time        int64  `json:"time"`
	SelfID      int64  `json:"self_id"`
	PostType    string `json:"post_type"`
	MessageType string `json:"message_type,omitempty"`
	RequestType string `json:"request_type,omitempty"`
	SubType     string `json:"sub_type,omitempty"`
	MessageID   int64  `json:"message_id,omitempty"`
	GroupID     int64  `json:"group_id,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
	RawMessage  string `json:"raw_message,omitempty"`
	Comment     string `json:"comment,omitempty"`
	Flag        string `json:"flag,omitempty"`
	Sender      Sender `json:"sender,omitempty"`
}

// ParseEvent decodes a webhook body.
func ParseEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("onebot: decode event: %w", err)
	}
	if ev.PostType == "" {
		return Event{}, fmt.Errorf("onebot: decode event: missing post_type")
	}
	return ev, nil
}

// IsGroupJoinRequest reports whether the event asks to join a group.
func (e Event) IsGroupJoinRequest() bool {
	return e.PostType == PostTypeRequest && e.RequestType == RequestTypeGroup
}

// IsGroupMessage reports whether the event is a message posted in a group.
func (e Event) IsGroupMessage() bool {
	return e.PostType == PostTypeMessage && e.MessageType == MessageTypeGroup
}

// JoinRequest converts a group request event.
func (e Event) JoinRequest() domain.JoinRequest {
	return domain.JoinRequest{
		GroupID: e.GroupID,
		UserID:  e.UserID,
		Comment: e.Comment,
		SubType: e.SubType,
		Flag:    e.Flag,
	}
}

// IsGroupManager reports whether the sender owns or administers the group.
func (e Event) IsGroupManager() bool {
	return e.Sender.Role == RoleOwner || e.Sender.Role == RoleAdmin
}
