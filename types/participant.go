package types

import (
	"time"

	"github.com/parlorchat/parlor/id"
	"github.com/parlorchat/parlor/validator"
)

type ChatRole string

const (
	ChatRoleAdmin  ChatRole = "admin"
	ChatRoleMember ChatRole = "member"
)

func (r ChatRole) Valid() bool {
	return r == ChatRoleAdmin || r == ChatRoleMember
}

func (r ChatRole) String() string {
	return string(r)
}

type Participant struct {
	ChatID    string    `json:"chatID" db:"chat_id"`
	UserID    string    `json:"userID" db:"user_id"`
	Role      ChatRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	User *User `json:"user,omitempty" db:"user,omitempty"`
}

type AddParticipant struct {
	ChatID    string
	NewUserID string

	loggedInUserID string
}

func (in *AddParticipant) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in AddParticipant) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *AddParticipant) Validate() error {
	v := validator.New()

	if in.ChatID == "" {
		v.AddError("ChatID", "Chat ID is required")
	}
	if !id.Valid(in.ChatID) {
		v.AddError("ChatID", "Chat ID is invalid")
	}
	if in.NewUserID == "" {
		v.AddError("NewUserID", "New user ID is required")
	}
	if !id.Valid(in.NewUserID) {
		v.AddError("NewUserID", "New user ID is invalid")
	}

	return v.AsError()
}

type LeaveChat struct {
	ChatID string

	loggedInUserID string
}

func (in *LeaveChat) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in LeaveChat) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *LeaveChat) Validate() error {
	v := validator.New()

	if in.ChatID == "" {
		v.AddError("ChatID", "Chat ID is required")
	}
	if !id.Valid(in.ChatID) {
		v.AddError("ChatID", "Chat ID is invalid")
	}

	return v.AsError()
}
