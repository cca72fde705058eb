package types

import (
	"time"

	"github.com/parlorchat/parlor/id"
	"github.com/parlorchat/parlor/validator"
)

type JoinRequest struct {
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chatID" db:"chat_id"`
	UserID    string    `json:"userID" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	User *User `json:"user,omitempty" db:"user,omitempty"`
}

type RequestJoin struct {
	ChatID string

	loggedInUserID string
}

func (in *RequestJoin) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in RequestJoin) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *RequestJoin) Validate() error {
	v := validator.New()

	if in.ChatID == "" {
		v.AddError("ChatID", "Chat ID is required")
	}
	if !id.Valid(in.ChatID) {
		v.AddError("ChatID", "Chat ID is invalid")
	}

	return v.AsError()
}

type RespondJoin struct {
	ChatID    string
	RequestID string

	loggedInUserID string
}

func (in *RespondJoin) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in RespondJoin) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *RespondJoin) Validate() error {
	v := validator.New()

	if in.ChatID == "" {
		v.AddError("ChatID", "Chat ID is required")
	}
	if !id.Valid(in.ChatID) {
		v.AddError("ChatID", "Chat ID is invalid")
	}
	if in.RequestID == "" {
		v.AddError("RequestID", "Request ID is required")
	}
	if !id.Valid(in.RequestID) {
		v.AddError("RequestID", "Request ID is invalid")
	}

	return v.AsError()
}
