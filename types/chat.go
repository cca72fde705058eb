package types

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/parlorchat/parlor/id"
	"github.com/parlorchat/parlor/validator"
)

type ChatKind string

const (
	ChatKindGroup  ChatKind = "group"
	ChatKindDirect ChatKind = "direct"
)

func (k ChatKind) Valid() bool {
	return k == ChatKindGroup || k == ChatKindDirect
}

func (k ChatKind) String() string {
	return string(k)
}

type Chat struct {
	ID        string    `json:"id" db:"id"`
	Kind      ChatKind  `json:"kind" db:"kind"`
	Name      *string   `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	Participation *Participant `json:"participation,omitempty" db:"participation,omitempty"`
}

type CreateGroupChat struct {
	Name string

	loggedInUserID string
}

func (in *CreateGroupChat) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in CreateGroupChat) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *CreateGroupChat) Validate() error {
	v := validator.New()

	in.Name = strings.TrimSpace(in.Name)

	if in.Name == "" {
		v.AddError("Name", "Name is required")
	}
	if utf8.RuneCountInString(in.Name) > 72 {
		v.AddError("Name", "Name must be at most 72 characters")
	}

	return v.AsError()
}

type CreateDirectChat struct {
	OtherUserID string

	loggedInUserID string
}

func (in *CreateDirectChat) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in CreateDirectChat) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *CreateDirectChat) Validate() error {
	v := validator.New()

	if in.OtherUserID == "" {
		v.AddError("OtherUserID", "Other user ID is required")
	}
	if !id.Valid(in.OtherUserID) {
		v.AddError("OtherUserID", "Other user ID is invalid")
	}

	return v.AsError()
}

type RetrieveChat struct {
	ChatID string

	loggedInUserID string
}

func (in *RetrieveChat) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in RetrieveChat) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *RetrieveChat) Validate() error {
	v := validator.New()

	if in.ChatID == "" {
		v.AddError("ChatID", "Chat ID is required")
	}
	if !id.Valid(in.ChatID) {
		v.AddError("ChatID", "Chat ID is invalid")
	}

	return v.AsError()
}

type ListChats struct {
	loggedInUserID string
}

func (in *ListChats) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListChats) LoggedInUserID() string {
	return in.loggedInUserID
}

type DeleteOwnCopy struct {
	ChatID string

	loggedInUserID string
}

func (in *DeleteOwnCopy) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in DeleteOwnCopy) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *DeleteOwnCopy) Validate() error {
	v := validator.New()

	if in.ChatID == "" {
		v.AddError("ChatID", "Chat ID is required")
	}
	if !id.Valid(in.ChatID) {
		v.AddError("ChatID", "Chat ID is invalid")
	}

	return v.AsError()
}

type DeleteGroupChat struct {
	ChatID string

	loggedInUserID string
}

func (in *DeleteGroupChat) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in DeleteGroupChat) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *DeleteGroupChat) Validate() error {
	v := validator.New()

	if in.ChatID == "" {
		v.AddError("ChatID", "Chat ID is required")
	}
	if !id.Valid(in.ChatID) {
		v.AddError("ChatID", "Chat ID is invalid")
	}

	return v.AsError()
}
