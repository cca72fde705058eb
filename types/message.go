package types

import (
	"time"
	"unicode/utf8"

	"github.com/parlorchat/parlor/errs"
	"github.com/parlorchat/parlor/id"
	"github.com/parlorchat/parlor/validator"
)

type MessageType string

const (
	MessageTypeText MessageType = "text"
	MessageTypeFile MessageType = "file"
)

func (t MessageType) Valid() bool {
	return t == MessageTypeText || t == MessageTypeFile
}

func (t MessageType) String() string {
	return string(t)
}

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

func (s MessageStatus) Valid() bool {
	return s == MessageStatusSent || s == MessageStatusDelivered || s == MessageStatusRead
}

func (s MessageStatus) String() string {
	return string(s)
}

func (s MessageStatus) rank() int {
	switch s {
	case MessageStatusSent:
		return 0
	case MessageStatusDelivered:
		return 1
	case MessageStatusRead:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next respects the
// sent -> delivered -> read ordering. Setting the same status again is allowed.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() >= s.rank()
}

type Message struct {
	ID        string        `json:"id" db:"id"`
	ChatID    string        `json:"chatID" db:"chat_id"`
	UserID    string        `json:"userID" db:"user_id"`
	Content   string        `json:"content" db:"content"`
	Type      MessageType   `json:"type" db:"type"`
	Status    MessageStatus `json:"status" db:"status"`
	IsStarred bool          `json:"isStarred" db:"is_starred"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`

	User         *User                `json:"user,omitempty" db:"user,omitempty"`
	Relationship *MessageRelationship `json:"relationship,omitempty" db:"relationship,omitempty"`
}

type MessageRelationship struct {
	IsMine bool `json:"isMine"`
}

type CreateMessage struct {
	ChatID  string
	Content string

	loggedInUserID string
}

func (in *CreateMessage) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in CreateMessage) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *CreateMessage) Validate() error {
	v := validator.New()

	if in.ChatID == "" {
		v.AddError("ChatID", "Chat ID is required")
	}
	if !id.Valid(in.ChatID) {
		v.AddError("ChatID", "Chat ID is invalid")
	}
	if in.Content == "" {
		v.AddError("Content", "Content is required")
	}
	if utf8.RuneCountInString(in.Content) > 1000 {
		v.AddError("Content", "Content must be at most 1000 characters")
	}

	return v.AsError()
}

type CreateFileMessage struct {
	ChatID string
	File   Attachment

	loggedInUserID string
	contentURL     string
}

func (in *CreateFileMessage) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in CreateFileMessage) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *CreateFileMessage) SetContentURL(url string) {
	in.contentURL = url
}

func (in CreateFileMessage) ContentURL() string {
	return in.contentURL
}

func (in *CreateFileMessage) Validate() error {
	v := validator.New()

	if in.ChatID == "" {
		v.AddError("ChatID", "Chat ID is required")
	}
	if !id.Valid(in.ChatID) {
		v.AddError("ChatID", "Chat ID is invalid")
	}
	if in.File.Reader() == nil {
		v.AddError("File", "File is required")
	}

	return v.AsError()
}

type UpdateMessage struct {
	MessageID string
	Content   string

	loggedInUserID string
}

func (in *UpdateMessage) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in UpdateMessage) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *UpdateMessage) Validate() error {
	v := validator.New()

	if in.MessageID == "" {
		v.AddError("MessageID", "Message ID is required")
	}
	if !id.Valid(in.MessageID) {
		v.AddError("MessageID", "Message ID is invalid")
	}
	if in.Content == "" {
		v.AddError("Content", "Content is required")
	}
	if utf8.RuneCountInString(in.Content) > 1000 {
		v.AddError("Content", "Content must be at most 1000 characters")
	}

	return v.AsError()
}

type DeleteMessage struct {
	MessageID string

	loggedInUserID string
}

func (in *DeleteMessage) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in DeleteMessage) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *DeleteMessage) Validate() error {
	v := validator.New()

	if in.MessageID == "" {
		v.AddError("MessageID", "Message ID is required")
	}
	if !id.Valid(in.MessageID) {
		v.AddError("MessageID", "Message ID is invalid")
	}

	return v.AsError()
}

type ToggleStar struct {
	MessageID string
	Starred   bool

	loggedInUserID string
}

func (in *ToggleStar) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ToggleStar) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *ToggleStar) Validate() error {
	v := validator.New()

	if in.MessageID == "" {
		v.AddError("MessageID", "Message ID is required")
	}
	if !id.Valid(in.MessageID) {
		v.AddError("MessageID", "Message ID is invalid")
	}

	return v.AsError()
}

type MarkChatRead struct {
	ChatID string

	loggedInUserID string
}

func (in *MarkChatRead) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in MarkChatRead) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *MarkChatRead) Validate() error {
	v := validator.New()

	if in.ChatID == "" {
		v.AddError("ChatID", "Chat ID is required")
	}
	if !id.Valid(in.ChatID) {
		v.AddError("ChatID", "Chat ID is invalid")
	}

	return v.AsError()
}

type ChangeMessageStatus struct {
	MessageID string
	Status    MessageStatus

	loggedInUserID string
}

func (in *ChangeMessageStatus) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ChangeMessageStatus) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *ChangeMessageStatus) Validate() error {
	v := validator.New()

	if in.MessageID == "" {
		v.AddError("MessageID", "Message ID is required")
	}
	if !id.Valid(in.MessageID) {
		v.AddError("MessageID", "Message ID is invalid")
	}
	if !in.Status.Valid() {
		v.AddError("Status", "Status must be one of sent, delivered or read")
	}

	return v.AsError()
}

// ErrStatusRegression is returned when a status change would move a message
// backwards in the sent -> delivered -> read ordering.
var ErrStatusRegression = errs.NewConflictError("message status cannot move backwards")

type ListMessages struct {
	ChatID      string
	StarredOnly bool

	loggedInUserID string
}

func (in *ListMessages) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListMessages) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *ListMessages) Validate() error {
	v := validator.New()

	if in.ChatID == "" {
		v.AddError("ChatID", "Chat ID is required")
	}
	if !id.Valid(in.ChatID) {
		v.AddError("ChatID", "Chat ID is invalid")
	}

	return v.AsError()
}
