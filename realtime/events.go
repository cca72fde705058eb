package realtime

import (
	"encoding/json"
	"time"

	"github.com/parlorchat/parlor/types"
)

type EventType string

// Client -> server events.
const (
	EventGetOnlineUsers EventType = "getOnlineUsers"
	EventSendMessage    EventType = "sendMessage"
	EventUpdateMessage  EventType = "updateMessage"
	EventTyping         EventType = "typing"
	EventMarkAsRead     EventType = "markAsRead"
	EventJoinChat       EventType = "joinChat"
	EventLeaveChat      EventType = "leaveChat"
	EventChangeStatus   EventType = "changeStatus"
	EventIsUserOnline   EventType = "isUserOnline"
)

// Server -> client events.
const (
	EventOnlineUsers    EventType = "onlineUsers"
	EventMessage        EventType = "message"
	EventMessageUpdated EventType = "messageUpdated"
	EventMessagesRead   EventType = "messagesRead"
	EventJoinedChat     EventType = "joinedChat"
	EventLeftChat       EventType = "leftChat"
	EventStatusChanged  EventType = "statusChanged"
	EventError          EventType = "error"
)

// Ack derives the acknowledgment event type sent back to the connection
// that emitted a client event.
func (t EventType) Ack() EventType {
	return t + ":ok"
}

type Incoming struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Envelope struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type sendMessageData struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
}

type updateMessageData struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type chatData struct {
	ChatID string `json:"chatId"`
}

type changeStatusData struct {
	ChatID    string              `json:"chatId"`
	MessageID string              `json:"messageId"`
	Status    types.MessageStatus `json:"status"`
}

type userData struct {
	UserID string `json:"userId"`
}

type typingEvent struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type messagesReadEvent struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type isUserOnlineEvent struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

type errorEvent struct {
	Event   EventType `json:"event,omitempty"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}
