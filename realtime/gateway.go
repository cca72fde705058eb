package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/parlorchat/parlor/auth"
	"github.com/parlorchat/parlor/errs"
	"github.com/parlorchat/parlor/types"
	"github.com/parlorchat/parlor/validator"
)

// ChatService is the slice of the service layer the gateway dispatches
// events to. Membership and ownership checks live behind it, so the realtime
// and HTTP entry points share one authorization path.
type ChatService interface {
	User(ctx context.Context, userID string) (types.User, error)
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
	CreateMessage(ctx context.Context, in types.CreateMessage) (types.Message, error)
	UpdateMessage(ctx context.Context, in types.UpdateMessage) (types.Message, error)
	MarkChatRead(ctx context.Context, in types.MarkChatRead) error
	ChangeMessageStatus(ctx context.Context, in types.ChangeMessageStatus) (types.Message, error)
}

// TokenVerifier resolves a handshake token to a user ID.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Gateway terminates websocket connections, tracks presence and rooms, and
// multiplexes chat events. Events from one connection are handled one at a
// time in arrival order; different connections proceed concurrently.
type Gateway struct {
	Service ChatService
	Tokens  TokenVerifier
	Logger  *slog.Logger
	BaseCtx context.Context

	presence *Presence
	rooms    *Rooms
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Conn // connectionID -> conn

	once sync.Once
}

func (g *Gateway) init() {
	g.presence = NewPresence()
	g.rooms = NewRooms()
	g.sessions = make(map[string]*Conn)
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1 << 10,
		WriteBufferSize: 1 << 10,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	if g.BaseCtx == nil {
		g.BaseCtx = context.Background()
	}
}

// ServeHTTP is the websocket handshake endpoint. The token travels in the
// "token" query parameter or an Authorization bearer header; a connection
// that fails verification never reaches the online state.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.once.Do(g.init)

	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}

	userID, err := g.Tokens.Verify(token)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := g.Service.User(r.Context(), userID)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.Logger.Error("websocket upgrade", "error", err)
		return
	}

	conn := newConn(user.ID, ws)
	conn.start()

	g.mu.Lock()
	g.sessions[conn.ID()] = conn
	g.mu.Unlock()

	g.presence.Register(conn.ID(), user.ID)
	g.broadcastOnlineUsers()

	g.Logger.Info("connection online", "connectionID", conn.ID(), "userID", user.ID)

	g.readLoop(conn, user)

	g.mu.Lock()
	delete(g.sessions, conn.ID())
	g.mu.Unlock()

	g.rooms.LeaveAll(conn.ID())
	g.presence.Unregister(conn.ID())
	conn.Close(websocket.CloseNormalClosure, "")
	g.broadcastOnlineUsers()

	g.Logger.Info("connection closed", "connectionID", conn.ID(), "userID", user.ID)
}

// readLoop handles the connection's events serially, preserving
// per-connection ordering.
func (g *Gateway) readLoop(conn *Conn, user types.User) {
	ws := conn.ws
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := auth.ContextWithUser(g.BaseCtx, user)

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.Logger.Error("websocket read", "connectionID", conn.ID(), "error", err)
			}
			return
		}

		var in Incoming
		if err := json.Unmarshal(payload, &in); err != nil {
			g.sendError(conn, "", errs.NewInvalidArgumentError("event", "malformed event"))
			continue
		}

		g.dispatch(ctx, conn, in)
	}
}

func (g *Gateway) dispatch(ctx context.Context, conn *Conn, in Incoming) {
	var err error
	switch in.Type {
	case EventGetOnlineUsers:
		err = g.handleGetOnlineUsers(conn)
	case EventSendMessage:
		err = g.handleSendMessage(ctx, conn, in.Data)
	case EventUpdateMessage:
		err = g.handleUpdateMessage(ctx, conn, in.Data)
	case EventTyping:
		err = g.handleTyping(ctx, conn, in.Data)
	case EventMarkAsRead:
		err = g.handleMarkAsRead(ctx, conn, in.Data)
	case EventJoinChat:
		err = g.handleJoinChat(ctx, conn, in.Data)
	case EventLeaveChat:
		err = g.handleLeaveChat(conn, in.Data)
	case EventChangeStatus:
		err = g.handleChangeStatus(ctx, conn, in.Data)
	case EventIsUserOnline:
		err = g.handleIsUserOnline(conn, in.Data)
	default:
		err = errs.NewInvalidArgumentError("type", fmt.Sprintf("unknown event %q", in.Type))
	}

	if err != nil {
		g.sendError(conn, in.Type, err)
	}
}

func (g *Gateway) handleGetOnlineUsers(conn *Conn) error {
	return g.emit(conn, EventOnlineUsers, g.presence.OnlineUserIDs())
}

// handleSendMessage persists the message and broadcasts it to the chat's
// room. The sender only hears its own echo if it joined the room itself.
func (g *Gateway) handleSendMessage(ctx context.Context, conn *Conn, data json.RawMessage) error {
	var d sendMessageData
	if err := json.Unmarshal(data, &d); err != nil {
		return errs.NewInvalidArgumentError("data", "malformed sendMessage payload")
	}

	msg, err := g.Service.CreateMessage(ctx, types.CreateMessage{
		ChatID:  d.ChatID,
		Content: d.Content,
	})
	if err != nil {
		return err
	}

	g.broadcast(d.ChatID, EventMessage, msg)
	return g.emit(conn, EventSendMessage.Ack(), msg)
}

func (g *Gateway) handleUpdateMessage(ctx context.Context, conn *Conn, data json.RawMessage) error {
	var d updateMessageData
	if err := json.Unmarshal(data, &d); err != nil {
		return errs.NewInvalidArgumentError("data", "malformed updateMessage payload")
	}

	msg, err := g.Service.UpdateMessage(ctx, types.UpdateMessage{
		MessageID: d.MessageID,
		Content:   d.Content,
	})
	if err != nil {
		return err
	}

	g.broadcast(msg.ChatID, EventMessageUpdated, msg)
	return g.emit(conn, EventUpdateMessage.Ack(), msg)
}

func (g *Gateway) handleTyping(ctx context.Context, conn *Conn, data json.RawMessage) error {
	var d chatData
	if err := json.Unmarshal(data, &d); err != nil {
		return errs.NewInvalidArgumentError("data", "malformed typing payload")
	}

	ok, err := g.Service.IsParticipant(ctx, d.ChatID, conn.UserID())
	if err != nil {
		return err
	}

	if !ok {
		return errs.NewPermissionDeniedError("not a participant of this chat")
	}

	g.broadcast(d.ChatID, EventTyping, typingEvent{
		ChatID: d.ChatID,
		UserID: conn.UserID(),
	})
	return g.emit(conn, EventTyping.Ack(), nil)
}

func (g *Gateway) handleMarkAsRead(ctx context.Context, conn *Conn, data json.RawMessage) error {
	var d chatData
	if err := json.Unmarshal(data, &d); err != nil {
		return errs.NewInvalidArgumentError("data", "malformed markAsRead payload")
	}

	if err := g.Service.MarkChatRead(ctx, types.MarkChatRead{ChatID: d.ChatID}); err != nil {
		return err
	}

	g.broadcast(d.ChatID, EventMessagesRead, messagesReadEvent{
		ChatID: d.ChatID,
		UserID: conn.UserID(),
	})
	return g.emit(conn, EventMarkAsRead.Ack(), nil)
}

func (g *Gateway) handleJoinChat(ctx context.Context, conn *Conn, data json.RawMessage) error {
	var d chatData
	if err := json.Unmarshal(data, &d); err != nil {
		return errs.NewInvalidArgumentError("data", "malformed joinChat payload")
	}

	ok, err := g.Service.IsParticipant(ctx, d.ChatID, conn.UserID())
	if err != nil {
		return err
	}

	if !ok {
		return errs.NewPermissionDeniedError("not a participant of this chat")
	}

	g.rooms.Join(d.ChatID, conn)
	return g.emit(conn, EventJoinedChat, chatData{ChatID: d.ChatID})
}

func (g *Gateway) handleLeaveChat(conn *Conn, data json.RawMessage) error {
	var d chatData
	if err := json.Unmarshal(data, &d); err != nil {
		return errs.NewInvalidArgumentError("data", "malformed leaveChat payload")
	}

	g.rooms.Leave(d.ChatID, conn.ID())
	return g.emit(conn, EventLeftChat, chatData{ChatID: d.ChatID})
}

func (g *Gateway) handleChangeStatus(ctx context.Context, conn *Conn, data json.RawMessage) error {
	var d changeStatusData
	if err := json.Unmarshal(data, &d); err != nil {
		return errs.NewInvalidArgumentError("data", "malformed changeStatus payload")
	}

	msg, err := g.Service.ChangeMessageStatus(ctx, types.ChangeMessageStatus{
		MessageID: d.MessageID,
		Status:    d.Status,
	})
	if err != nil {
		return err
	}

	g.broadcast(msg.ChatID, EventStatusChanged, msg)
	return g.emit(conn, EventChangeStatus.Ack(), msg)
}

func (g *Gateway) handleIsUserOnline(conn *Conn, data json.RawMessage) error {
	var d userData
	if err := json.Unmarshal(data, &d); err != nil {
		return errs.NewInvalidArgumentError("data", "malformed isUserOnline payload")
	}

	return g.emit(conn, EventIsUserOnline, isUserOnlineEvent{
		UserID:   d.UserID,
		IsOnline: g.presence.IsOnline(d.UserID),
	})
}

func (g *Gateway) emit(s Session, typ EventType, data any) error {
	payload, err := json.Marshal(Envelope{
		Type:      typ,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("json marshal %s event: %w", typ, err)
	}
	return s.Send(payload)
}

func (g *Gateway) broadcast(chatID string, typ EventType, data any) {
	payload, err := json.Marshal(Envelope{
		Type:      typ,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		g.Logger.Error("json marshal broadcast event", "type", typ, "error", err)
		return
	}
	g.rooms.Broadcast(chatID, payload)
}

// broadcastOnlineUsers pushes the full distinct online set to every live
// connection, on connect and disconnect.
func (g *Gateway) broadcastOnlineUsers() {
	online := g.presence.OnlineUserIDs()

	g.mu.RLock()
	sessions := make([]*Conn, 0, len(g.sessions))
	for _, s := range g.sessions {
		sessions = append(sessions, s)
	}
	g.mu.RUnlock()

	for _, s := range sessions {
		if err := g.emit(s, EventOnlineUsers, online); err != nil {
			g.Logger.Error("broadcast online users", "connectionID", s.ID(), "error", err)
		}
	}
}

func (g *Gateway) sendError(conn *Conn, event EventType, err error) {
	kind := errs.KindOf(err)
	var vErr *validator.Validator
	if errors.As(err, &vErr) {
		kind = errs.KindInvalidArgument
	}
	if kind == "" {
		g.Logger.Error("realtime event", "event", event, "error", err)
		kind = "internal"
	}

	if emitErr := g.emit(conn, EventError, errorEvent{
		Event:   event,
		Kind:    string(kind),
		Message: err.Error(),
	}); emitErr != nil {
		g.Logger.Error("send error event", "connectionID", conn.ID(), "error", emitErr)
	}
}
