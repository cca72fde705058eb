package web

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/parlorchat/parlor/auth"
	"github.com/parlorchat/parlor/service"
)

type Handler struct {
	Service  *service.Service
	Tokens   *auth.Tokens
	Realtime http.Handler
	Logger   *slog.Logger

	handler http.Handler
	once    sync.Once
}

func (h *Handler) init() {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/login", h.login)
	mux.HandleFunc("POST /api/chats/group", h.createGroupChat)
	mux.HandleFunc("POST /api/chats/direct", h.createDirectChat)
	mux.HandleFunc("GET /api/chats", h.chats)
	mux.HandleFunc("GET /api/chats/{chatID}", h.chat)
	mux.HandleFunc("DELETE /api/chats/{chatID}", h.deleteOwnCopy)
	mux.HandleFunc("DELETE /api/chats/{chatID}/group", h.deleteGroupChat)
	mux.HandleFunc("GET /api/chats/{chatID}/participants", h.participants)
	mux.HandleFunc("POST /api/chats/{chatID}/participants", h.addParticipant)
	mux.HandleFunc("GET /api/chats/{chatID}/join-requests", h.joinRequests)
	mux.HandleFunc("POST /api/chats/{chatID}/join-requests", h.requestJoin)
	mux.HandleFunc("POST /api/chats/{chatID}/join-requests/{requestID}/accept", h.acceptJoin)
	mux.HandleFunc("POST /api/chats/{chatID}/join-requests/{requestID}/reject", h.rejectJoin)
	mux.HandleFunc("POST /api/chats/{chatID}/leave", h.leaveChat)
	mux.HandleFunc("GET /api/chats/{chatID}/messages", h.messages)
	mux.HandleFunc("GET /api/chats/{chatID}/messages/starred", h.starredMessages)
	mux.HandleFunc("POST /api/chats/{chatID}/files", h.createFileMessage)
	mux.HandleFunc("POST /api/messages/{messageID}/star", h.starMessage)
	mux.HandleFunc("POST /api/messages/{messageID}/unstar", h.unstarMessage)
	mux.HandleFunc("DELETE /api/messages/{messageID}", h.deleteMessage)
	mux.Handle("GET /ws", h.Realtime)

	h.handler = h.withUser(mux)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.init)
	h.handler.ServeHTTP(w, r)
}

// withUser attaches the authenticated user to the request context when a
// valid bearer token is present. The websocket handshake carries its own
// token, so it is left alone.
func (h *Handler) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := h.Tokens.Verify(token)
		if err != nil {
			h.respondErr(w, err)
			return
		}

		user, err := h.Service.User(r.Context(), userID)
		if err != nil {
			h.respondErr(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
	})
}
