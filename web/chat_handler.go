package web

import (
	"encoding/json"
	"net/http"

	"github.com/parlorchat/parlor/types"
	"golang.org/x/sync/errgroup"
)

type createGroupChatInput struct {
	Name string `json:"name"`
}

func (h *Handler) createGroupChat(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var in createGroupChatInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	chat, err := h.Service.CreateGroupChat(r.Context(), types.CreateGroupChat{
		Name: in.Name,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, chat, http.StatusCreated)
}

type createDirectChatInput struct {
	ParticipantID string `json:"participantId"`
}

func (h *Handler) createDirectChat(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var in createDirectChatInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	chat, err := h.Service.CreateDirectChat(r.Context(), types.CreateDirectChat{
		OtherUserID: in.ParticipantID,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, chat, http.StatusCreated)
}

func (h *Handler) chats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.Service.Chats(r.Context(), types.ListChats{})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if chats == nil {
		chats = []types.Chat{} // non null array
	}

	h.respond(w, chats, http.StatusOK)
}

type chatOutput struct {
	Chat         types.Chat          `json:"chat"`
	Participants []types.Participant `json:"participants"`
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var out chatOutput

	chatID := r.PathValue("chatID")
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		out.Chat, err = h.Service.Chat(gctx, types.RetrieveChat{
			ChatID: chatID,
		})
		return err
	})

	g.Go(func() error {
		var err error
		out.Participants, err = h.Service.Participants(gctx, chatID)
		return err
	})

	if err := g.Wait(); err != nil {
		h.respondErr(w, err)
		return
	}

	if out.Participants == nil {
		out.Participants = []types.Participant{} // non null array
	}

	h.respond(w, out, http.StatusOK)
}

type addParticipantInput struct {
	ParticipantID string `json:"participantId"`
}

func (h *Handler) addParticipant(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var in addParticipantInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	participant, err := h.Service.AddParticipant(r.Context(), types.AddParticipant{
		ChatID:    r.PathValue("chatID"),
		NewUserID: in.ParticipantID,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, participant, http.StatusCreated)
}

func (h *Handler) participants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.Service.Participants(r.Context(), r.PathValue("chatID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if participants == nil {
		participants = []types.Participant{} // non null array
	}

	h.respond(w, participants, http.StatusOK)
}

func (h *Handler) joinRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Service.JoinRequests(r.Context(), r.PathValue("chatID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if requests == nil {
		requests = []types.JoinRequest{} // non null array
	}

	h.respond(w, requests, http.StatusOK)
}

func (h *Handler) requestJoin(w http.ResponseWriter, r *http.Request) {
	request, err := h.Service.RequestJoin(r.Context(), types.RequestJoin{
		ChatID: r.PathValue("chatID"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, request, http.StatusCreated)
}

func (h *Handler) acceptJoin(w http.ResponseWriter, r *http.Request) {
	participant, err := h.Service.AcceptJoin(r.Context(), types.RespondJoin{
		ChatID:    r.PathValue("chatID"),
		RequestID: r.PathValue("requestID"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, participant, http.StatusCreated)
}

func (h *Handler) rejectJoin(w http.ResponseWriter, r *http.Request) {
	err := h.Service.RejectJoin(r.Context(), types.RespondJoin{
		ChatID:    r.PathValue("chatID"),
		RequestID: r.PathValue("requestID"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leaveChat(w http.ResponseWriter, r *http.Request) {
	err := h.Service.LeaveChat(r.Context(), types.LeaveChat{
		ChatID: r.PathValue("chatID"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type deleteOwnCopyOutput struct {
	HardDeleted bool `json:"hardDeleted"`
}

func (h *Handler) deleteOwnCopy(w http.ResponseWriter, r *http.Request) {
	hardDeleted, err := h.Service.DeleteOwnCopy(r.Context(), types.DeleteOwnCopy{
		ChatID: r.PathValue("chatID"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, deleteOwnCopyOutput{HardDeleted: hardDeleted}, http.StatusOK)
}

func (h *Handler) deleteGroupChat(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteGroupChat(r.Context(), types.DeleteGroupChat{
		ChatID: r.PathValue("chatID"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
