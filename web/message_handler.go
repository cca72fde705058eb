package web

import (
	"net/http"

	"github.com/parlorchat/parlor/service"
	"github.com/parlorchat/parlor/types"
)

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.Service.Messages(r.Context(), types.ListMessages{
		ChatID: r.PathValue("chatID"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if messages == nil {
		messages = []types.Message{} // non null array
	}

	h.respond(w, messages, http.StatusOK)
}

func (h *Handler) starredMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.Service.Messages(r.Context(), types.ListMessages{
		ChatID:      r.PathValue("chatID"),
		StarredOnly: true,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if messages == nil {
		messages = []types.Message{} // non null array
	}

	h.respond(w, messages, http.StatusOK)
}

func (h *Handler) createFileMessage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if err := r.ParseMultipartForm(service.MaxAttachmentBytes); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	defer r.MultipartForm.RemoveAll()

	f, header, err := r.FormFile("file")
	if err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	defer f.Close()

	if header.Size > service.MaxAttachmentBytes {
		h.respondErr(w, service.ErrAttachmentTooLarge)
		return
	}

	file := types.Attachment{
		Path:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		FileSize:    uint64(header.Size),
	}
	file.SetReader(f)

	msg, err := h.Service.CreateFileMessage(r.Context(), types.CreateFileMessage{
		ChatID: r.PathValue("chatID"),
		File:   file,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, msg, http.StatusCreated)
}

func (h *Handler) starMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.Service.ToggleStar(r.Context(), types.ToggleStar{
		MessageID: r.PathValue("messageID"),
		Starred:   true,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, msg, http.StatusOK)
}

func (h *Handler) unstarMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.Service.ToggleStar(r.Context(), types.ToggleStar{
		MessageID: r.PathValue("messageID"),
		Starred:   false,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, msg, http.StatusOK)
}

func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteMessage(r.Context(), types.DeleteMessage{
		MessageID: r.PathValue("messageID"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
