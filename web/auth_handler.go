package web

import (
	"encoding/json"
	"net/http"

	"github.com/parlorchat/parlor/types"
)

type loginInput struct {
	Username string `json:"username"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var in loginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	out, err := h.Service.Login(r.Context(), types.Login{
		Username: in.Username,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}
