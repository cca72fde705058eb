package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"syscall"

	"github.com/parlorchat/parlor/errs"
	"github.com/parlorchat/parlor/validator"
)

var errBadRequest = errors.New("bad request")

func (h *Handler) respond(w http.ResponseWriter, v any, statusCode int) {
	b, err := json.Marshal(v)
	if err != nil {
		h.respondErr(w, fmt.Errorf("json marshal http response body: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, err = w.Write(b)
	if err != nil && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, context.Canceled) {
		h.Logger.Error("write http response", "error", err)
	}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	statusCode := err2code(err)
	if statusCode == http.StatusInternalServerError {
		if !errors.Is(err, context.Canceled) {
			h.Logger.Error("internal error", "error", err)
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Error(w, err.Error(), statusCode)
}

func err2code(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if errors.Is(err, errBadRequest) {
		return http.StatusBadRequest
	}

	var vErr *validator.Validator
	if errors.As(err, &vErr) {
		return http.StatusUnprocessableEntity
	}

	switch errs.KindOf(err) {
	case errs.KindInvalidArgument:
		return http.StatusUnprocessableEntity
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindAlreadyExists, errs.KindConflict:
		return http.StatusConflict
	case errs.KindPermissionDenied:
		return http.StatusForbidden
	case errs.KindUnauthenticated:
		return http.StatusUnauthorized
	}

	return http.StatusInternalServerError
}
