package web

import (
	"errors"
	"net/http"
	"testing"

	"github.com/parlorchat/parlor/errs"
	"github.com/parlorchat/parlor/validator"
)

func Test_err2code(t *testing.T) {
	v := validator.New()
	v.AddError("Name", "Name is required")

	tt := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "nil",
			err:  nil,
			want: http.StatusOK,
		},
		{
			name: "bad_request",
			err:  errBadRequest,
			want: http.StatusBadRequest,
		},
		{
			name: "validation",
			err:  v.AsError(),
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "invalid_argument",
			err:  errs.NewInvalidArgumentError("ChatID", "Chat ID is invalid"),
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "not_found",
			err:  errs.NewNotFoundError("chat not found"),
			want: http.StatusNotFound,
		},
		{
			name: "already_exists",
			err:  errs.NewAlreadyExistsError("already a participant of this chat"),
			want: http.StatusConflict,
		},
		{
			name: "conflict",
			err:  errs.NewConflictError("direct chat between these users already exists"),
			want: http.StatusConflict,
		},
		{
			name: "permission_denied",
			err:  errs.NewPermissionDeniedError("only admins can add participants"),
			want: http.StatusForbidden,
		},
		{
			name: "unauthenticated",
			err:  errs.Unauthenticated,
			want: http.StatusUnauthorized,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := err2code(tc.err); got != tc.want {
				t.Errorf("err2code(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
