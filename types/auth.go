package types

import (
	"strings"
	"time"

	"github.com/parlorchat/parlor/validator"
)

type AuthOutput struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Login struct {
	Username string
}

func (in *Login) Validate() error {
	v := validator.New()

	in.Username = strings.TrimSpace(in.Username)

	if in.Username == "" {
		v.AddError("Username", "Username is required")
	}
	if !ValidUsername(in.Username) {
		v.AddError("Username", "Username is invalid")
	}

	return v.AsError()
}
