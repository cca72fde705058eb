package service

import (
	"context"
	"fmt"
	"time"

	"github.com/parlorchat/parlor/errs"
	"github.com/parlorchat/parlor/types"
)

// Login resolves the username to an existing user, creating one on first
// login, and issues a bearer token for it. Account management proper lives
// outside this service; this is the bridge the rest of the platform talks to.
func (svc *Service) Login(ctx context.Context, in types.Login) (types.AuthOutput, error) {
	var out types.AuthOutput

	if err := in.Validate(); err != nil {
		return out, err
	}

	user, err := svc.Postgres.UserByUsername(ctx, in.Username)
	if errs.IsNotFound(err) {
		user, err = svc.Postgres.CreateUser(ctx, in.Username)
	}
	if err != nil {
		return out, err
	}

	token, err := svc.Tokens.Issue(user.ID)
	if err != nil {
		return out, fmt.Errorf("issue auth token: %w", err)
	}

	out.User = user
	out.Token = token
	out.ExpiresAt = time.Now().Add(svc.TokenTTL)

	return out, nil
}
