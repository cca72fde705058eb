package service

import (
	"context"

	"github.com/parlorchat/parlor/auth"
	"github.com/parlorchat/parlor/errs"
	"github.com/parlorchat/parlor/types"
)

func (svc *Service) CreateGroupChat(ctx context.Context, in types.CreateGroupChat) (types.Chat, error) {
	var out types.Chat

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.CreateGroupChat(ctx, in)
}

func (svc *Service) CreateDirectChat(ctx context.Context, in types.CreateDirectChat) (types.Chat, error) {
	var out types.Chat

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	if in.OtherUserID == loggedInUser.ID {
		return out, errs.NewInvalidArgumentError("OtherUserID", "cannot open a direct chat with yourself")
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.CreateDirectChat(ctx, in)
}

func (svc *Service) Chat(ctx context.Context, in types.RetrieveChat) (types.Chat, error) {
	var out types.Chat

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.Chat(ctx, in)
}

func (svc *Service) Chats(ctx context.Context, in types.ListChats) ([]types.Chat, error) {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.Chats(ctx, in)
}

func (svc *Service) AddParticipant(ctx context.Context, in types.AddParticipant) (types.Participant, error) {
	var out types.Participant

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.AddParticipant(ctx, in)
}

func (svc *Service) RequestJoin(ctx context.Context, in types.RequestJoin) (types.JoinRequest, error) {
	var out types.JoinRequest

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.RequestJoin(ctx, in)
}

func (svc *Service) AcceptJoin(ctx context.Context, in types.RespondJoin) (types.Participant, error) {
	var out types.Participant

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.AcceptJoin(ctx, in)
}

func (svc *Service) RejectJoin(ctx context.Context, in types.RespondJoin) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.RejectJoin(ctx, in)
}

func (svc *Service) JoinRequests(ctx context.Context, chatID string) ([]types.JoinRequest, error) {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	return svc.Postgres.JoinRequests(ctx, chatID, loggedInUser.ID)
}

func (svc *Service) LeaveChat(ctx context.Context, in types.LeaveChat) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.LeaveChat(ctx, in)
}

// DeleteOwnCopy soft-deletes the caller's copy of the chat, and reports
// whether that was the last copy and the chat is now gone for everyone.
func (svc *Service) DeleteOwnCopy(ctx context.Context, in types.DeleteOwnCopy) (bool, error) {
	if err := in.Validate(); err != nil {
		return false, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return false, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.DeleteOwnCopy(ctx, in)
}

func (svc *Service) DeleteGroupChat(ctx context.Context, in types.DeleteGroupChat) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.DeleteGroupChat(ctx, in)
}

func (svc *Service) Participants(ctx context.Context, chatID string) ([]types.Participant, error) {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	return svc.Postgres.Participants(ctx, chatID, loggedInUser.ID)
}

// User resolves a user identity by ID. The realtime gateway uses it to turn
// verified token claims into a full identity during the handshake.
func (svc *Service) User(ctx context.Context, userID string) (types.User, error) {
	return svc.Postgres.User(ctx, userID)
}

// IsParticipant is the membership check shared with the realtime gateway.
func (svc *Service) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	return svc.Postgres.IsParticipant(ctx, chatID, userID)
}
