package service

import (
	"context"
	"fmt"
	"path"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/parlorchat/parlor/auth"
	"github.com/parlorchat/parlor/errs"
	"github.com/parlorchat/parlor/types"
)

const AttachmentsBucket = "chat-attachments"

const MaxAttachmentBytes = 15 << 20 // 15MB

var ErrAttachmentTooLarge = errs.NewInvalidArgumentError("File", "attachment too large")

func (svc *Service) Messages(ctx context.Context, in types.ListMessages) ([]types.Message, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.Messages(ctx, in)
}

func (svc *Service) CreateMessage(ctx context.Context, in types.CreateMessage) (types.Message, error) {
	var out types.Message

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.CreateMessage(ctx, in)
}

// CreateFileMessage uploads the attachment first and only then records the
// message, undoing the upload in the background if the insert fails.
func (svc *Service) CreateFileMessage(ctx context.Context, in types.CreateFileMessage) (types.Message, error) {
	var out types.Message

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	if in.File.FileSize > MaxAttachmentBytes {
		return out, ErrAttachmentTooLarge
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	objectName, err := gonanoid.New()
	if err != nil {
		return out, fmt.Errorf("generate attachment object name: %w", err)
	}

	if ext := path.Ext(in.File.Path); ext != "" {
		objectName += ext
	}

	in.File.Path = objectName

	cleanup, err := svc.Minio.Upload(ctx, AttachmentsBucket, in.File)
	if err != nil {
		return out, fmt.Errorf("upload attachment: %w", err)
	}

	in.SetContentURL(svc.AttachmentURLPrefix + objectName)

	out, err = svc.Postgres.CreateFileMessage(ctx, in)
	if err != nil {
		svc.background(func(context.Context) error {
			cleanup()
			return nil
		})
		return out, err
	}

	return out, nil
}

func (svc *Service) UpdateMessage(ctx context.Context, in types.UpdateMessage) (types.Message, error) {
	var out types.Message

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.UpdateMessage(ctx, in)
}

func (svc *Service) DeleteMessage(ctx context.Context, in types.DeleteMessage) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.DeleteMessage(ctx, in)
}

func (svc *Service) ToggleStar(ctx context.Context, in types.ToggleStar) (types.Message, error) {
	var out types.Message

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.ToggleStar(ctx, in)
}

func (svc *Service) MarkChatRead(ctx context.Context, in types.MarkChatRead) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.MarkChatRead(ctx, in)
}

func (svc *Service) ChangeMessageStatus(ctx context.Context, in types.ChangeMessageStatus) (types.Message, error) {
	var out types.Message

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Postgres.ChangeMessageStatus(ctx, in)
}
