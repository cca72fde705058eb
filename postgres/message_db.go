package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"
	"github.com/parlorchat/parlor/errs"
	"github.com/parlorchat/parlor/id"
	"github.com/parlorchat/parlor/types"
)

func (p *Postgres) CreateMessage(ctx context.Context, in types.CreateMessage) (types.Message, error) {
	var out types.Message
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		if err := p.requireParticipant(ctx, in.ChatID, in.LoggedInUserID()); err != nil {
			return err
		}

		var err error
		out, err = p.insertMessage(ctx, in.ChatID, in.LoggedInUserID(), in.Content, types.MessageTypeText)
		return err
	})
}

func (p *Postgres) CreateFileMessage(ctx context.Context, in types.CreateFileMessage) (types.Message, error) {
	var out types.Message
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		if err := p.requireParticipant(ctx, in.ChatID, in.LoggedInUserID()); err != nil {
			return err
		}

		var err error
		out, err = p.insertMessage(ctx, in.ChatID, in.LoggedInUserID(), in.ContentURL(), types.MessageTypeFile)
		return err
	})
}

func (p *Postgres) insertMessage(ctx context.Context, chatID, userID, content string, typ types.MessageType) (types.Message, error) {
	var out types.Message

	const q = `
		INSERT INTO messages (id, chat_id, user_id, content, type)
		VALUES (@message_id, @chat_id, @user_id, @content, @type)
		RETURNING *
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"message_id": id.Generate(),
		"chat_id":    chatID,
		"user_id":    userID,
		"content":    content,
		"type":       typ,
	})
	if err != nil {
		return out, fmt.Errorf("sql insert message: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Message])
	if err != nil {
		return out, fmt.Errorf("sql collect inserted message: %w", err)
	}

	return out, nil
}

// UpdateMessage edits a message's content. Only the sender may edit.
func (p *Postgres) UpdateMessage(ctx context.Context, in types.UpdateMessage) (types.Message, error) {
	var out types.Message
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		msg, err := p.message(ctx, in.MessageID)
		if err != nil {
			return err
		}

		if msg.UserID != in.LoggedInUserID() {
			return errs.NewPermissionDeniedError("only the sender can edit a message")
		}

		const q = `
			UPDATE messages
			SET content = @content,
				updated_at = now()
			WHERE id = @message_id
			RETURNING *
		`

		rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
			"message_id": in.MessageID,
			"content":    in.Content,
		})
		if err != nil {
			return fmt.Errorf("sql update message: %w", err)
		}

		out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Message])
		if err != nil {
			return fmt.Errorf("sql collect updated message: %w", err)
		}

		return nil
	})
}

// DeleteMessage hard-deletes a message. Only the sender may delete.
func (p *Postgres) DeleteMessage(ctx context.Context, in types.DeleteMessage) error {
	return p.db.RunTx(ctx, func(ctx context.Context) error {
		msg, err := p.message(ctx, in.MessageID)
		if err != nil {
			return err
		}

		if msg.UserID != in.LoggedInUserID() {
			return errs.NewPermissionDeniedError("only the sender can delete a message")
		}

		const q = `
			DELETE FROM messages
			WHERE id = @message_id
		`

		if _, err := p.db.Exec(ctx, q, pgx.StrictNamedArgs{
			"message_id": in.MessageID,
		}); err != nil {
			return fmt.Errorf("sql delete message: %w", err)
		}

		return nil
	})
}

// ToggleStar flips the chat-scoped star flag. Any participant of the owning
// chat may star or unstar; the flag is shared, not per viewer.
func (p *Postgres) ToggleStar(ctx context.Context, in types.ToggleStar) (types.Message, error) {
	var out types.Message
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		msg, err := p.message(ctx, in.MessageID)
		if err != nil {
			return err
		}

		if err := p.requireParticipant(ctx, msg.ChatID, in.LoggedInUserID()); err != nil {
			return err
		}

		const q = `
			UPDATE messages
			SET is_starred = @starred,
				updated_at = now()
			WHERE id = @message_id
			RETURNING *
		`

		rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
			"message_id": in.MessageID,
			"starred":    in.Starred,
		})
		if err != nil {
			return fmt.Errorf("sql update message star: %w", err)
		}

		out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Message])
		if err != nil {
			return fmt.Errorf("sql collect starred message: %w", err)
		}

		return nil
	})
}

// MarkChatRead marks every message in the chat that the caller did not send
// as read.
func (p *Postgres) MarkChatRead(ctx context.Context, in types.MarkChatRead) error {
	return p.db.RunTx(ctx, func(ctx context.Context) error {
		if err := p.requireParticipant(ctx, in.ChatID, in.LoggedInUserID()); err != nil {
			return err
		}

		const q = `
			UPDATE messages
			SET status = @read_status,
				updated_at = now()
			WHERE chat_id = @chat_id
				AND user_id != @user_id
				AND status != @read_status
		`

		if _, err := p.db.Exec(ctx, q, pgx.StrictNamedArgs{
			"chat_id":     in.ChatID,
			"user_id":     in.LoggedInUserID(),
			"read_status": types.MessageStatusRead,
		}); err != nil {
			return fmt.Errorf("sql mark chat read: %w", err)
		}

		return nil
	})
}

// ChangeMessageStatus moves a message along sent -> delivered -> read.
// Regressions fail with a conflict error.
func (p *Postgres) ChangeMessageStatus(ctx context.Context, in types.ChangeMessageStatus) (types.Message, error) {
	var out types.Message
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		msg, err := p.message(ctx, in.MessageID)
		if err != nil {
			return err
		}

		if err := p.requireParticipant(ctx, msg.ChatID, in.LoggedInUserID()); err != nil {
			return err
		}

		if !msg.Status.CanTransitionTo(in.Status) {
			return types.ErrStatusRegression
		}

		const q = `
			UPDATE messages
			SET status = @status,
				updated_at = now()
			WHERE id = @message_id
			RETURNING *
		`

		rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
			"message_id": in.MessageID,
			"status":     in.Status,
		})
		if err != nil {
			return fmt.Errorf("sql update message status: %w", err)
		}

		out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Message])
		if err != nil {
			return fmt.Errorf("sql collect message with updated status: %w", err)
		}

		return nil
	})
}

// Messages lists a chat's messages newest first. The chat must be visible to
// the caller: membership required, and a soft-deleted copy reads as not found.
func (p *Postgres) Messages(ctx context.Context, in types.ListMessages) ([]types.Message, error) {
	retrieve := types.RetrieveChat{ChatID: in.ChatID}
	retrieve.SetLoggedInUserID(in.LoggedInUserID())

	if _, err := p.Chat(ctx, retrieve); err != nil {
		return nil, err
	}

	query := `
		SELECT messages.*,
			to_json(users) AS user,
			json_build_object(
				'isMine', messages.user_id = @user_id
			) AS relationship
		FROM messages
		INNER JOIN users ON messages.user_id = users.id
		WHERE messages.chat_id = @chat_id
	`
	args := pgx.StrictNamedArgs{
		"chat_id": in.ChatID,
		"user_id": in.LoggedInUserID(),
	}

	if in.StarredOnly {
		query += " AND messages.is_starred"
	}

	query += " ORDER BY messages.created_at DESC"

	rows, err := p.db.Query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("sql select messages: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Message])
	if err != nil {
		return nil, fmt.Errorf("sql collect messages: %w", err)
	}

	return out, nil
}

func (p *Postgres) message(ctx context.Context, messageID string) (types.Message, error) {
	var out types.Message

	const q = `
		SELECT *
		FROM messages
		WHERE id = @message_id
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"message_id": messageID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select message: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Message])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("message not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect message: %w", err)
	}

	return out, nil
}

func (p *Postgres) requireParticipant(ctx context.Context, chatID, userID string) error {
	if _, err := p.chatKind(ctx, chatID); err != nil {
		return err
	}

	_, err := p.participantRole(ctx, chatID, userID)
	if errs.IsNotFound(err) {
		return errs.NewPermissionDeniedError("not a participant of this chat")
	}

	return err
}
