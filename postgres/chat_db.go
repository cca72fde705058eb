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

// participationJSON builds the caller's own participant row as a JSON column
// so it can be collected into types.Chat.Participation in one query.
const participationJSON = `
	json_build_object(
		'chatID', participants.chat_id,
		'userID', participants.user_id,
		'role', participants.role,
		'createdAt', participants.created_at
	) AS participation
`

func (p *Postgres) CreateGroupChat(ctx context.Context, in types.CreateGroupChat) (types.Chat, error) {
	var out types.Chat
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		chat, err := p.insertChat(ctx, types.ChatKindGroup, &in.Name)
		if err != nil {
			return err
		}

		if err := p.insertParticipant(ctx, chat.ID, in.LoggedInUserID(), types.ChatRoleAdmin); err != nil {
			return err
		}

		retrieve := types.RetrieveChat{ChatID: chat.ID}
		retrieve.SetLoggedInUserID(in.LoggedInUserID())

		out, err = p.Chat(ctx, retrieve)
		return err
	})
}

func (p *Postgres) CreateDirectChat(ctx context.Context, in types.CreateDirectChat) (types.Chat, error) {
	var out types.Chat
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		for _, userID := range []string{in.LoggedInUserID(), in.OtherUserID} {
			exists, err := p.userExists(ctx, userID)
			if err != nil {
				return err
			}

			if !exists {
				return errs.NewNotFoundError("user not found")
			}
		}

		exists, err := p.directChatExists(ctx, in.LoggedInUserID(), in.OtherUserID)
		if err != nil {
			return err
		}

		if exists {
			return errs.NewConflictError("direct chat between these users already exists")
		}

		chat, err := p.insertChat(ctx, types.ChatKindDirect, nil)
		if err != nil {
			return err
		}

		if err := p.insertParticipant(ctx, chat.ID, in.LoggedInUserID(), types.ChatRoleMember); err != nil {
			return err
		}

		if err := p.insertParticipant(ctx, chat.ID, in.OtherUserID, types.ChatRoleMember); err != nil {
			return err
		}

		retrieve := types.RetrieveChat{ChatID: chat.ID}
		retrieve.SetLoggedInUserID(in.LoggedInUserID())

		out, err = p.Chat(ctx, retrieve)
		return err
	})
}

func (p *Postgres) insertChat(ctx context.Context, kind types.ChatKind, name *string) (types.Created, error) {
	var out types.Created

	const q = `
		INSERT INTO chats (id, kind, name)
		VALUES (@chat_id, @kind, @name)
		RETURNING id, created_at
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"chat_id": id.Generate(),
		"kind":    kind,
		"name":    name,
	})
	if err != nil {
		return out, fmt.Errorf("sql insert chat: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Created])
	if err != nil {
		return out, fmt.Errorf("sql collect inserted chat: %w", err)
	}

	return out, nil
}

func (p *Postgres) insertParticipant(ctx context.Context, chatID, userID string, role types.ChatRole) error {
	const q = `
		INSERT INTO participants (chat_id, user_id, role)
		VALUES (@chat_id, @user_id, @role)
	`

	_, err := p.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"chat_id": chatID,
		"user_id": userID,
		"role":    role,
	})
	if db.IsUniqueViolationError(err) {
		return errs.NewAlreadyExistsError("already a participant of this chat")
	}

	if err != nil {
		return fmt.Errorf("sql insert participant: %w", err)
	}

	return nil
}

func (p *Postgres) directChatExists(ctx context.Context, userID, otherUserID string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM chats
			INNER JOIN participants AS a ON a.chat_id = chats.id AND a.user_id = @user_id
			INNER JOIN participants AS b ON b.chat_id = chats.id AND b.user_id = @other_user_id
			WHERE chats.kind = @direct_kind
		)
	`

	var exists bool
	err := p.db.QueryRow(ctx, q, pgx.StrictNamedArgs{
		"user_id":       userID,
		"other_user_id": otherUserID,
		"direct_kind":   types.ChatKindDirect,
	}).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sql select direct chat exists: %w", err)
	}

	return exists, nil
}

func (p *Postgres) AddParticipant(ctx context.Context, in types.AddParticipant) (types.Participant, error) {
	var out types.Participant
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		kind, err := p.chatKind(ctx, in.ChatID)
		if err != nil {
			return err
		}

		if kind != types.ChatKindGroup {
			return errs.NewPermissionDeniedError("participants can only be added to group chats")
		}

		role, err := p.participantRole(ctx, in.ChatID, in.LoggedInUserID())
		if errs.IsNotFound(err) {
			return errs.NewPermissionDeniedError("not a participant of this chat")
		}

		if err != nil {
			return err
		}

		if role != types.ChatRoleAdmin {
			return errs.NewPermissionDeniedError("only admins can add participants")
		}

		exists, err := p.userExists(ctx, in.NewUserID)
		if err != nil {
			return err
		}

		if !exists {
			return errs.NewNotFoundError("user not found")
		}

		if err := p.insertParticipant(ctx, in.ChatID, in.NewUserID, types.ChatRoleMember); err != nil {
			return err
		}

		out, err = p.participant(ctx, in.ChatID, in.NewUserID)
		return err
	})
}

func (p *Postgres) participant(ctx context.Context, chatID, userID string) (types.Participant, error) {
	var out types.Participant

	const q = `
		SELECT participants.*, to_json(users) AS user
		FROM participants
		INNER JOIN users ON users.id = participants.user_id
		WHERE participants.chat_id = @chat_id
			AND participants.user_id = @user_id
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"chat_id": chatID,
		"user_id": userID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select participant: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Participant])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("participant not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect participant: %w", err)
	}

	return out, nil
}

func (p *Postgres) chatKind(ctx context.Context, chatID string) (types.ChatKind, error) {
	var kind types.ChatKind

	const q = `
		SELECT kind
		FROM chats
		WHERE id = @chat_id
	`

	err := p.db.QueryRow(ctx, q, pgx.StrictNamedArgs{
		"chat_id": chatID,
	}).Scan(&kind)
	if db.IsNotFoundError(err) {
		return kind, errs.NewNotFoundError("chat not found")
	}

	if err != nil {
		return kind, fmt.Errorf("sql select chat kind: %w", err)
	}

	return kind, nil
}

// lockChat reads the chat row FOR UPDATE. Callers that insert or remove
// deletion markers take this lock first so concurrent marker writers for the
// same chat serialize and the hard-delete condition never counts stale rows.
func (p *Postgres) lockChat(ctx context.Context, chatID string) (types.ChatKind, error) {
	var kind types.ChatKind

	const q = `
		SELECT kind
		FROM chats
		WHERE id = @chat_id
		FOR UPDATE
	`

	err := p.db.QueryRow(ctx, q, pgx.StrictNamedArgs{
		"chat_id": chatID,
	}).Scan(&kind)
	if db.IsNotFoundError(err) {
		return kind, errs.NewNotFoundError("chat not found")
	}

	if err != nil {
		return kind, fmt.Errorf("sql select chat for update: %w", err)
	}

	return kind, nil
}

func (p *Postgres) participantRole(ctx context.Context, chatID, userID string) (types.ChatRole, error) {
	var role types.ChatRole

	const q = `
		SELECT role
		FROM participants
		WHERE chat_id = @chat_id
			AND user_id = @user_id
	`

	err := p.db.QueryRow(ctx, q, pgx.StrictNamedArgs{
		"chat_id": chatID,
		"user_id": userID,
	}).Scan(&role)
	if db.IsNotFoundError(err) {
		return role, errs.NewNotFoundError("participant not found")
	}

	if err != nil {
		return role, fmt.Errorf("sql select participant role: %w", err)
	}

	return role, nil
}

// Chat returns a chat visible to the caller. A chat the caller soft-deleted
// or never joined reads as not found.
func (p *Postgres) Chat(ctx context.Context, in types.RetrieveChat) (types.Chat, error) {
	var out types.Chat

	const q = `
		SELECT chats.*, ` + participationJSON + `
		FROM chats
		INNER JOIN participants ON participants.chat_id = chats.id
		WHERE chats.id = @chat_id
			AND participants.user_id = @user_id
			AND NOT EXISTS (
				SELECT 1
				FROM deletion_markers
				WHERE deletion_markers.chat_id = chats.id
					AND deletion_markers.user_id = @user_id
			)
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"chat_id": in.ChatID,
		"user_id": in.LoggedInUserID(),
	})
	if err != nil {
		return out, fmt.Errorf("sql select chat: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Chat])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("chat not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect chat: %w", err)
	}

	return out, nil
}

func (p *Postgres) Chats(ctx context.Context, in types.ListChats) ([]types.Chat, error) {
	const q = `
		SELECT chats.*, ` + participationJSON + `
		FROM chats
		INNER JOIN participants ON participants.chat_id = chats.id
		WHERE participants.user_id = @user_id
			AND NOT EXISTS (
				SELECT 1
				FROM deletion_markers
				WHERE deletion_markers.chat_id = chats.id
					AND deletion_markers.user_id = @user_id
			)
		ORDER BY chats.created_at DESC
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id": in.LoggedInUserID(),
	})
	if err != nil {
		return nil, fmt.Errorf("sql select chats: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Chat])
	if err != nil {
		return nil, fmt.Errorf("sql collect chats: %w", err)
	}

	return out, nil
}

func (p *Postgres) RequestJoin(ctx context.Context, in types.RequestJoin) (types.JoinRequest, error) {
	var out types.JoinRequest
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		kind, err := p.chatKind(ctx, in.ChatID)
		if err != nil {
			return err
		}

		if kind != types.ChatKindGroup {
			return errs.NewPermissionDeniedError("only group chats accept join requests")
		}

		_, err = p.participantRole(ctx, in.ChatID, in.LoggedInUserID())
		if err == nil {
			return errs.NewPermissionDeniedError("already a participant of this chat")
		}

		if !errs.IsNotFound(err) {
			return err
		}

		const q = `
			INSERT INTO join_requests (id, chat_id, user_id)
			VALUES (@request_id, @chat_id, @user_id)
			RETURNING *
		`

		rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
			"request_id": id.Generate(),
			"chat_id":    in.ChatID,
			"user_id":    in.LoggedInUserID(),
		})
		if err != nil {
			return fmt.Errorf("sql insert join request: %w", err)
		}

		out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.JoinRequest])
		if db.IsUniqueViolationError(err) {
			return errs.NewAlreadyExistsError("join request already pending")
		}

		if err != nil {
			return fmt.Errorf("sql collect inserted join request: %w", err)
		}

		return nil
	})
}

// AcceptJoin consumes the join request and adds the requesting user as a
// member. The responder must be an admin of the chat.
func (p *Postgres) AcceptJoin(ctx context.Context, in types.RespondJoin) (types.Participant, error) {
	var out types.Participant
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		req, err := p.consumeJoinRequest(ctx, in)
		if err != nil {
			return err
		}

		if err := p.insertParticipant(ctx, req.ChatID, req.UserID, types.ChatRoleMember); err != nil {
			return err
		}

		out, err = p.participant(ctx, req.ChatID, req.UserID)
		return err
	})
}

func (p *Postgres) RejectJoin(ctx context.Context, in types.RespondJoin) error {
	return p.db.RunTx(ctx, func(ctx context.Context) error {
		_, err := p.consumeJoinRequest(ctx, in)
		return err
	})
}

func (p *Postgres) consumeJoinRequest(ctx context.Context, in types.RespondJoin) (types.JoinRequest, error) {
	var out types.JoinRequest

	role, err := p.participantRole(ctx, in.ChatID, in.LoggedInUserID())
	if errs.IsNotFound(err) {
		return out, errs.NewPermissionDeniedError("not a participant of this chat")
	}

	if err != nil {
		return out, err
	}

	if role != types.ChatRoleAdmin {
		return out, errs.NewPermissionDeniedError("only admins can respond to join requests")
	}

	const q = `
		DELETE FROM join_requests
		WHERE id = @request_id
			AND chat_id = @chat_id
		RETURNING *
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"request_id": in.RequestID,
		"chat_id":    in.ChatID,
	})
	if err != nil {
		return out, fmt.Errorf("sql delete join request: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.JoinRequest])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("join request not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect deleted join request: %w", err)
	}

	return out, nil
}

func (p *Postgres) JoinRequests(ctx context.Context, chatID, userID string) ([]types.JoinRequest, error) {
	role, err := p.participantRole(ctx, chatID, userID)
	if errs.IsNotFound(err) {
		return nil, errs.NewPermissionDeniedError("not a participant of this chat")
	}

	if err != nil {
		return nil, err
	}

	if role != types.ChatRoleAdmin {
		return nil, errs.NewPermissionDeniedError("only admins can list join requests")
	}

	const q = `
		SELECT join_requests.*, to_json(users) AS user
		FROM join_requests
		INNER JOIN users ON users.id = join_requests.user_id
		WHERE join_requests.chat_id = @chat_id
		ORDER BY join_requests.created_at DESC
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"chat_id": chatID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select join requests: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.JoinRequest])
	if err != nil {
		return nil, fmt.Errorf("sql collect join requests: %w", err)
	}

	return out, nil
}

// LeaveChat removes the caller's participant row. Admins cannot leave;
// they must delete the chat instead so a group never loses its last admin.
// Leaving shrinks the participant set, so the hard-delete condition is
// re-checked afterwards: every remaining participant may already hold a
// deletion marker.
func (p *Postgres) LeaveChat(ctx context.Context, in types.LeaveChat) error {
	return p.db.RunTx(ctx, func(ctx context.Context) error {
		if _, err := p.lockChat(ctx, in.ChatID); err != nil {
			return err
		}

		role, err := p.participantRole(ctx, in.ChatID, in.LoggedInUserID())
		if err != nil {
			return err
		}

		if role == types.ChatRoleAdmin {
			return errs.NewPermissionDeniedError("admins cannot leave a chat; delete it instead")
		}

		const q = `
			DELETE FROM participants
			WHERE chat_id = @chat_id
				AND user_id = @user_id
		`

		if _, err := p.db.Exec(ctx, q, pgx.StrictNamedArgs{
			"chat_id": in.ChatID,
			"user_id": in.LoggedInUserID(),
		}); err != nil {
			return fmt.Errorf("sql delete participant: %w", err)
		}

		const dq = `
			DELETE FROM deletion_markers
			WHERE chat_id = @chat_id
				AND user_id = @user_id
		`

		if _, err := p.db.Exec(ctx, dq, pgx.StrictNamedArgs{
			"chat_id": in.ChatID,
			"user_id": in.LoggedInUserID(),
		}); err != nil {
			return fmt.Errorf("sql delete deletion marker: %w", err)
		}

		if _, err := p.hardDeleteIfFullyMarked(ctx, in.ChatID); err != nil {
			return err
		}

		return nil
	})
}

// DeleteOwnCopy soft-deletes the caller's copy of the chat. The chat row is
// locked before the marker insert, so two concurrent last soft-deletes
// serialize and the second one observes the first one's committed marker.
// It reports whether the chat was hard-deleted.
func (p *Postgres) DeleteOwnCopy(ctx context.Context, in types.DeleteOwnCopy) (bool, error) {
	var hardDeleted bool
	err := p.db.RunTx(ctx, func(ctx context.Context) error {
		if _, err := p.lockChat(ctx, in.ChatID); err != nil {
			return err
		}

		_, err := p.participantRole(ctx, in.ChatID, in.LoggedInUserID())
		if errs.IsNotFound(err) {
			return errs.NewPermissionDeniedError("not a participant of this chat")
		}

		if err != nil {
			return err
		}

		const markQ = `
			INSERT INTO deletion_markers (chat_id, user_id)
			VALUES (@chat_id, @user_id)
			ON CONFLICT (chat_id, user_id) DO NOTHING
		`

		if _, err := p.db.Exec(ctx, markQ, pgx.StrictNamedArgs{
			"chat_id": in.ChatID,
			"user_id": in.LoggedInUserID(),
		}); err != nil {
			return fmt.Errorf("sql insert deletion marker: %w", err)
		}

		hardDeleted, err = p.hardDeleteIfFullyMarked(ctx, in.ChatID)
		return err
	})
	return hardDeleted, err
}

// hardDeleteIfFullyMarked removes the chat once every participant holds a
// deletion marker. Callers must hold the chat row lock from lockChat so the
// two counts cannot race concurrent marker or participant writes.
func (p *Postgres) hardDeleteIfFullyMarked(ctx context.Context, chatID string) (bool, error) {
	const q = `
		DELETE FROM chats
		WHERE id = @chat_id
			AND (
				SELECT count(*) FROM deletion_markers WHERE chat_id = @chat_id
			) >= (
				SELECT count(*) FROM participants WHERE chat_id = @chat_id
			)
	`

	tag, err := p.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"chat_id": chatID,
	})
	if err != nil {
		return false, fmt.Errorf("sql conditionally delete chat: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteGroupChat hard-deletes the chat for every participant.
func (p *Postgres) DeleteGroupChat(ctx context.Context, in types.DeleteGroupChat) error {
	return p.db.RunTx(ctx, func(ctx context.Context) error {
		kind, err := p.chatKind(ctx, in.ChatID)
		if err != nil {
			return err
		}

		if kind != types.ChatKindGroup {
			return errs.NewPermissionDeniedError("not a group chat")
		}

		role, err := p.participantRole(ctx, in.ChatID, in.LoggedInUserID())
		if errs.IsNotFound(err) {
			return errs.NewPermissionDeniedError("not a participant of this chat")
		}

		if err != nil {
			return err
		}

		if role != types.ChatRoleAdmin {
			return errs.NewPermissionDeniedError("only admins can delete a group chat")
		}

		const q = `
			DELETE FROM chats
			WHERE id = @chat_id
		`

		if _, err := p.db.Exec(ctx, q, pgx.StrictNamedArgs{
			"chat_id": in.ChatID,
		}); err != nil {
			return fmt.Errorf("sql delete chat: %w", err)
		}

		return nil
	})
}

// IsParticipant is the shared membership check used by the realtime gateway
// before it lets a connection join a chat room.
func (p *Postgres) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	_, err := p.participantRole(ctx, chatID, userID)
	if errs.IsNotFound(err) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// Participants lists the members of a chat the caller belongs to.
func (p *Postgres) Participants(ctx context.Context, chatID, userID string) ([]types.Participant, error) {
	_, err := p.participantRole(ctx, chatID, userID)
	if errs.IsNotFound(err) {
		return nil, errs.NewPermissionDeniedError("not a participant of this chat")
	}

	if err != nil {
		return nil, err
	}

	const q = `
		SELECT participants.*, to_json(users) AS user
		FROM participants
		INNER JOIN users ON users.id = participants.user_id
		WHERE participants.chat_id = @chat_id
		ORDER BY participants.created_at ASC
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"chat_id": chatID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select participants: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Participant])
	if err != nil {
		return nil, fmt.Errorf("sql collect participants: %w", err)
	}

	return out, nil
}
