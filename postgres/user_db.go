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

func (p *Postgres) CreateUser(ctx context.Context, username string) (types.User, error) {
	var out types.User

	const q = `
		INSERT INTO users (id, username)
		VALUES (@user_id, @username)
		RETURNING *
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id":  id.Generate(),
		"username": username,
	})
	if err != nil {
		return out, fmt.Errorf("sql insert user: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.User])
	if db.IsUniqueViolationError(err, "username") {
		return out, errs.NewAlreadyExistsError("username taken")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect inserted user: %w", err)
	}

	return out, nil
}

func (p *Postgres) User(ctx context.Context, userID string) (types.User, error) {
	var out types.User

	const q = `
		SELECT *
		FROM users
		WHERE id = @user_id
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id": userID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select user: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.User])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("user not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect user: %w", err)
	}

	return out, nil
}

func (p *Postgres) UserByUsername(ctx context.Context, username string) (types.User, error) {
	var out types.User

	const q = `
		SELECT *
		FROM users
		WHERE LOWER(username) = LOWER(@username)
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"username": username,
	})
	if err != nil {
		return out, fmt.Errorf("sql select user by username: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.User])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("user not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect user by username: %w", err)
	}

	return out, nil
}

func (p *Postgres) userExists(ctx context.Context, userID string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE id = @user_id
		)
	`

	var exists bool
	err := p.db.QueryRow(ctx, q, pgx.StrictNamedArgs{
		"user_id": userID,
	}).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sql select user exists: %w", err)
	}

	return exists, nil
}
