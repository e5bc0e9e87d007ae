package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agentput/agentput/internal/domain"
	"github.com/agentput/agentput/internal/domain/user"
	"github.com/agentput/agentput/internal/port/database"
)

const userColumns = `id, name, email, created_at, updated_at`

func scanUser(row scannable, u *user.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt)
}

// CreateUser registers an owner identity. Email uniqueness is enforced in
// the insert transaction with the DB unique index as backstop.
func (s *Store) CreateUser(ctx context.Context, req user.CreateRequest) (*user.User, error) {
	var created user.User
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var taken bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, req.Email).Scan(&taken); err != nil {
			return fmt.Errorf("check user email: %w", err)
		}
		if taken {
			return fmt.Errorf("email %q: %w", req.Email, domain.ErrConflict)
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO users (id, name, email) VALUES ($1, $2, $3)
			 RETURNING `+userColumns,
			uuid.New().String(), req.Name, req.Email)
		if err := scanUser(row, &created); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("email %q: %w", req.Email, domain.ErrConflict)
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err := scanUser(row, &u); err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, page database.Page) ([]user.User, error) {
	page = clampPage(page)
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2`,
		page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
