package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"clubcalendar/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	for _, tag := range u.Interests {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_interests (user_email, tag) VALUES ($1, $2) ON CONFLICT (user_email, tag) DO NOTHING`,
			u.Email, tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	u := &domain.User{}
	err := r.DB.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT tag FROM user_interests WHERE user_email = $1 ORDER BY tag`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	u.Interests = []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		u.Interests = append(u.Interests, tag)
	}
	return u, rows.Err()
}

// UpdateProfile updates the user row and replaces the interest set wholesale.
// An email change propagates into user_clubs and user_interests through the
// ON UPDATE CASCADE foreign keys, so the interest rewrite keys off newEmail.
// clubs.contact_email carries no foreign key, so it is rewritten here to keep
// club contacts pointing at the renamed account.
func (r *userRepository) UpdateProfile(ctx context.Context, oldEmail, name, newEmail string, interests []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE users
		SET name = $1, email = $2, updated_at = NOW()
		WHERE email = $3
	`
	result, err := tx.ExecContext(ctx, query, name, newEmail, oldEmail)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrUserNotFound
	}

	if newEmail != oldEmail {
		if _, err := tx.ExecContext(ctx,
			`UPDATE clubs SET contact_email = $1 WHERE contact_email = $2`, newEmail, oldEmail); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_interests WHERE user_email = $1`, newEmail); err != nil {
		return err
	}
	for _, tag := range interests {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_interests (user_email, tag) VALUES ($1, $2) ON CONFLICT (user_email, tag) DO NOTHING`,
			newEmail, tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}
