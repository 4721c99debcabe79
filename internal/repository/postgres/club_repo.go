package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/lib/pq"

	"clubcalendar/internal/domain"
)

type clubRepository struct {
	DB *sql.DB
}

func NewClubRepository(db *sql.DB) domain.ClubRepository {
	return &clubRepository{DB: db}
}

func (r *clubRepository) CreateWithFounder(ctx context.Context, club *domain.Club, founderEmail string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO clubs (name, contact_email, description, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, query, club.Name, club.ContactEmail, club.Description, club.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrClubNameTaken
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_clubs (user_email, club_name, role) VALUES ($1, $2, $3)`,
		founderEmail, club.Name, domain.RoleAdmin); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *clubRepository) GetByName(ctx context.Context, name string) (*domain.Club, error) {
	query := `
		SELECT name, contact_email, description, created_at
		FROM clubs
		WHERE name = $1
	`
	c := &domain.Club{}
	err := r.DB.QueryRowContext(ctx, query, name).Scan(&c.Name, &c.ContactEmail, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *clubRepository) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT name FROM clubs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Rename changes the club's primary name. Memberships and events reference the
// name with ON UPDATE CASCADE, so dependents follow in the same statement.
func (r *clubRepository) Rename(ctx context.Context, oldName, newName string) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE clubs SET name = $2 WHERE name = $1`, oldName, newName)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrClubNameTaken
		}
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *clubRepository) ListAdminEmails(ctx context.Context, clubName string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT user_email FROM user_clubs WHERE club_name = $1 AND role = $2 ORDER BY user_email`,
		clubName, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// ApplyAccountRemoval commits the outcome of an account deletion in one
// transaction: clubs where the user was the sole admin are deleted, clubs
// whose contact the user held are reassigned, then the user row goes and the
// foreign keys cascade the remaining memberships and interests.
func (r *clubRepository) ApplyAccountRemoval(ctx context.Context, email string, deleteClubs []string, reassignContacts map[string]string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if len(deleteClubs) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM clubs WHERE name = ANY($1)`, pq.Array(deleteClubs)); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(reassignContacts))
	for name := range reassignContacts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			`UPDATE clubs SET contact_email = $2 WHERE name = $1`,
			name, reassignContacts[name]); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return tx.Commit()
}
