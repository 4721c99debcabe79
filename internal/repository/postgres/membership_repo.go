package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"clubcalendar/internal/domain"
)

type membershipRepository struct {
	DB *sql.DB
}

func NewMembershipRepository(db *sql.DB) domain.MembershipRepository {
	return &membershipRepository{DB: db}
}

func (r *membershipRepository) ListByUser(ctx context.Context, email string) ([]*domain.Membership, error) {
	query := `
		SELECT user_email, club_name, role
		FROM user_clubs
		WHERE user_email = $1
		ORDER BY club_name
	`
	rows, err := r.DB.QueryContext(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	memberships := make([]*domain.Membership, 0)
	for rows.Next() {
		m := &domain.Membership{}
		if err := rows.Scan(&m.UserEmail, &m.ClubName, &m.Role); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *membershipRepository) IsAdmin(ctx context.Context, email, clubName string) (bool, error) {
	var isAdmin bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_clubs WHERE user_email = $1 AND club_name = $2 AND role = $3)`,
		email, clubName, domain.RoleAdmin).Scan(&isAdmin)
	if err != nil {
		return false, err
	}
	return isAdmin, nil
}

// Apply deletes the remove set and inserts the add set with the member role as
// one transaction, so a membership edit is never partially committed.
func (r *membershipRepository) Apply(ctx context.Context, email string, add, remove []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if len(remove) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM user_clubs WHERE user_email = $1 AND club_name = ANY($2)`,
			email, pq.Array(remove)); err != nil {
			return err
		}
	}
	for _, clubName := range add {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_clubs (user_email, club_name, role) VALUES ($1, $2, $3) ON CONFLICT (user_email, club_name) DO NOTHING`,
			email, clubName, domain.RoleMember); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *membershipRepository) Promote(ctx context.Context, email, clubName string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE user_clubs SET role = $3 WHERE user_email = $1 AND club_name = $2`,
		email, clubName, domain.RoleAdmin)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
