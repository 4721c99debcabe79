package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for club governance operations.
var (
	// ErrClubNameTaken is returned when a club name already exists.
	ErrClubNameTaken = errors.New("club name already taken")
	// ErrAdminConstraint is returned when a membership change would remove a
	// user from a club they administer. The whole change is rejected and no
	// rows are touched; relinquishing the admin role requires the explicit
	// deletion or transfer path.
	ErrAdminConstraint = errors.New("cannot leave a club you administer")
)

// Role is a membership role within a club.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Club represents a student club. Name is the natural key: events and
// memberships reference it directly and follow renames via cascade.
// Invariant: a club exists only while it has at least one admin member, and
// ContactEmail always belongs to one of its current admins.
type Club struct {
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewClub returns a new Club with the given fields.
func NewClub(name, contactEmail, description string, createdAt time.Time) *Club {
	return &Club{
		Name:         name,
		ContactEmail: contactEmail,
		Description:  description,
		CreatedAt:    createdAt,
	}
}

// Membership links a user to a club with a role.
type Membership struct {
	UserEmail string `json:"user_email"`
	ClubName  string `json:"club_name"`
	Role      Role   `json:"role"`
}

// ClubRepository defines storage for clubs and the transactional mechanics of
// club governance. Multi-statement operations run in a single transaction.
type ClubRepository interface {
	// CreateWithFounder inserts the club row and one admin membership for
	// founderEmail as an atomic unit. Returns ErrClubNameTaken on a name
	// collision.
	CreateWithFounder(ctx context.Context, club *Club, founderEmail string) error
	GetByName(ctx context.Context, name string) (*Club, error)
	ListNames(ctx context.Context) ([]string, error)
	// Rename updates the club's primary name; memberships and events follow
	// via ON UPDATE CASCADE. Returns ErrClubNameTaken on collision and
	// ErrNotFound when the club does not exist.
	Rename(ctx context.Context, oldName, newName string) error
	// ListAdminEmails returns the emails of the club's current admins in
	// ascending order.
	ListAdminEmails(ctx context.Context, clubName string) ([]string, error)
	// ApplyAccountRemoval deletes the listed clubs, reassigns contact emails
	// per reassignContacts (club name to new contact), and finally deletes the
	// user row, all in one transaction. Club and user deletions cascade into
	// memberships, events, event tags and interests.
	ApplyAccountRemoval(ctx context.Context, email string, deleteClubs []string, reassignContacts map[string]string) error
}

// MembershipRepository defines storage for club memberships.
type MembershipRepository interface {
	ListByUser(ctx context.Context, email string) ([]*Membership, error)
	IsAdmin(ctx context.Context, email, clubName string) (bool, error)
	// Apply removes the user's memberships for the remove set and inserts
	// member-role rows for the add set, all in one transaction.
	Apply(ctx context.Context, email string, add, remove []string) error
	// Promote raises an existing membership to the admin role. Returns
	// ErrNotFound when the user is not a member of the club.
	Promote(ctx context.Context, email, clubName string) error
}

// GovernanceService owns the club lifecycle and the admin-role invariants
// enforced across membership changes and account deletion.
type GovernanceService interface {
	CreateClub(ctx context.Context, name, contactEmail, description, creatorEmail string) (*Club, error)
	UpdateMemberships(ctx context.Context, userEmail string, desiredClubs []string) error
	DeleteAccount(ctx context.Context, email string) error
	IsClubAdmin(ctx context.Context, email, clubName string) (bool, error)
	PromoteToAdmin(ctx context.Context, email, clubName string) error
	RenameClub(ctx context.Context, oldName, newName string) error
	ListClubNames(ctx context.Context) ([]string, error)
	ClubByName(ctx context.Context, name string) (*Club, error)
}
