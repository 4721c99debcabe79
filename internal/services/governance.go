package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clubcalendar/internal/domain"
)

type governanceService struct {
	clubRepo       domain.ClubRepository
	membershipRepo domain.MembershipRepository
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewGovernanceService creates the governance engine over the given
// repositories.
func NewGovernanceService(clubRepo domain.ClubRepository, membershipRepo domain.MembershipRepository, logger *slog.Logger, timeout time.Duration) domain.GovernanceService {
	return &governanceService{
		clubRepo:       clubRepo,
		membershipRepo: membershipRepo,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *governanceService) CreateClub(ctx context.Context, name, contactEmail, description, creatorEmail string) (*domain.Club, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	club := domain.NewClub(name, contactEmail, description, time.Now())
	if err := s.clubRepo.CreateWithFounder(ctx, club, creatorEmail); err != nil {
		if errors.Is(err, domain.ErrClubNameTaken) {
			return nil, domain.ErrClubNameTaken
		}
		return nil, fmt.Errorf("create club: %w", err)
	}
	s.logger.Info("club created", "club", name, "admin", creatorEmail)
	return club, nil
}

// UpdateMemberships reconciles the user's memberships with the desired club
// set. The operation is all-or-nothing: if any removal would strip an admin
// membership, nothing is applied and ErrAdminConstraint is returned, so a user
// cannot abandon governance responsibility through the generic membership
// edit. Additions always join with the member role; roles of kept clubs are
// untouched.
func (s *governanceService) UpdateMemberships(ctx context.Context, userEmail string, desiredClubs []string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.membershipRepo.ListByUser(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("list memberships: %w", err)
	}

	desired := make(map[string]struct{}, len(desiredClubs))
	for _, name := range desiredClubs {
		desired[name] = struct{}{}
	}

	var toRemove []string
	currentNames := make(map[string]struct{}, len(current))
	for _, m := range current {
		currentNames[m.ClubName] = struct{}{}
		if _, keep := desired[m.ClubName]; keep {
			continue
		}
		if m.Role == domain.RoleAdmin {
			return domain.ErrAdminConstraint
		}
		toRemove = append(toRemove, m.ClubName)
	}

	var toAdd []string
	for _, name := range desiredClubs {
		if _, ok := currentNames[name]; !ok {
			toAdd = append(toAdd, name)
		}
	}

	if len(toAdd) == 0 && len(toRemove) == 0 {
		return nil
	}
	if err := s.membershipRepo.Apply(ctx, userEmail, toAdd, toRemove); err != nil {
		return fmt.Errorf("apply membership changes: %w", err)
	}
	return nil
}

// DeleteAccount removes the user and settles every club they administer: a
// club whose sole admin they are is deleted outright (memberships, events and
// event tags cascade), a club with other admins keeps existing but has its
// contact email reassigned to the lexicographically smallest remaining admin
// when the leaver held it. The whole outcome is committed in one transaction.
func (s *governanceService) DeleteAccount(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	memberships, err := s.membershipRepo.ListByUser(ctx, email)
	if err != nil {
		return fmt.Errorf("list memberships: %w", err)
	}

	var deleteClubs []string
	reassignContacts := make(map[string]string)
	for _, m := range memberships {
		if m.Role != domain.RoleAdmin {
			continue
		}
		admins, err := s.clubRepo.ListAdminEmails(ctx, m.ClubName)
		if err != nil {
			return fmt.Errorf("list admins of %q: %w", m.ClubName, err)
		}
		remaining := make([]string, 0, len(admins))
		for _, a := range admins {
			if a != email {
				remaining = append(remaining, a)
			}
		}
		if len(remaining) == 0 {
			deleteClubs = append(deleteClubs, m.ClubName)
			continue
		}
		club, err := s.clubRepo.GetByName(ctx, m.ClubName)
		if err != nil {
			return fmt.Errorf("get club %q: %w", m.ClubName, err)
		}
		if club.ContactEmail == email {
			// ListAdminEmails returns ascending order, so the first remaining
			// admin is the deterministic tie-break.
			reassignContacts[m.ClubName] = remaining[0]
		}
	}

	if err := s.clubRepo.ApplyAccountRemoval(ctx, email, deleteClubs, reassignContacts); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("apply account removal: %w", err)
	}
	for _, name := range deleteClubs {
		s.logger.Info("club deleted with last admin", "club", name, "admin", email)
	}
	for name, contact := range reassignContacts {
		s.logger.Info("club contact reassigned", "club", name, "contact", contact)
	}
	return nil
}

func (s *governanceService) IsClubAdmin(ctx context.Context, email, clubName string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.membershipRepo.IsAdmin(ctx, email, clubName)
}

// PromoteToAdmin raises an existing member to the admin role, the explicit
// counterpart to founding a club.
func (s *governanceService) PromoteToAdmin(ctx context.Context, email, clubName string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.membershipRepo.Promote(ctx, email, clubName); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("promote member: %w", err)
	}
	s.logger.Info("member promoted to admin", "club", clubName, "member", email)
	return nil
}

func (s *governanceService) RenameClub(ctx context.Context, oldName, newName string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if newName == "" {
		return domain.ErrInvalidInput
	}
	if err := s.clubRepo.Rename(ctx, oldName, newName); err != nil {
		if errors.Is(err, domain.ErrClubNameTaken) || errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("rename club: %w", err)
	}
	return nil
}

func (s *governanceService) ListClubNames(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.clubRepo.ListNames(ctx)
}

func (s *governanceService) ClubByName(ctx context.Context, name string) (*domain.Club, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	club, err := s.clubRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get club: %w", err)
	}
	return club, nil
}
