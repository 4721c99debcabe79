package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clubcalendar/internal/domain"
)

type directoryService struct {
	eventRepo      domain.EventRepository
	membershipRepo domain.MembershipRepository
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

// NewDirectoryService creates the event directory engine over the given
// repositories.
func NewDirectoryService(eventRepo domain.EventRepository, membershipRepo domain.MembershipRepository, logger *slog.Logger, timeout time.Duration) domain.DirectoryService {
	return &directoryService{
		eventRepo:      eventRepo,
		membershipRepo: membershipRepo,
		logger:         logger,
		now:            time.Now,
		contextTimeout: timeout,
	}
}

func (s *directoryService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event posted", "event", event.Name, "club", event.HostClub)
	return nil
}

func (s *directoryService) UpdateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event.UpdatedAt = s.now()
	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func (s *directoryService) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// ListEvents filters the full feed, already ordered by time_spec, through the
// per-event predicates: parseable date, date mode, club scope, tag overlap.
// Events with an unparseable leading date are dropped from every mode rather
// than surfaced as errors.
func (s *directoryService) ListEvents(ctx context.Context, query domain.ListQuery) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	today := s.now().Format(domain.DateLayout)
	clubs := toSet(query.Clubs)
	tags := toSet(query.Tags)

	filtered := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		date, ok := e.Date()
		if !ok {
			s.logger.Warn("event has unparseable time spec, skipped", "event_id", e.ID, "time_spec", e.TimeSpec)
			continue
		}
		switch query.Mode {
		case domain.ModeSpecificDate:
			if date != query.Date {
				continue
			}
		case domain.ModeHistory:
			if date >= today {
				continue
			}
		default: // upcoming
			if date < today {
				continue
			}
		}
		if len(clubs) > 0 {
			if _, ok := clubs[e.HostClub]; !ok {
				continue
			}
		}
		if len(tags) > 0 && !intersects(e.Tags, tags) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered, nil
}

// EventsForUser returns events hosted by any club the user belongs to,
// without date or tag filtering. It backs the "my events" selection surfaces.
func (s *directoryService) EventsForUser(ctx context.Context, email string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	memberships, err := s.membershipRepo.ListByUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	clubs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		clubs = append(clubs, m.ClubName)
	}
	events, err := s.eventRepo.ListByClubs(ctx, clubs)
	if err != nil {
		return nil, fmt.Errorf("list events by clubs: %w", err)
	}
	return events, nil
}

func (s *directoryService) EventByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *directoryService) EventByName(ctx context.Context, name string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event by name: %w", err)
	}
	return event, nil
}

func (s *directoryService) TagsForEvent(ctx context.Context, id string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.ListTags(ctx, id)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// intersects reports whether any of tags is in want (OR semantics).
func intersects(tags []string, want map[string]struct{}) bool {
	for _, t := range tags {
		if _, ok := want[t]; ok {
			return true
		}
	}
	return false
}
