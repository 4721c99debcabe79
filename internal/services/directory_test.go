package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubcalendar/internal/domain"
)

// fakeEventRepo implements domain.EventRepository for tests. Events are kept
// in the order given, mirroring the store's time_spec ordering.
type fakeEventRepo struct {
	events    []*domain.Event
	createErr error
	updateErr error
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	if e.ID == "" {
		e.ID = "ev-created"
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	for _, e := range f.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) GetByName(ctx context.Context, name string) (*domain.Event, error) {
	for _, e := range f.events {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for i, old := range f.events {
		if old.ID == e.ID {
			f.events[i] = e
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	for i, e := range f.events {
		if e.ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeEventRepo) ListAll(ctx context.Context) ([]*domain.Event, error) {
	return f.events, nil
}

func (f *fakeEventRepo) ListByClubs(ctx context.Context, clubs []string) ([]*domain.Event, error) {
	want := make(map[string]struct{}, len(clubs))
	for _, c := range clubs {
		want[c] = struct{}{}
	}
	out := make([]*domain.Event, 0)
	for _, e := range f.events {
		if _, ok := want[e.HostClub]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListTags(ctx context.Context, eventID string) ([]string, error) {
	e, err := f.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return e.Tags, nil
}

func newDirectory(t *testing.T, repo *fakeEventRepo, members *fakeMembershipRepo, today string) domain.DirectoryService {
	t.Helper()
	if members == nil {
		members = newFakeMembershipRepo()
	}
	svc := NewDirectoryService(repo, members, testLogger(), 2*time.Second).(*directoryService)
	svc.now = func() time.Time {
		now, err := time.Parse(domain.DateLayout, today)
		require.NoError(t, err)
		return now
	}
	return svc
}

func feedEvent(id, name, club, date string, tags ...string) *domain.Event {
	return &domain.Event{
		ID:       id,
		Name:     name,
		HostClub: club,
		TimeSpec: date + " | 6:00 PM - 8:00 PM",
		Tags:     tags,
	}
}

func eventIDs(events []*domain.Event) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestDirectoryService_ListEvents_DateModes(t *testing.T) {
	ctx := context.Background()
	repo := &fakeEventRepo{events: []*domain.Event{
		feedEvent("ev-past", "Yesterday", "Chess", "2025-11-24"),
		feedEvent("ev-today", "Today", "Chess", "2025-11-25"),
		feedEvent("ev-future", "Tomorrow", "Chess", "2025-11-26"),
	}}
	svc := newDirectory(t, repo, nil, "2025-11-25")

	upcoming, err := svc.ListEvents(ctx, domain.ListQuery{Mode: domain.ModeUpcoming})
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-today", "ev-future"}, eventIDs(upcoming), "today's event counts as upcoming")

	history, err := svc.ListEvents(ctx, domain.ListQuery{Mode: domain.ModeHistory})
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-past"}, eventIDs(history))

	specific, err := svc.ListEvents(ctx, domain.ListQuery{Mode: domain.ModeSpecificDate, Date: "2025-11-24"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-past"}, eventIDs(specific), "specific date ignores the history/upcoming split")
}

func TestDirectoryService_ListEvents_TagFilterIsUnion(t *testing.T) {
	ctx := context.Background()
	repo := &fakeEventRepo{events: []*domain.Event{
		feedEvent("ev-1", "Mixer", "Chess", "2025-11-26", "Academic", "Social"),
	}}
	svc := newDirectory(t, repo, nil, "2025-11-25")

	got, err := svc.ListEvents(ctx, domain.ListQuery{Mode: domain.ModeUpcoming, Tags: []string{"Social", "Paid Event"}})
	require.NoError(t, err)
	assert.Len(t, got, 1, "one overlapping tag is enough")

	got, err = svc.ListEvents(ctx, domain.ListQuery{Mode: domain.ModeUpcoming, Tags: []string{"Paid Event"}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDirectoryService_ListEvents_ClubFilter(t *testing.T) {
	ctx := context.Background()
	repo := &fakeEventRepo{events: []*domain.Event{
		feedEvent("ev-1", "Blitz", "Chess", "2025-11-26"),
		feedEvent("ev-2", "Build Night", "Robotics Club", "2025-11-26"),
	}}
	svc := newDirectory(t, repo, nil, "2025-11-25")

	got, err := svc.ListEvents(ctx, domain.ListQuery{Mode: domain.ModeUpcoming, Clubs: []string{"Robotics Club"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-2"}, eventIDs(got))

	got, err = svc.ListEvents(ctx, domain.ListQuery{Mode: domain.ModeUpcoming})
	require.NoError(t, err)
	assert.Len(t, got, 2, "empty club set means no restriction")
}

func TestDirectoryService_ListEvents_CorruptedTimeSpecDropped(t *testing.T) {
	ctx := context.Background()
	repo := &fakeEventRepo{events: []*domain.Event{
		{ID: "ev-bad-1", Name: "No date", HostClub: "Chess", TimeSpec: "Nov 25, 6-8 PM"},
		{ID: "ev-bad-2", Name: "Bad date", HostClub: "Chess", TimeSpec: "2025-13-99 | 6:00 PM - 8:00 PM"},
		{ID: "ev-bad-3", Name: "Empty", HostClub: "Chess", TimeSpec: ""},
		feedEvent("ev-good", "Valid", "Chess", "2025-11-26"),
	}}
	svc := newDirectory(t, repo, nil, "2025-11-25")

	for _, query := range []domain.ListQuery{
		{Mode: domain.ModeUpcoming},
		{Mode: domain.ModeHistory},
		{Mode: domain.ModeSpecificDate, Date: "2025-11-25"},
		{Mode: domain.ModeSpecificDate, Date: "Nov 25, 6-8 PM"},
	} {
		got, err := svc.ListEvents(ctx, query)
		require.NoError(t, err)
		for _, e := range got {
			assert.Equal(t, "ev-good", e.ID, "mode %s must not surface corrupted events", query.Mode)
		}
	}
}

func TestDirectoryService_ListEvents_KeepsStoreOrder(t *testing.T) {
	ctx := context.Background()
	repo := &fakeEventRepo{events: []*domain.Event{
		feedEvent("ev-1", "First", "Chess", "2025-11-26"),
		feedEvent("ev-2", "Second", "Chess", "2025-11-27"),
		feedEvent("ev-3", "Third", "Chess", "2025-12-01"),
	}}
	svc := newDirectory(t, repo, nil, "2025-11-25")

	got, err := svc.ListEvents(ctx, domain.ListQuery{Mode: domain.ModeUpcoming})
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-1", "ev-2", "ev-3"}, eventIDs(got))
}

func TestDirectoryService_EventsForUser(t *testing.T) {
	ctx := context.Background()
	members := newFakeMembershipRepo()
	members.put(&domain.Membership{UserEmail: "alice@example.com", ClubName: "Chess", Role: domain.RoleMember})
	repo := &fakeEventRepo{events: []*domain.Event{
		feedEvent("ev-1", "Blitz", "Chess", "2025-01-01"),
		feedEvent("ev-2", "Build Night", "Robotics Club", "2025-11-26"),
	}}
	svc := newDirectory(t, repo, members, "2025-11-25")

	got, err := svc.EventsForUser(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-1"}, eventIDs(got), "past events are included; only club scope applies")

	got, err = svc.EventsForUser(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDirectoryService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	repo := &fakeEventRepo{}
	svc := newDirectory(t, repo, nil, "2025-11-25")

	event := domain.NewEvent("Math Party", "Robotics Club", "", "2025-11-25 | 6:00 PM - 8:00 PM", "IB 110", []string{"Academic"}, time.Time{}, time.Time{})
	require.NoError(t, svc.CreateEvent(ctx, event))
	assert.NotEmpty(t, event.ID)

	// Timestamps come from the service clock, not the wall clock.
	today := time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, event.CreatedAt)
	assert.Equal(t, today, event.UpdatedAt)
}

func TestDirectoryService_UpdateEvent(t *testing.T) {
	ctx := context.Background()
	repo := &fakeEventRepo{events: []*domain.Event{feedEvent("ev-1", "Blitz", "Chess", "2025-11-26")}}
	svc := newDirectory(t, repo, nil, "2025-11-25")

	event := feedEvent("ev-1", "Blitz Night", "Chess", "2025-11-27")
	require.NoError(t, svc.UpdateEvent(ctx, event))
	assert.Equal(t, time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC), event.UpdatedAt)
	assert.Equal(t, "Blitz Night", repo.events[0].Name)

	err := svc.UpdateEvent(ctx, &domain.Event{ID: "missing"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectoryService_DeleteEvent(t *testing.T) {
	ctx := context.Background()
	repo := &fakeEventRepo{events: []*domain.Event{feedEvent("ev-1", "Blitz", "Chess", "2025-11-26")}}
	svc := newDirectory(t, repo, nil, "2025-11-25")

	require.NoError(t, svc.DeleteEvent(ctx, "ev-1"))
	require.ErrorIs(t, svc.DeleteEvent(ctx, "ev-1"), domain.ErrNotFound)
}

func TestDirectoryService_EventByName(t *testing.T) {
	ctx := context.Background()
	repo := &fakeEventRepo{events: []*domain.Event{
		feedEvent("ev-1", "Math Party", "Robotics Club", "2025-11-26"),
		feedEvent("ev-2", "Math Party", "Chess", "2025-12-01"),
	}}
	svc := newDirectory(t, repo, nil, "2025-11-25")

	got, err := svc.EventByName(ctx, "Math Party")
	require.NoError(t, err)
	assert.Equal(t, "ev-1", got.ID, "duplicate names resolve to the first match")

	_, err = svc.EventByName(ctx, "No Such Event")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
