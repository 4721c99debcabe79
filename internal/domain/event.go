package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput is returned for input that fails a business-rule check.
var ErrInvalidInput = errors.New("invalid input")

// DateLayout is the layout of the leading date segment of an event's TimeSpec.
const DateLayout = "2006-01-02"

// Event represents a club event listing. TimeSpec encodes date and time range
// as "YYYY-MM-DD | <start> - <end>"; its leading date segment drives all date
// filtering, and its fixed-width prefix makes lexicographic order chronological.
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	HostClub    string    `json:"host_club"`
	Description string    `json:"description"`
	TimeSpec    string    `json:"time_spec"`
	Location    string    `json:"location"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by
// the repository on create.
func NewEvent(name, hostClub, description, timeSpec, location string, tags []string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Name:        name,
		HostClub:    hostClub,
		Description: description,
		TimeSpec:    timeSpec,
		Location:    location,
		Tags:        tags,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// Date extracts the leading date segment of the event's TimeSpec: the
// substring before the first "|", trimmed. ok is false when the segment does
// not parse as DateLayout; such events carry corrupted data and are excluded
// from every listing.
func (e *Event) Date() (date string, ok bool) {
	date = e.TimeSpec
	if i := strings.Index(date, "|"); i >= 0 {
		date = date[:i]
	}
	date = strings.TrimSpace(date)
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", false
	}
	return date, true
}

// ListMode selects which slice of the calendar ListEvents returns.
type ListMode string

const (
	ModeUpcoming     ListMode = "upcoming"
	ModeHistory      ListMode = "history"
	ModeSpecificDate ListMode = "specific_date"
)

// ListQuery carries the filters for ListEvents. Empty Clubs or Tags means no
// restriction on that axis; Date is consulted only when Mode is
// ModeSpecificDate.
type ListQuery struct {
	Mode  ListMode `json:"mode"`
	Clubs []string `json:"clubs"`
	Tags  []string `json:"tags"`
	Date  string   `json:"date"`
}

// EventRepository defines the interface for event storage. Create and Update
// are multi-statement operations (event row plus tag rows) and must be applied
// atomically. List results ascend by the raw time_spec string.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	// GetByName returns the oldest event with the given name. Event names are
	// not unique; this lookup exists only for the legacy selection flow.
	GetByName(ctx context.Context, name string) (*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]*Event, error)
	ListByClubs(ctx context.Context, clubs []string) ([]*Event, error)
	ListTags(ctx context.Context, eventID string) ([]string, error)
}

// DirectoryService builds and filters the event feed and resolves single
// events for the editing flow.
type DirectoryService interface {
	CreateEvent(ctx context.Context, event *Event) error
	UpdateEvent(ctx context.Context, event *Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, query ListQuery) ([]*Event, error)
	EventsForUser(ctx context.Context, email string) ([]*Event, error)
	EventByID(ctx context.Context, id string) (*Event, error)
	EventByName(ctx context.Context, name string) (*Event, error)
	TagsForEvent(ctx context.Context, id string) ([]string, error)
}
