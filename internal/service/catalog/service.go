package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexvent/nexvent/internal/domain"
	"github.com/nexvent/nexvent/internal/repository"
	postgresrepo "github.com/nexvent/nexvent/internal/repository/postgres"
	redisrepo "github.com/nexvent/nexvent/internal/repository/redis"
)

// EventStore is the slice of the event repository the service needs.
type EventStore interface {
	CreateWithTicketTypes(ctx context.Context, e *domain.Event, ticketTypes []domain.TicketType) error
	List(ctx context.Context, f postgresrepo.EventFilter) ([]domain.EventWithTicketTypes, error)
	ListByOrganizer(ctx context.Context, organizerID int64, status domain.EventStatus) ([]domain.EventWithTicketTypes, error)
	UpdateStatus(ctx context.Context, eventID, organizerID int64, status domain.EventStatus) (*domain.Event, error)
}

type Config struct {
	ListTTL time.Duration
}

type Service struct {
	events EventStore
	cache  *redisrepo.Cache
	cfg    Config
}

func New(events EventStore, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = 30 * time.Second
	}

	return &Service{events: events, cache: cache, cfg: cfg}
}

// List returns events for the public catalog. Status defaults to published
// when empty; the unfiltered published listing is served through the cache.
func (s *Service) List(
	ctx context.Context,
	status domain.EventStatus,
	category domain.EventCategory,
) ([]domain.EventWithTicketTypes, error) {
	const op = "service.catalog.List"

	if status == "" {
		status = domain.EventPublished
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ValidationError{Msg: "unknown status"})
	}
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ValidationError{Msg: "unknown category"})
	}

	filter := postgresrepo.EventFilter{Status: status, Category: category}

	if s.cache != nil && status == domain.EventPublished && category == "" {
		events, err := redisrepo.GetOrSetJSON(
			ctx, s.cache, redisrepo.KeyPublishedEvents(""), s.cfg.ListTTL,
			func(ctx context.Context) ([]domain.EventWithTicketTypes, error) {
				return s.events.List(ctx, filter)
			},
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return events, nil
	}

	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

type CreateEventInput struct {
	Title       string
	Description string
	Date        time.Time
	Time        string
	Location    string
	Category    domain.EventCategory
	Status      domain.EventStatus
	ImageURL    string
	TicketTypes []domain.TicketType
}

// CreateEvent creates an event with its ticket types for the calling
// organizer.
//
// Parameters:
//   - ctx: request-scoped context.
//   - organizerID: ID of the authenticated user creating the event.
//   - in: the event payload. Status defaults to draft when empty.
//
// Returns:
//   - *domain.EventWithTicketTypes: the created event.
//   - error: catalog.ValidationError when the payload is invalid.
func (s *Service) CreateEvent(
	ctx context.Context,
	organizerID int64,
	in CreateEventInput,
) (*domain.EventWithTicketTypes, error) {
	const op = "service.catalog.CreateEvent"

	if in.Status == "" {
		in.Status = domain.EventDraft
	}

	if err := validateEvent(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e := &domain.Event{
		OrganizerID: organizerID,
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		Time:        in.Time,
		Location:    in.Location,
		Category:    in.Category,
		Status:      in.Status,
		ImageURL:    in.ImageURL,
	}

	if err := s.events.CreateWithTicketTypes(ctx, e, in.TicketTypes); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil && e.Status == domain.EventPublished {
		_ = s.cache.InvalidatePublishedEvents(ctx)
	}

	return &domain.EventWithTicketTypes{Event: *e, TicketTypes: in.TicketTypes}, nil
}

// ListOwn returns the organizer's events, drafts included.
func (s *Service) ListOwn(
	ctx context.Context,
	organizerID int64,
	status domain.EventStatus,
) ([]domain.EventWithTicketTypes, error) {
	const op = "service.catalog.ListOwn"

	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ValidationError{Msg: "unknown status"})
	}

	events, err := s.events.ListByOrganizer(ctx, organizerID, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// SetStatus publishes or unpublishes an event. Only the organizer who owns
// the event can flip it; anyone else gets ErrEventNotFound.
func (s *Service) SetStatus(
	ctx context.Context,
	eventID, organizerID int64,
	status domain.EventStatus,
) (*domain.Event, error) {
	const op = "service.catalog.SetStatus"

	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ValidationError{Msg: "status must be draft or published"})
	}

	e, err := s.events.UpdateStatus(ctx, eventID, organizerID, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidatePublishedEvents(ctx)
	}

	return e, nil
}

func validateEvent(in CreateEventInput) error {
	switch {
	case in.Title == "":
		return ValidationError{Msg: "title is required"}
	case in.Date.IsZero():
		return ValidationError{Msg: "date is required"}
	case in.Location == "":
		return ValidationError{Msg: "location is required"}
	case !in.Category.Valid():
		return ValidationError{Msg: "unknown category"}
	case !in.Status.Valid():
		return ValidationError{Msg: "status must be draft or published"}
	case len(in.TicketTypes) == 0:
		return ValidationError{Msg: "at least one ticket type is required"}
	}

	for _, tt := range in.TicketTypes {
		switch {
		case tt.Name == "":
			return ValidationError{Msg: "ticket type name is required"}
		case tt.Price.IsNegative():
			return ValidationError{Msg: "ticket type price cannot be negative"}
		case tt.MaxQuantity <= 0:
			return ValidationError{Msg: "ticket type quantity must be positive"}
		case !tt.SaleEndDate.After(tt.SaleStartDate):
			return ValidationError{Msg: "ticket sale window must end after it starts"}
		}
	}

	return nil
}
