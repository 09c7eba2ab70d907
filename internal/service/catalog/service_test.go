package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexvent/nexvent/internal/domain"
	"github.com/nexvent/nexvent/internal/repository"
	postgresrepo "github.com/nexvent/nexvent/internal/repository/postgres"
)

type fakeEventStore struct {
	events     []domain.EventWithTicketTypes
	nextID     int64
	lastFilter postgresrepo.EventFilter
}

func (f *fakeEventStore) CreateWithTicketTypes(_ context.Context, e *domain.Event, ticketTypes []domain.TicketType) error {
	f.nextID++
	e.ID = f.nextID
	for i := range ticketTypes {
		ticketTypes[i].EventID = e.ID
	}
	f.events = append(f.events, domain.EventWithTicketTypes{Event: *e, TicketTypes: ticketTypes})
	return nil
}

func (f *fakeEventStore) List(_ context.Context, filter postgresrepo.EventFilter) ([]domain.EventWithTicketTypes, error) {
	f.lastFilter = filter
	var out []domain.EventWithTicketTypes
	for _, e := range f.events {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventStore) ListByOrganizer(_ context.Context, organizerID int64, status domain.EventStatus) ([]domain.EventWithTicketTypes, error) {
	var out []domain.EventWithTicketTypes
	for _, e := range f.events {
		if e.OrganizerID != organizerID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventStore) UpdateStatus(_ context.Context, eventID, organizerID int64, status domain.EventStatus) (*domain.Event, error) {
	for i := range f.events {
		e := &f.events[i].Event
		if e.ID == eventID && e.OrganizerID == organizerID {
			e.Status = status
			cp := *e
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("fake: %w", repository.ErrNotFound)
}

func validInput() CreateEventInput {
	return CreateEventInput{
		Title:    "Jazz Night",
		Date:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Time:     "19:00",
		Location: "Blue Note",
		Category: domain.CategoryConcert,
		Status:   domain.EventPublished,
		TicketTypes: []domain.TicketType{{
			Name:          "General",
			Price:         decimal.RequireFromString("499.50"),
			SaleStartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			SaleEndDate:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
			MaxQuantity:   100,
		}},
	}
}

func TestService_CreateEvent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates event with ticket types", func(t *testing.T) {
		store := &fakeEventStore{}
		svc := New(store, nil, Config{})

		e, err := svc.CreateEvent(ctx, 7, validInput())
		require.NoError(t, err)
		assert.Equal(t, int64(7), e.OrganizerID)
		require.Len(t, e.TicketTypes, 1)
		assert.Equal(t, e.ID, e.TicketTypes[0].EventID)
	})

	t.Run("status defaults to draft", func(t *testing.T) {
		store := &fakeEventStore{}
		svc := New(store, nil, Config{})

		in := validInput()
		in.Status = ""
		e, err := svc.CreateEvent(ctx, 7, in)
		require.NoError(t, err)
		assert.Equal(t, domain.EventDraft, e.Status)
	})

	t.Run("rejects invalid payloads", func(t *testing.T) {
		store := &fakeEventStore{}
		svc := New(store, nil, Config{})

		for name, mutate := range map[string]func(*CreateEventInput){
			"missing title":    func(in *CreateEventInput) { in.Title = "" },
			"unknown category": func(in *CreateEventInput) { in.Category = "opera" },
			"no ticket types":  func(in *CreateEventInput) { in.TicketTypes = nil },
			"negative price":   func(in *CreateEventInput) { in.TicketTypes[0].Price = decimal.RequireFromString("-1") },
			"zero quantity":    func(in *CreateEventInput) { in.TicketTypes[0].MaxQuantity = 0 },
			"inverted window":  func(in *CreateEventInput) { in.TicketTypes[0].SaleEndDate = in.TicketTypes[0].SaleStartDate },
		} {
			t.Run(name, func(t *testing.T) {
				in := validInput()
				mutate(&in)
				_, err := svc.CreateEvent(ctx, 7, in)
				var ve ValidationError
				assert.ErrorAs(t, err, &ve)
				assert.Empty(t, store.events)
			})
		}
	})
}

func TestService_List(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &fakeEventStore{}
	svc := New(store, nil, Config{})

	_, err := svc.CreateEvent(ctx, 1, validInput())
	require.NoError(t, err)

	draft := validInput()
	draft.Status = domain.EventDraft
	_, err = svc.CreateEvent(ctx, 1, draft)
	require.NoError(t, err)

	t.Run("defaults to published", func(t *testing.T) {
		events, err := svc.List(ctx, "", "")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventPublished, store.lastFilter.Status)
	})

	t.Run("explicit status", func(t *testing.T) {
		events, err := svc.List(ctx, domain.EventDraft, "")
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		_, err := svc.List(ctx, "", "opera")
		var ve ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestService_SetStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &fakeEventStore{}
	svc := New(store, nil, Config{})

	e, err := svc.CreateEvent(ctx, 1, validInput())
	require.NoError(t, err)

	t.Run("owner can flip status", func(t *testing.T) {
		got, err := svc.SetStatus(ctx, e.ID, 1, domain.EventDraft)
		require.NoError(t, err)
		assert.Equal(t, domain.EventDraft, got.Status)
	})

	t.Run("non-owner sees not found", func(t *testing.T) {
		_, err := svc.SetStatus(ctx, e.ID, 2, domain.EventPublished)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		_, err := svc.SetStatus(ctx, e.ID, 1, "archived")
		var ve ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}
