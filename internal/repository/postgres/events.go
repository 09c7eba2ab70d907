package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexvent/nexvent/internal/domain"
)

type EventRepo struct {
	pool  *pgxpool.Pool
	store *Store
}

type EventFilter struct {
	Status   domain.EventStatus
	Category domain.EventCategory
}

// CreateWithTicketTypes inserts the event and all of its ticket types in one
// transaction: either everything lands or nothing does.
func (r *EventRepo) CreateWithTicketTypes(
	ctx context.Context,
	e *domain.Event,
	ticketTypes []domain.TicketType,
) error {
	const op = "postgres.EventRepo.CreateWithTicketTypes"

	err := r.store.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO events
            	(organizer_id, title, description, date, time, location, category, status, image_url)
       	 	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
      	 	 RETURNING id, created_at, updated_at`,
			e.OrganizerID, e.Title, e.Description, e.Date, e.Time,
			e.Location, e.Category, e.Status, e.ImageURL,
		).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return err
		}

		for i := range ticketTypes {
			tt := &ticketTypes[i]
			tt.EventID = e.ID

			if err := tx.QueryRow(ctx,
				`INSERT INTO ticket_types
                	(event_id, name, price, sale_start_date, sale_end_date, max_quantity)
           	 	 VALUES ($1, $2, $3, $4, $5, $6)
          	 	 RETURNING id`,
				tt.EventID, tt.Name, tt.Price,
				tt.SaleStartDate, tt.SaleEndDate, tt.MaxQuantity,
			).Scan(&tt.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// List returns events matching the filter with their ticket types, ordered by
// event date ascending.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]domain.EventWithTicketTypes, error) {
	const op = "postgres.EventRepo.List"

	rows, err := r.pool.Query(ctx,
		`SELECT id, organizer_id, title, description, date, time, location,
            	category, status, image_url, created_at, updated_at
       	 FROM events
      	 WHERE ($1 = '' OR status = $1)
        	AND ($2 = '' OR category = $2)
      	 ORDER BY date ASC`,
		string(f.Status), string(f.Category),
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	events, err := r.collectEvents(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return events, nil
}

// ListByOrganizer returns the organizer's own events, drafts included, ordered
// by event date ascending.
func (r *EventRepo) ListByOrganizer(
	ctx context.Context,
	organizerID int64,
	status domain.EventStatus,
) ([]domain.EventWithTicketTypes, error) {
	const op = "postgres.EventRepo.ListByOrganizer"

	rows, err := r.pool.Query(ctx,
		`SELECT id, organizer_id, title, description, date, time, location,
            	category, status, image_url, created_at, updated_at
       	 FROM events
      	 WHERE organizer_id = $1
        	AND ($2 = '' OR status = $2)
      	 ORDER BY date ASC`,
		organizerID, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	events, err := r.collectEvents(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return events, nil
}

// UpdateStatus flips an event between draft and published. The organizer match
// is part of the predicate, so a non-owner sees the same not-found as a
// missing event.
func (r *EventRepo) UpdateStatus(
	ctx context.Context,
	eventID, organizerID int64,
	status domain.EventStatus,
) (*domain.Event, error) {
	const op = "postgres.EventRepo.UpdateStatus"

	var e domain.Event
	err := r.pool.QueryRow(ctx,
		`UPDATE events
        	SET status = $3, updated_at = NOW()
      	 WHERE id = $1 AND organizer_id = $2
      	 RETURNING id, organizer_id, title, description, date, time, location,
               	   category, status, image_url, created_at, updated_at`,
		eventID, organizerID, status,
	).Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Date, &e.Time,
		&e.Location, &e.Category, &e.Status, &e.ImageURL, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &e, nil
}

func (r *EventRepo) GetTicketType(ctx context.Context, id int64) (*domain.TicketType, error) {
	const op = "postgres.EventRepo.GetTicketType"

	var tt domain.TicketType
	err := r.pool.QueryRow(ctx,
		`SELECT id, event_id, name, price, sale_start_date, sale_end_date, max_quantity
       	 FROM ticket_types
      	 WHERE id = $1`,
		id,
	).Scan(
		&tt.ID, &tt.EventID, &tt.Name, &tt.Price,
		&tt.SaleStartDate, &tt.SaleEndDate, &tt.MaxQuantity,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &tt, nil
}

func (r *EventRepo) collectEvents(ctx context.Context, rows pgx.Rows) ([]domain.EventWithTicketTypes, error) {
	defer rows.Close()

	var events []domain.EventWithTicketTypes
	var ids []int64

	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(
			&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Date, &e.Time,
			&e.Location, &e.Category, &e.Status, &e.ImageURL, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, domain.EventWithTicketTypes{Event: e})
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(events) == 0 {
		return []domain.EventWithTicketTypes{}, nil
	}

	ttRows, err := r.pool.Query(ctx,
		`SELECT id, event_id, name, price, sale_start_date, sale_end_date, max_quantity
       	 FROM ticket_types
      	 WHERE event_id = ANY($1)
      	 ORDER BY id ASC`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer ttRows.Close()

	byEvent := make(map[int64][]domain.TicketType, len(events))
	for ttRows.Next() {
		var tt domain.TicketType
		if err := ttRows.Scan(
			&tt.ID, &tt.EventID, &tt.Name, &tt.Price,
			&tt.SaleStartDate, &tt.SaleEndDate, &tt.MaxQuantity,
		); err != nil {
			return nil, err
		}
		byEvent[tt.EventID] = append(byEvent[tt.EventID], tt)
	}
	if err := ttRows.Err(); err != nil {
		return nil, err
	}

	for i := range events {
		events[i].TicketTypes = byEvent[events[i].ID]
		if events[i].TicketTypes == nil {
			events[i].TicketTypes = []domain.TicketType{}
		}
	}

	return events, nil
}
