package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vehicle_rental_service/internal/chat/domain"
)

// TicketRepository definition support ticket read access. The rental
// CRUD layer owns the table; the chat subsystem only reads it.
type TicketRepository interface {
	// FindByID returns (nil, nil) when the ticket does not exist, so
	// callers can treat "no ticket" and "no access" identically.
	FindByID(ctx context.Context, ticketID uint) (*domain.SupportTicket, error)
}

type ticketRepository struct {
	db *pgxpool.Pool
}

// NewTicketRepository create a TicketRepository
func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) FindByID(ctx context.Context, ticketID uint) (*domain.SupportTicket, error) {
	row := r.db.QueryRow(ctx,
		"SELECT id, user_id, assigned_to, booking_id, subject, status, created_at, updated_at FROM support_tickets WHERE id = $1",
		ticketID,
	)

	var t domain.SupportTicket
	err := row.Scan(&t.ID, &t.UserID, &t.AssignedTo, &t.BookingID, &t.Subject, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &t, nil
}
