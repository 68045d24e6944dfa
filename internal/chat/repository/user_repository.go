package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vehicle_rental_service/internal/chat/domain"
)

// UserRepository definition read-only user profile lookup
type UserRepository interface {
	// FindByID returns (nil, nil) when the user does not exist.
	FindByID(ctx context.Context, userID uint) (*domain.UserProfile, error)
}

type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository create a UserRepository
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, userID uint) (*domain.UserProfile, error) {
	row := r.db.QueryRow(ctx,
		"SELECT id, first_name, last_name, email, role FROM users WHERE id = $1",
		userID,
	)

	var u domain.UserProfile
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &u, nil
}
