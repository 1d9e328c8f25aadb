package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RosterRepository answers enrollment lookups for an offering. The roster
// itself is owned by course administration; the booking engine only reads
// it to whitelist session participants.
type RosterRepository struct {
	pool *pgxpool.Pool
}

// NewRosterRepository creates a new roster repository
func NewRosterRepository(pool *pgxpool.Pool) RosterRepositoryInterface {
	return &RosterRepository{pool: pool}
}

// EnrolledStudentIDs returns the ids of students enrolled in an offering
func (r *RosterRepository) EnrolledStudentIDs(ctx context.Context, offeringID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM enrollments WHERE offering_id = $1`, offeringID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsEnrolled reports whether a user is enrolled in an offering
func (r *RosterRepository) IsEnrolled(ctx context.Context, offeringID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM enrollments WHERE offering_id = $1 AND user_id = $2
		)`, offeringID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return exists, nil
}
