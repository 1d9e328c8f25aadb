package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mentorbook/mentorbook-api/internal/models"
	apperrors "github.com/mentorbook/mentorbook-api/pkg/errors"
	"github.com/mentorbook/mentorbook-api/pkg/logger"
	"github.com/mentorbook/mentorbook-api/pkg/metrics"
	"go.uber.org/zap"
)

// Postgres error codes surfaced as typed conflicts
const (
	pgExclusionViolation = "23P01"
	pgCheckViolation     = "23514"
)

// BlackoutRepository handles mentor blackout data access. Range overlap is
// enforced by a daterange exclusion constraint, so the store is the final
// arbiter even under concurrent inserts.
type BlackoutRepository struct {
	pool *pgxpool.Pool
}

// NewBlackoutRepository creates a new blackout repository
func NewBlackoutRepository(pool *pgxpool.Pool) BlackoutRepositoryInterface {
	return &BlackoutRepository{pool: pool}
}

// Create inserts a blackout; overlapping ranges for the same mentor map to
// ErrConflict
func (r *BlackoutRepository) Create(ctx context.Context, blackout *models.Blackout) error {
	start := time.Now()
	operation := "createBlackout"

	err := r.pool.QueryRow(ctx, `
		INSERT INTO mentor_blackouts (mentor_id, start_date, end_date, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		blackout.MentorID, blackout.StartDate, blackout.EndDate, blackout.Reason,
	).Scan(&blackout.ID, &blackout.CreatedAt)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgExclusionViolation:
				recordMetrics(operation, "conflict", duration)
				return apperrors.ConflictError("blackout overlaps an existing range")
			case pgCheckViolation:
				recordMetrics(operation, "error", duration)
				return apperrors.InvalidInputError("blackout", "date range violates span constraint")
			}
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to create blackout: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return nil
}

// GetByID retrieves a single blackout
func (r *BlackoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Blackout, error) {
	var b models.Blackout
	var startDate, endDate time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT id, mentor_id, start_date, end_date, reason, created_at
		FROM mentor_blackouts WHERE id = $1`, id).Scan(
		&b.ID, &b.MentorID, &startDate, &endDate, &b.Reason, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("blackout")
		}
		return nil, fmt.Errorf("failed to get blackout: %w", err)
	}

	b.StartDate = startDate.Format(models.ISODateLayout)
	b.EndDate = endDate.Format(models.ISODateLayout)
	return &b, nil
}

// Delete removes a blackout unconditionally. Already-committed sessions are
// unaffected; blackouts are forward-looking advisory data consulted only at
// booking time.
func (r *BlackoutRepository) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	operation := "deleteBlackout"

	tag, err := r.pool.Exec(ctx, `DELETE FROM mentor_blackouts WHERE id = $1`, id)

	duration := metrics.MeasureDuration(start)
	if err != nil {
		recordMetrics(operation, "error", duration)
		return fmt.Errorf("failed to delete blackout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundError("blackout")
	}

	recordMetrics(operation, "success", duration)
	return nil
}

// ListForMentor returns a mentor's blackouts ordered by start date,
// optionally bounded by an inclusive ISO date range
func (r *BlackoutRepository) ListForMentor(ctx context.Context, mentorID uuid.UUID, from, to string) ([]*models.Blackout, error) {
	query := `
		SELECT id, mentor_id, start_date, end_date, reason, created_at
		FROM mentor_blackouts
		WHERE mentor_id = $1`
	args := []any{mentorID}

	if from != "" {
		args = append(args, from)
		query += fmt.Sprintf(" AND end_date >= $%d", len(args))
	}
	if to != "" {
		args = append(args, to)
		query += fmt.Sprintf(" AND start_date <= $%d", len(args))
	}
	query += " ORDER BY start_date"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list blackouts: %w", err)
	}
	defer rows.Close()

	blackouts := make([]*models.Blackout, 0)
	for rows.Next() {
		var b models.Blackout
		var startDate, endDate time.Time
		if err := rows.Scan(&b.ID, &b.MentorID, &startDate, &endDate, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blackout: %w", err)
		}
		b.StartDate = startDate.Format(models.ISODateLayout)
		b.EndDate = endDate.Format(models.ISODateLayout)
		blackouts = append(blackouts, &b)
	}
	return blackouts, rows.Err()
}
