package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/internal/schedule"
	apperrors "github.com/mentorbook/mentorbook-api/pkg/errors"
	"github.com/mentorbook/mentorbook-api/pkg/logger"
	"github.com/mentorbook/mentorbook-api/pkg/metrics"
	"go.uber.org/zap"
)

// OfferingRepository handles offering and availability data access
type OfferingRepository struct {
	pool *pgxpool.Pool
}

// NewOfferingRepository creates a new offering repository
func NewOfferingRepository(pool *pgxpool.Pool) OfferingRepositoryInterface {
	return &OfferingRepository{pool: pool}
}

// GetByID retrieves an offering with its full availability policy
func (r *OfferingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Offering, error) {
	start := time.Now()
	operation := "getOffering"

	var o models.Offering
	var days []int16
	var metaRaw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, mentor_id, term_id, title, schedule_code,
		       block_start, block_end, allowed_days, availability_meta,
		       last_edited_at, created_at
		FROM offerings WHERE id = $1`, id).Scan(
		&o.ID, &o.MentorID, &o.TermID, &o.Title, &o.ScheduleCode,
		&o.Availability.MentoringBlock.Start, &o.Availability.MentoringBlock.End,
		&days, &metaRaw, &o.Availability.Meta.LastEditedAt, &o.CreatedAt,
	)

	duration := metrics.MeasureDuration(start)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("offering")
		}
		recordMetrics(operation, "error", duration)
		return nil, fmt.Errorf("failed to get offering: %w", err)
	}

	// An empty allowed-day set falls back to the offering's schedule code
	o.Availability.AllowedDays = weekdaysFromInts(days)
	if len(o.Availability.AllowedDays) == 0 {
		o.Availability.AllowedDays = schedule.DeriveAllowedDays(o.ScheduleCode)
	}

	if err := json.Unmarshal(metaRaw, &o.Availability.Meta.Dates); err != nil {
		logger.Warn("Malformed availability audit metadata",
			zap.String("offering_id", id.String()), zap.Error(err))
		o.Availability.Meta.Dates = map[string]models.AuditEntry{}
	}

	if err := r.loadOverrides(ctx, id, &o.Availability); err != nil {
		recordMetrics(operation, "error", duration)
		return nil, err
	}

	recordMetrics(operation, "success", duration)
	return &o, nil
}

// GetAvailability retrieves just the availability policy for an offering
func (r *OfferingRepository) GetAvailability(ctx context.Context, offeringID uuid.UUID) (*models.Availability, error) {
	offering, err := r.GetByID(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	return &offering.Availability, nil
}

// UpdateMentoringBlock replaces the daily mentoring window and re-stamps
// the audit timestamp
func (r *OfferingRepository) UpdateMentoringBlock(ctx context.Context, offeringID uuid.UUID, block models.MentoringBlock, editedBy uuid.UUID) error {
	start := time.Now()
	operation := "updateMentoringBlock"

	tag, err := r.pool.Exec(ctx, `
		UPDATE offerings
		SET block_start = $2, block_end = $3, last_edited_at = now()
		WHERE id = $1`, offeringID, block.Start, block.End)

	duration := metrics.MeasureDuration(start)
	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to update mentoring block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundError("offering")
	}

	recordMetrics(operation, "success", duration)
	return nil
}

// UpdateAvailability applies a partial availability update in a single
// transaction. Override sets are replaced wholesale; audit entries are
// sticky, recorded only for dates that gain an exception and never
// overwritten once set.
func (r *OfferingRepository) UpdateAvailability(ctx context.Context, offeringID uuid.UUID, patch AvailabilityPatch, editedBy uuid.UUID) (*models.Availability, error) {
	start := time.Now()
	operation := "updateAvailability"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var metaRaw []byte
	err = tx.QueryRow(ctx,
		`SELECT availability_meta FROM offerings WHERE id = $1 FOR UPDATE`,
		offeringID).Scan(&metaRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("offering")
		}
		return nil, fmt.Errorf("failed to lock offering: %w", err)
	}

	meta := map[string]models.AuditEntry{}
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		meta = map[string]models.AuditEntry{}
	}

	now := time.Now().UTC()

	if patch.AllowedDays != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE offerings SET allowed_days = $2 WHERE id = $1`,
			offeringID, weekdaysToInts(*patch.AllowedDays)); err != nil {
			return nil, fmt.Errorf("failed to update allowed days: %w", err)
		}
	}

	if patch.OpenDates != nil {
		if err := r.replaceOverrides(ctx, tx, offeringID, models.DateExceptionOpen, *patch.OpenDates, meta, editedBy, now); err != nil {
			return nil, err
		}
	}
	if patch.ClosedDates != nil {
		if err := r.replaceOverrides(ctx, tx, offeringID, models.DateExceptionClosed, *patch.ClosedDates, meta, editedBy, now); err != nil {
			return nil, err
		}
	}

	metaOut, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit metadata: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE offerings SET availability_meta = $2, last_edited_at = $3 WHERE id = $1`,
		offeringID, metaOut, now); err != nil {
		return nil, fmt.Errorf("failed to update audit metadata: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		recordMetrics(operation, "error", metrics.MeasureDuration(start))
		return nil, fmt.Errorf("failed to commit availability update: %w", err)
	}

	recordMetrics(operation, "success", metrics.MeasureDuration(start))
	return r.GetAvailability(ctx, offeringID)
}

// replaceOverrides swaps the override set of one kind and records sticky
// audit entries for newly added dates
func (r *OfferingRepository) replaceOverrides(ctx context.Context, tx pgx.Tx, offeringID uuid.UUID, kind models.DateExceptionKind, dates []string, meta map[string]models.AuditEntry, editedBy uuid.UUID, now time.Time) error {
	parsed := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		t, err := models.ParseISODate(d)
		if err != nil {
			return err
		}
		parsed = append(parsed, t)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM offering_date_overrides WHERE offering_id = $1 AND kind = $2`,
		offeringID, string(kind)); err != nil {
		return fmt.Errorf("failed to clear %s overrides: %w", kind, err)
	}

	for i, t := range parsed {
		if _, err := tx.Exec(ctx, `
			INSERT INTO offering_date_overrides (offering_id, override_date, kind)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			offeringID, t, string(kind)); err != nil {
			return fmt.Errorf("failed to insert override: %w", err)
		}

		// Sticky audit: preserve who made the first exception for a date
		if _, exists := meta[dates[i]]; !exists {
			meta[dates[i]] = models.AuditEntry{Action: kind, By: editedBy, At: now}
		}
	}

	return nil
}

func (r *OfferingRepository) loadOverrides(ctx context.Context, offeringID uuid.UUID, avail *models.Availability) error {
	rows, err := r.pool.Query(ctx, `
		SELECT override_date, kind
		FROM offering_date_overrides
		WHERE offering_id = $1
		ORDER BY override_date`, offeringID)
	if err != nil {
		return fmt.Errorf("failed to load date overrides: %w", err)
	}
	defer rows.Close()

	avail.OpenDates = []string{}
	avail.ClosedDates = []string{}
	for rows.Next() {
		var date time.Time
		var kind string
		if err := rows.Scan(&date, &kind); err != nil {
			return fmt.Errorf("failed to scan date override: %w", err)
		}
		iso := date.Format(models.ISODateLayout)
		if kind == string(models.DateExceptionClosed) {
			avail.ClosedDates = append(avail.ClosedDates, iso)
		} else {
			avail.OpenDates = append(avail.OpenDates, iso)
		}
	}
	return rows.Err()
}

func weekdaysFromInts(days []int16) []time.Weekday {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, time.Weekday(d))
	}
	return out
}

func weekdaysToInts(days []time.Weekday) []int16 {
	out := make([]int16, 0, len(days))
	for _, d := range days {
		out = append(out, int16(d))
	}
	return out
}

// recordMetrics records database operation metrics
func recordMetrics(operation, status string, duration float64) {
	metrics.DBRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.DBRequestTotal.WithLabelValues(operation, status).Inc()
}
