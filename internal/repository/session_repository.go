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

// SessionRepository handles session data access.
//
// The "check conflicts, then insert" sequence is not atomic on its own, so
// every write that changes a session's interval runs inside a transaction
// that first takes a per-mentor advisory lock and then re-runs the overlap
// check against committed rows. A GiST exclusion constraint on
// (mentor_id, tstzrange) is the last line of defense should the lock ever
// be bypassed.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(pool *pgxpool.Pool) SessionRepositoryInterface {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `
	id, offering_id, mentor_id, creator_id, starts_at, ends_at, status,
	capacity, topic, meet_link, recording_url, cancelled_by, cancel_reason,
	reschedule_requested_by, reschedule_reason, created_at, updated_at`

// GetByID retrieves a session with its participant set
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+sessionColumns+` FROM sessions WHERE id = $1`, id)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("session")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := r.loadParticipants(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ListForActor returns the sessions visible to an actor: admins see all,
// mentors see their own calendar, students see sessions they participate in
func (r *SessionRepository) ListForActor(ctx context.Context, actor models.Actor) ([]*models.Session, error) {
	var rows pgx.Rows
	var err error

	switch actor.Role {
	case models.RoleAdmin:
		rows, err = r.pool.Query(ctx,
			`SELECT`+sessionColumns+` FROM sessions ORDER BY starts_at`)
	case models.RoleMentor:
		rows, err = r.pool.Query(ctx,
			`SELECT`+sessionColumns+` FROM sessions WHERE mentor_id = $1 ORDER BY starts_at`, actor.ID)
	default:
		rows, err = r.pool.Query(ctx, `
			SELECT`+sessionColumns+` FROM sessions s
			WHERE s.creator_id = $1
			   OR EXISTS (
			        SELECT 1 FROM session_participants p
			        WHERE p.session_id = s.id AND p.user_id = $1
			   )
			ORDER BY starts_at`, actor.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan session: %w", scanErr)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range sessions {
		if err := r.loadParticipants(ctx, s); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// HasConflict is the conflict guard predicate: true iff any non-cancelled
// session for the mentor overlaps the open interval [start, end).
// excludeID lets a reschedule check against all sessions except itself.
func (r *SessionRepository) HasConflict(ctx context.Context, mentorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	return hasConflict(ctx, r.pool, mentorID, start, end, excludeID)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func hasConflict(ctx context.Context, q querier, mentorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM sessions
			WHERE mentor_id = $1
			  AND status <> 'cancelled'
			  AND starts_at < $3
			  AND $2 < ends_at`
	args := []any{mentorID, start, end}
	if excludeID != nil {
		args = append(args, *excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	query += ")"

	var exists bool
	if err := q.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check session conflicts: %w", err)
	}
	return exists, nil
}

// Create persists a new session and its participants. The conflict check is
// re-evaluated inside the transaction, after the per-mentor lock is held.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	start := time.Now()
	operation := "createSession"

	err := r.withMentorLock(ctx, session.MentorID, func(tx pgx.Tx) error {
		conflict, err := hasConflict(ctx, tx, session.MentorID, session.ScheduleStart, session.ScheduleEnd, nil)
		if err != nil {
			return err
		}
		if conflict {
			return apperrors.ConflictError("slot overlaps a committed session")
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO sessions (offering_id, mentor_id, creator_id, starts_at, ends_at,
			                      status, capacity, topic, meet_link)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at`,
			session.OfferingID, session.MentorID, session.CreatorID,
			session.ScheduleStart, session.ScheduleEnd, session.Status,
			session.Capacity, session.Topic, session.MeetLink,
		).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return mapOverlapError(err, "failed to insert session")
		}

		return insertParticipants(ctx, tx, session.ID, session.Participants)
	})

	duration := metrics.MeasureDuration(start)
	if err != nil {
		status := "error"
		if apperrors.Is(err, apperrors.ErrConflict) {
			status = "conflict"
		}
		recordMetrics(operation, status, duration)
		return err
	}

	recordMetrics(operation, "success", duration)
	logger.LogAPICall("postgres", operation, "success", duration,
		zap.String("session_id", session.ID.String()))
	return nil
}

// Update rewrites a session's mutable fields and replaces its participant
// set. When the interval changed, the write re-checks conflicts under the
// mentor lock, excluding the session itself.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session, timeChanged bool) error {
	start := time.Now()
	operation := "updateSession"

	write := func(tx pgx.Tx) error {
		if timeChanged {
			conflict, err := hasConflict(ctx, tx, session.MentorID,
				session.ScheduleStart, session.ScheduleEnd, &session.ID)
			if err != nil {
				return err
			}
			if conflict {
				return apperrors.ConflictError("slot overlaps a committed session")
			}
		}

		if _, err := tx.Exec(ctx, `
			UPDATE sessions
			SET starts_at = $2, ends_at = $3, status = $4, capacity = $5,
			    topic = $6, meet_link = $7,
			    reschedule_requested_by = $8, reschedule_reason = $9,
			    updated_at = now()
			WHERE id = $1`,
			session.ID, session.ScheduleStart, session.ScheduleEnd,
			session.Status, session.Capacity, session.Topic, session.MeetLink,
			session.RescheduleRequestedBy, nilIfEmpty(session.RescheduleReason),
		); err != nil {
			return mapOverlapError(err, "failed to update session")
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM session_participants WHERE session_id = $1`, session.ID); err != nil {
			return fmt.Errorf("failed to clear participants: %w", err)
		}
		return insertParticipants(ctx, tx, session.ID, session.Participants)
	}

	err := r.withMentorLock(ctx, session.MentorID, write)

	duration := metrics.MeasureDuration(start)
	if err != nil {
		status := "error"
		if apperrors.Is(err, apperrors.ErrConflict) {
			status = "conflict"
		}
		recordMetrics(operation, status, duration)
		return err
	}

	recordMetrics(operation, "success", duration)
	return nil
}

// UpdateStatus persists a status transition and its audit fields without
// touching the interval or participants
func (r *SessionRepository) UpdateStatus(ctx context.Context, session *models.Session) error {
	start := time.Now()
	operation := "updateSessionStatus"

	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET status = $2, cancelled_by = $3, cancel_reason = $4,
		    reschedule_requested_by = $5, reschedule_reason = $6,
		    updated_at = now()
		WHERE id = $1`,
		session.ID, session.Status,
		session.CancelledBy, nilIfEmpty(session.CancelReason),
		session.RescheduleRequestedBy, nilIfEmpty(session.RescheduleReason),
	)

	duration := metrics.MeasureDuration(start)
	if err != nil {
		recordMetrics(operation, "error", duration)
		return fmt.Errorf("failed to update session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundError("session")
	}

	recordMetrics(operation, "success", duration)
	return nil
}

// SetRecordingURL stamps the recording location on a session
func (r *SessionRepository) SetRecordingURL(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions SET recording_url = $2, updated_at = now() WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("failed to set recording url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundError("session")
	}
	return nil
}

// withMentorLock runs fn inside a transaction holding the per-mentor
// advisory lock. The lock is released automatically at commit/rollback.
func (r *SessionRepository) withMentorLock(ctx context.Context, mentorID uuid.UUID, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, mentorID.String()); err != nil {
		return fmt.Errorf("failed to acquire mentor lock: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertParticipants(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, participants []models.Participant) error {
	for i, p := range participants {
		if _, err := tx.Exec(ctx, `
			INSERT INTO session_participants (session_id, user_id, status, position)
			VALUES ($1, $2, $3, $4)`,
			sessionID, p.UserID, p.Status, i); err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}

func (r *SessionRepository) loadParticipants(ctx context.Context, session *models.Session) error {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, status FROM session_participants
		WHERE session_id = $1 ORDER BY position`, session.ID)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	session.Participants = []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.Status); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		session.Participants = append(session.Participants, p)
	}
	return rows.Err()
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	var cancelReason, rescheduleReason *string
	err := row.Scan(
		&s.ID, &s.OfferingID, &s.MentorID, &s.CreatorID,
		&s.ScheduleStart, &s.ScheduleEnd, &s.Status, &s.Capacity,
		&s.Topic, &s.MeetLink, &s.RecordingURL,
		&s.CancelledBy, &cancelReason,
		&s.RescheduleRequestedBy, &rescheduleReason,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cancelReason != nil {
		s.CancelReason = *cancelReason
	}
	if rescheduleReason != nil {
		s.RescheduleReason = *rescheduleReason
	}
	return &s, nil
}

// mapOverlapError converts the exclusion-constraint violation raised by the
// sessions no-overlap constraint into a typed conflict
func mapOverlapError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return apperrors.ConflictError("slot overlaps a committed session")
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
