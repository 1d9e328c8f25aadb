package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/config"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/internal/notify"
	"github.com/mentorbook/mentorbook-api/internal/repository"
	"github.com/mentorbook/mentorbook-api/internal/schedule"
	apperrors "github.com/mentorbook/mentorbook-api/pkg/errors"
	"github.com/mentorbook/mentorbook-api/pkg/logger"
	"github.com/mentorbook/mentorbook-api/pkg/metrics"
	"github.com/mentorbook/mentorbook-api/pkg/storage"
	"go.uber.org/zap"
)

// datetime layouts accepted on the wire; naive values are taken as UTC
var sessionTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// BookingService owns the session lifecycle: create, patch, cancel,
// complete, reschedule, attach recording. All schedule rules run through
// the calculator against the authoritative store; the repository closes
// the conflict race under a per-mentor lock.
type BookingService struct {
	sessionRepo  repository.SessionRepositoryInterface
	offeringRepo repository.OfferingRepositoryInterface
	blackoutRepo repository.BlackoutRepositoryInterface
	rosterRepo   repository.RosterRepositoryInterface
	calculator   *schedule.Calculator
	notifier     notify.Notifier
	storage      storage.Client
	cfg          *config.Config
	now          func() time.Time
}

// NewBookingService creates a new booking service. The storage client may
// be nil when no recordings bucket is configured.
func NewBookingService(
	sessionRepo repository.SessionRepositoryInterface,
	offeringRepo repository.OfferingRepositoryInterface,
	blackoutRepo repository.BlackoutRepositoryInterface,
	rosterRepo repository.RosterRepositoryInterface,
	calculator *schedule.Calculator,
	notifier notify.Notifier,
	storageClient storage.Client,
	cfg *config.Config,
) BookingServiceInterface {
	return &BookingService{
		sessionRepo:  sessionRepo,
		offeringRepo: offeringRepo,
		blackoutRepo: blackoutRepo,
		rosterRepo:   rosterRepo,
		calculator:   calculator,
		notifier:     notifier,
		storage:      storageClient,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Create books a new session. The creator must be a student enrolled in
// the offering; requested participants outside the roster are silently
// dropped and the creator is always first in the participant set.
func (s *BookingService) Create(ctx context.Context, actor models.Actor, req *models.CreateSessionRequest) (*models.Session, error) {
	if !actor.IsStudent() {
		return nil, apperrors.AccessDeniedError("only students may book sessions")
	}

	offeringID, err := uuid.Parse(req.OfferingID)
	if err != nil {
		return nil, apperrors.InvalidInputError("offeringId", "must be a valid uuid")
	}
	mentorID, err := uuid.Parse(req.MentorID)
	if err != nil {
		return nil, apperrors.InvalidInputError("mentorId", "must be a valid uuid")
	}

	start, err := parseSessionTime("start", req.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseSessionTime("end", req.End)
	if err != nil {
		return nil, err
	}

	offering, err := s.offeringRepo.GetByID(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	if offering.MentorID != mentorID {
		return nil, apperrors.InvalidInputError("mentorId", "mentor does not teach this offering")
	}

	enrolled, err := s.rosterRepo.IsEnrolled(ctx, offeringID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, apperrors.AccessDeniedError("not enrolled in this offering")
	}

	if err := s.validateSchedule(ctx, &offering.Availability, mentorID, start, end); err != nil {
		return nil, err
	}

	participants, err := s.resolveParticipants(ctx, offeringID, actor.ID, req.Participants)
	if err != nil {
		return nil, err
	}

	capacity, err := resolveCapacity(req.Capacity, len(participants))
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		OfferingID:    offeringID,
		MentorID:      mentorID,
		CreatorID:     actor.ID,
		ScheduleStart: start,
		ScheduleEnd:   end,
		Status:        models.SessionPending,
		Participants:  participants,
		Capacity:      capacity,
		Topic:         req.Topic,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			metrics.SlotConflicts.Inc()
		}
		return nil, err
	}

	metrics.SessionsCreated.WithLabelValues(string(session.Status)).Inc()
	logger.Info("Session booked",
		zap.String("session_id", session.ID.String()),
		zap.String("offering_id", offeringID.String()),
		zap.String("mentor_id", mentorID.String()),
		zap.String("creator_id", actor.ID.String()),
		zap.Time("start", start),
		zap.Int("participants", len(participants)))

	s.notifier.SessionEvent(notify.EventSessionCreated, session, s.recipients(session))
	return session, nil
}

// Get returns one session, visible to admins, the mentor, the creator,
// and participants.
func (s *BookingService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisibility(actor, session); err != nil {
		return nil, err
	}
	return session, nil
}

// List returns the sessions visible to the actor: all sessions for
// admins, own mentoring sessions for mentors, created-or-joined sessions
// for students.
func (s *BookingService) List(ctx context.Context, actor models.Actor) (*models.SessionListResponse, error) {
	sessions, err := s.sessionRepo.ListForActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &models.SessionListResponse{Sessions: sessions, Total: len(sessions)}, nil
}

// Update applies a partial edit to a pending session. Time changes are
// re-validated against the schedule policy and the conflict guard, with
// the session itself excluded from the overlap check.
func (s *BookingService) Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.UpdateSessionRequest) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditAccess(actor, session); err != nil {
		return nil, err
	}
	if session.Status != models.SessionPending {
		return nil, apperrors.InvalidInputError("status",
			fmt.Sprintf("only pending sessions may be edited, current status is %s", session.Status))
	}

	timeChanged := false
	start, end := session.ScheduleStart, session.ScheduleEnd
	if req.Start != nil {
		if start, err = parseSessionTime("start", *req.Start); err != nil {
			return nil, err
		}
		timeChanged = true
	}
	if req.End != nil {
		if end, err = parseSessionTime("end", *req.End); err != nil {
			return nil, err
		}
		timeChanged = true
	}

	if timeChanged {
		offering, err := s.offeringRepo.GetByID(ctx, session.OfferingID)
		if err != nil {
			return nil, err
		}
		if err := s.validateSchedule(ctx, &offering.Availability, session.MentorID, start, end); err != nil {
			return nil, err
		}
		session.ScheduleStart = start
		session.ScheduleEnd = end
	}

	if req.Participants != nil {
		participants, err := s.resolveParticipants(ctx, session.OfferingID, session.CreatorID, *req.Participants)
		if err != nil {
			return nil, err
		}
		session.Participants = participants
	}
	if req.Capacity != nil {
		session.Capacity = *req.Capacity
	}
	if session.Capacity < session.BookedCount() {
		return nil, apperrors.InvalidInputError("capacity",
			fmt.Sprintf("capacity %d is below the booked participant count %d", session.Capacity, session.BookedCount()))
	}
	if req.Topic != nil {
		session.Topic = *req.Topic
	}
	if req.MeetLink != nil {
		session.MeetLink = *req.MeetLink
	}

	if err := s.sessionRepo.Update(ctx, session, timeChanged); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			metrics.SlotConflicts.Inc()
		}
		return nil, err
	}

	logger.Info("Session updated",
		zap.String("session_id", session.ID.String()),
		zap.Bool("time_changed", timeChanged))

	s.notifier.SessionEvent(notify.EventSessionUpdated, session, s.recipients(session))
	return session, nil
}

// Cancel marks a session cancelled. Allowed for the creator, the mentor,
// or an admin, only from a cancellable state, and only while the start is
// at least the lead time away. The row survives as history.
func (s *BookingService) Cancel(ctx context.Context, actor models.Actor, id uuid.UUID, reason string) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditAccess(actor, session); err != nil {
		return nil, err
	}
	if !session.Status.IsCancellable() {
		return nil, apperrors.InvalidInputError("status",
			fmt.Sprintf("session in status %s cannot be cancelled", session.Status))
	}
	if err := s.calculator.CheckCancelWindow(session.ScheduleStart, s.now()); err != nil {
		return nil, err
	}

	from := session.Status
	session.Status = models.SessionCancelled
	cancelledBy := actor.ID
	session.CancelledBy = &cancelledBy
	session.CancelReason = reason

	if err := s.sessionRepo.UpdateStatus(ctx, session); err != nil {
		return nil, err
	}

	metrics.SessionsCancelled.Inc()
	metrics.SessionTransitions.WithLabelValues(string(from), string(models.SessionCancelled)).Inc()
	logger.Info("Session cancelled",
		zap.String("session_id", session.ID.String()),
		zap.String("cancelled_by", actor.ID.String()),
		zap.String("previous_status", string(from)))

	s.notifier.SessionEvent(notify.EventSessionCancelled, session, s.recipients(session))
	return session, nil
}

// MarkCompleted transitions a session to completed. Mentor or admin only;
// no schedule validation applies.
func (s *BookingService) MarkCompleted(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkMentorAccess(actor, session); err != nil {
		return nil, err
	}
	if !session.Status.CanTransitionTo(models.SessionCompleted) {
		return nil, apperrors.InvalidInputError("status",
			fmt.Sprintf("cannot complete a session in status %s", session.Status))
	}

	from := session.Status
	session.Status = models.SessionCompleted

	if err := s.sessionRepo.UpdateStatus(ctx, session); err != nil {
		return nil, err
	}

	metrics.SessionTransitions.WithLabelValues(string(from), string(models.SessionCompleted)).Inc()
	logger.Info("Session completed", zap.String("session_id", session.ID.String()))

	s.notifier.SessionEvent(notify.EventSessionCompleted, session, s.recipients(session))
	return session, nil
}

// Reschedule moves a session to new times in place and marks it
// rescheduled. Mentor or admin only. The new slot must satisfy the
// schedule policy and the conflict guard (this session excluded); the
// lead-time rule does not apply to mentor-initiated moves.
func (s *BookingService) Reschedule(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.RescheduleSessionRequest) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkMentorAccess(actor, session); err != nil {
		return nil, err
	}
	if !session.Status.CanTransitionTo(models.SessionRescheduled) {
		return nil, apperrors.InvalidInputError("status",
			fmt.Sprintf("cannot reschedule a session in status %s", session.Status))
	}

	start, err := parseSessionTime("start", req.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseSessionTime("end", req.End)
	if err != nil {
		return nil, err
	}

	offering, err := s.offeringRepo.GetByID(ctx, session.OfferingID)
	if err != nil {
		return nil, err
	}
	date := start.Format(models.ISODateLayout)
	blackouts, err := s.blackoutRepo.ListForMentor(ctx, session.MentorID, date, date)
	if err != nil {
		return nil, err
	}
	if err := s.calculator.ValidatePreview(&offering.Availability, blackouts, start, end); err != nil {
		metrics.ScheduleRejections.WithLabelValues(schedule.RejectionReason(err)).Inc()
		return nil, err
	}

	from := session.Status
	session.ScheduleStart = start
	session.ScheduleEnd = end
	session.Status = models.SessionRescheduled
	requestedBy := actor.ID
	session.RescheduleRequestedBy = &requestedBy
	session.RescheduleReason = req.Reason

	if err := s.sessionRepo.Update(ctx, session, true); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			metrics.SlotConflicts.Inc()
		}
		return nil, err
	}

	metrics.SessionTransitions.WithLabelValues(string(from), string(models.SessionRescheduled)).Inc()
	logger.Info("Session rescheduled",
		zap.String("session_id", session.ID.String()),
		zap.String("requested_by", actor.ID.String()),
		zap.Time("new_start", start))

	s.notifier.SessionEvent(notify.EventSessionRescheduled, session, s.recipients(session))
	return session, nil
}

// AttachRecording uploads a session recording and stores its URL.
// Mentor or admin only, and only for completed sessions.
func (s *BookingService) AttachRecording(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.AttachRecordingRequest) (*models.Session, error) {
	if s.storage == nil {
		return nil, apperrors.InternalError("recordings storage is not configured")
	}

	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkMentorAccess(actor, session); err != nil {
		return nil, err
	}
	if session.Status != models.SessionCompleted {
		return nil, apperrors.InvalidInputError("status", "recordings may only be attached to completed sessions")
	}

	if err := s.storage.ValidateRecordingType(req.ContentType); err != nil {
		return nil, apperrors.InvalidInputError("contentType", err.Error())
	}
	if err := s.storage.ValidateRecordingSize(req.Data); err != nil {
		return nil, apperrors.InvalidInputError("data", err.Error())
	}

	key := fmt.Sprintf("sessions/%s/recording-%d", session.ID, s.now().Unix())
	url, err := s.storage.UploadRecording(ctx, req.Data, key, req.ContentType)
	if err != nil {
		return nil, apperrors.InternalError("failed to upload recording")
	}

	if err := s.sessionRepo.SetRecordingURL(ctx, session.ID, url); err != nil {
		return nil, err
	}
	session.RecordingURL = url

	logger.Info("Recording attached",
		zap.String("session_id", session.ID.String()),
		zap.String("content_type", req.ContentType))
	return session, nil
}

// validateSchedule runs the calculator against the authoritative policy
// and the mentor's blackouts for the target date.
func (s *BookingService) validateSchedule(ctx context.Context, policy *models.Availability, mentorID uuid.UUID, start, end time.Time) error {
	date := start.Format(models.ISODateLayout)
	blackouts, err := s.blackoutRepo.ListForMentor(ctx, mentorID, date, date)
	if err != nil {
		return err
	}
	if err := s.calculator.Validate(policy, blackouts, start, end, s.now()); err != nil {
		metrics.ScheduleRejections.WithLabelValues(schedule.RejectionReason(err)).Inc()
		return err
	}
	return nil
}

// resolveParticipants builds the ordered participant set: the creator
// first, then requested students that are actually enrolled, deduplicated.
// Unenrolled ids are dropped without error.
func (s *BookingService) resolveParticipants(ctx context.Context, offeringID, creatorID uuid.UUID, requested []string) ([]models.Participant, error) {
	enrolledIDs, err := s.rosterRepo.EnrolledStudentIDs(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	enrolled := make(map[uuid.UUID]bool, len(enrolledIDs))
	for _, id := range enrolledIDs {
		enrolled[id] = true
	}

	participants := []models.Participant{{UserID: creatorID, Status: models.ParticipantBooked}}
	seen := map[uuid.UUID]bool{creatorID: true}

	for _, raw := range requested {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.InvalidInputError("participants", fmt.Sprintf("%q is not a valid uuid", raw))
		}
		if seen[id] || !enrolled[id] {
			continue
		}
		seen[id] = true
		participants = append(participants, models.Participant{UserID: id, Status: models.ParticipantBooked})
	}

	return participants, nil
}

// resolveCapacity applies the capacity default: the participant count
// (creator included) when unset, floored at one. An explicit capacity
// below the participant count is rejected.
func resolveCapacity(requested *int, participantCount int) (int, error) {
	if requested == nil {
		if participantCount < 1 {
			return 1, nil
		}
		return participantCount, nil
	}
	if *requested < participantCount {
		return 0, apperrors.InvalidInputError("capacity",
			fmt.Sprintf("capacity %d is below the participant count %d", *requested, participantCount))
	}
	if *requested < 1 {
		return 0, apperrors.InvalidInputError("capacity", "must be at least 1")
	}
	return *requested, nil
}

func (s *BookingService) checkVisibility(actor models.Actor, session *models.Session) error {
	if actor.IsAdmin() || session.MentorID == actor.ID || session.CreatorID == actor.ID || session.HasParticipant(actor.ID) {
		return nil
	}
	return apperrors.AccessDeniedError("session is not visible to this user")
}

func (s *BookingService) checkEditAccess(actor models.Actor, session *models.Session) error {
	if actor.IsAdmin() || session.CreatorID == actor.ID {
		return nil
	}
	if actor.IsMentor() && session.MentorID == actor.ID {
		return nil
	}
	return apperrors.AccessDeniedError("session may only be changed by its creator or mentor")
}

func (s *BookingService) checkMentorAccess(actor models.Actor, session *models.Session) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsMentor() && session.MentorID == actor.ID {
		return nil
	}
	return apperrors.AccessDeniedError("only the mentor may perform this action")
}

func (s *BookingService) recipients(session *models.Session) []uuid.UUID {
	ids := []uuid.UUID{session.MentorID}
	for _, p := range session.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

func parseSessionTime(field, raw string) (time.Time, error) {
	for _, layout := range sessionTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.InvalidInputError(field, fmt.Sprintf("%q is not a valid datetime", raw))
}
