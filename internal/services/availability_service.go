package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/internal/cache"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/internal/repository"
	"github.com/mentorbook/mentorbook-api/internal/schedule"
	apperrors "github.com/mentorbook/mentorbook-api/pkg/errors"
	"github.com/mentorbook/mentorbook-api/pkg/logger"
	"go.uber.org/zap"
)

// slotStepMinutes is the granularity of the read-only slot preview
const slotStepMinutes = 30

// AvailabilityService manages offering availability policies: the daily
// mentoring block, allowed weekdays, and per-date overrides. Reads go
// through the availability projection cache; writes invalidate it.
type AvailabilityService struct {
	offeringRepo repository.OfferingRepositoryInterface
	blackoutRepo repository.BlackoutRepositoryInterface
	sessionRepo  repository.SessionRepositoryInterface
	rosterRepo   repository.RosterRepositoryInterface
	availCache   cache.AvailabilityCacheInterface
	calculator   *schedule.Calculator
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(
	offeringRepo repository.OfferingRepositoryInterface,
	blackoutRepo repository.BlackoutRepositoryInterface,
	sessionRepo repository.SessionRepositoryInterface,
	rosterRepo repository.RosterRepositoryInterface,
	availCache cache.AvailabilityCacheInterface,
	calculator *schedule.Calculator,
) AvailabilityServiceInterface {
	return &AvailabilityService{
		offeringRepo: offeringRepo,
		blackoutRepo: blackoutRepo,
		sessionRepo:  sessionRepo,
		rosterRepo:   rosterRepo,
		availCache:   availCache,
		calculator:   calculator,
	}
}

// GetAvailability returns the shaped availability policy of an offering.
// Visible to the owning mentor, admins, and enrolled students.
func (s *AvailabilityService) GetAvailability(ctx context.Context, actor models.Actor, offeringID uuid.UUID) (*models.AvailabilityResponse, error) {
	offering, err := s.offeringRepo.GetByID(ctx, offeringID)
	if err != nil {
		return nil, err
	}

	if err := s.checkReadAccess(ctx, actor, offering); err != nil {
		return nil, err
	}

	avail, err := s.availCache.Get(ctx, offeringID)
	if err != nil {
		return nil, err
	}

	return models.ShapeAvailability(avail), nil
}

// SetMentoringBlock replaces the offering's daily mentoring block.
// Only the owning mentor or an admin may change it.
func (s *AvailabilityService) SetMentoringBlock(ctx context.Context, actor models.Actor, offeringID uuid.UUID, req *models.UpdateMentoringBlockRequest) (*models.MentoringBlock, error) {
	offering, err := s.offeringRepo.GetByID(ctx, offeringID)
	if err != nil {
		return nil, err
	}

	if err := s.checkWriteAccess(actor, offering); err != nil {
		return nil, err
	}

	block := models.MentoringBlock{Start: req.Start, End: req.End}
	if err := block.Validate(); err != nil {
		return nil, err
	}

	if err := s.offeringRepo.UpdateMentoringBlock(ctx, offeringID, block, actor.ID); err != nil {
		return nil, err
	}

	s.availCache.Invalidate(offeringID)

	logger.Info("Mentoring block updated",
		zap.String("offering_id", offeringID.String()),
		zap.String("edited_by", actor.ID.String()),
		zap.String("start", block.Start),
		zap.String("end", block.End))

	return &block, nil
}

// UpdateAvailability applies a partial update to the allowed-day set and
// the per-date open/close overrides. Omitted fields are left untouched.
func (s *AvailabilityService) UpdateAvailability(ctx context.Context, actor models.Actor, offeringID uuid.UUID, req *models.UpdateAvailabilityRequest) (*models.AvailabilityResponse, error) {
	offering, err := s.offeringRepo.GetByID(ctx, offeringID)
	if err != nil {
		return nil, err
	}

	if err := s.checkWriteAccess(actor, offering); err != nil {
		return nil, err
	}

	patch, err := buildAvailabilityPatch(req)
	if err != nil {
		return nil, err
	}

	avail, err := s.offeringRepo.UpdateAvailability(ctx, offeringID, *patch, actor.ID)
	if err != nil {
		return nil, err
	}

	s.availCache.Invalidate(offeringID)

	logger.Info("Availability policy updated",
		zap.String("offering_id", offeringID.String()),
		zap.String("edited_by", actor.ID.String()))

	return models.ShapeAvailability(avail), nil
}

// PreviewSlots divides the mentoring block of one date into fixed-size
// candidate slots and marks each as bookable or not. The preview is
// advisory: it skips the lead-time rule and may read a slightly stale
// policy, and the commit path re-validates everything.
func (s *AvailabilityService) PreviewSlots(ctx context.Context, actor models.Actor, offeringID uuid.UUID, date string) (*models.SlotPreviewResponse, error) {
	offering, err := s.offeringRepo.GetByID(ctx, offeringID)
	if err != nil {
		return nil, err
	}

	if err := s.checkReadAccess(ctx, actor, offering); err != nil {
		return nil, err
	}

	day, err := models.ParseISODate(date)
	if err != nil {
		return nil, err
	}

	avail, err := s.availCache.Get(ctx, offeringID)
	if err != nil {
		return nil, err
	}

	blackouts, err := s.blackoutRepo.ListForMentor(ctx, offering.MentorID, date, date)
	if err != nil {
		return nil, err
	}

	blockStart := models.ClockMinutes(avail.MentoringBlock.Start)
	blockEnd := models.ClockMinutes(avail.MentoringBlock.End)

	resp := &models.SlotPreviewResponse{Date: date, Slots: []models.SlotPreview{}}
	for m := blockStart; m+slotStepMinutes <= blockEnd; m += slotStepMinutes {
		start := day.Add(time.Duration(m) * time.Minute)
		end := start.Add(slotStepMinutes * time.Minute)

		slot := models.SlotPreview{
			Start:     start.Format("15:04"),
			End:       end.Format("15:04"),
			Available: true,
		}

		if err := s.calculator.ValidatePreview(avail, blackouts, start, end); err != nil {
			slot.Available = false
			slot.Reason = schedule.RejectionReason(err)
		} else {
			conflict, err := s.sessionRepo.HasConflict(ctx, offering.MentorID, start, end, nil)
			if err != nil {
				return nil, err
			}
			if conflict {
				slot.Available = false
				slot.Reason = "slot_taken"
			}
		}

		resp.Slots = append(resp.Slots, slot)
	}

	return resp, nil
}

func (s *AvailabilityService) checkReadAccess(ctx context.Context, actor models.Actor, offering *models.Offering) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsMentor() {
		if offering.MentorID == actor.ID {
			return nil
		}
		return apperrors.AccessDeniedError("offering belongs to another mentor")
	}

	enrolled, err := s.rosterRepo.IsEnrolled(ctx, offering.ID, actor.ID)
	if err != nil {
		return err
	}
	if !enrolled {
		return apperrors.AccessDeniedError("not enrolled in this offering")
	}
	return nil
}

func (s *AvailabilityService) checkWriteAccess(actor models.Actor, offering *models.Offering) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsMentor() && offering.MentorID == actor.ID {
		return nil
	}
	return apperrors.AccessDeniedError("only the owning mentor may edit availability")
}

func buildAvailabilityPatch(req *models.UpdateAvailabilityRequest) (*repository.AvailabilityPatch, error) {
	patch := &repository.AvailabilityPatch{
		OpenDates:   req.OpenDates,
		ClosedDates: req.ClosedDates,
	}

	if req.OpenDates != nil {
		for _, d := range *req.OpenDates {
			if _, err := models.ParseISODate(d); err != nil {
				return nil, apperrors.InvalidInputError("openDates", fmt.Sprintf("%q is not a valid ISO date", d))
			}
		}
	}
	if req.ClosedDates != nil {
		for _, d := range *req.ClosedDates {
			if _, err := models.ParseISODate(d); err != nil {
				return nil, apperrors.InvalidInputError("closedDates", fmt.Sprintf("%q is not a valid ISO date", d))
			}
		}
	}

	if req.AllowedDays != nil {
		days := make([]time.Weekday, 0, len(*req.AllowedDays))
		for _, name := range *req.AllowedDays {
			day, err := models.ParseWeekdayName(name)
			if err != nil {
				return nil, err
			}
			days = append(days, day)
		}
		patch.AllowedDays = &days
	}

	return patch, nil
}
