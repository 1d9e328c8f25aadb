package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/config"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/internal/repository"
	apperrors "github.com/mentorbook/mentorbook-api/pkg/errors"
	"github.com/mentorbook/mentorbook-api/pkg/logger"
	"github.com/mentorbook/mentorbook-api/pkg/metrics"
	"go.uber.org/zap"
)

// BlackoutService manages mentor-wide blackout ranges. Blackouts are
// advisory for the mentor's calendar and enforced during booking
// validation; existing sessions inside a new blackout are left untouched.
type BlackoutService struct {
	blackoutRepo repository.BlackoutRepositoryInterface
	cfg          *config.Config
}

// NewBlackoutService creates a new blackout service
func NewBlackoutService(blackoutRepo repository.BlackoutRepositoryInterface, cfg *config.Config) BlackoutServiceInterface {
	return &BlackoutService{blackoutRepo: blackoutRepo, cfg: cfg}
}

// Create registers a new blackout range for a mentor. Mentors may only
// create blackouts for themselves.
func (s *BlackoutService) Create(ctx context.Context, actor models.Actor, req *models.CreateBlackoutRequest) (*models.Blackout, error) {
	mentorID, err := uuid.Parse(req.MentorID)
	if err != nil {
		return nil, apperrors.InvalidInputError("mentorId", "must be a valid uuid")
	}

	if err := s.checkOwnership(actor, mentorID); err != nil {
		return nil, err
	}

	if _, err := models.ParseISODate(req.StartDate); err != nil {
		return nil, err
	}
	if _, err := models.ParseISODate(req.EndDate); err != nil {
		return nil, err
	}
	if req.EndDate < req.StartDate {
		return nil, apperrors.InvalidInputError("endDate", "must not be before startDate")
	}

	blackout := &models.Blackout{
		MentorID:  mentorID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
	}

	maxDays := s.cfg.Booking.MaxBlackoutDays
	if span := blackout.SpanDays(); span > maxDays {
		return nil, apperrors.InvalidInputError("endDate",
			fmt.Sprintf("blackout spans %d days, maximum is %d", span, maxDays))
	}

	if err := s.blackoutRepo.Create(ctx, blackout); err != nil {
		return nil, err
	}

	metrics.BlackoutsCreated.Inc()
	logger.Info("Blackout created",
		zap.String("blackout_id", blackout.ID.String()),
		zap.String("mentor_id", mentorID.String()),
		zap.String("start_date", blackout.StartDate),
		zap.String("end_date", blackout.EndDate))

	return blackout, nil
}

// Delete removes a blackout. Only the owning mentor or an admin may
// delete it.
func (s *BlackoutService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	blackout, err := s.blackoutRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.checkOwnership(actor, blackout.MentorID); err != nil {
		return err
	}

	if err := s.blackoutRepo.Delete(ctx, id); err != nil {
		return err
	}

	logger.Info("Blackout deleted",
		zap.String("blackout_id", id.String()),
		zap.String("mentor_id", blackout.MentorID.String()))
	return nil
}

// List returns a mentor's blackouts ordered by start date, optionally
// bounded to an inclusive date window.
func (s *BlackoutService) List(ctx context.Context, actor models.Actor, mentorID uuid.UUID, from, to string) (*models.BlackoutListResponse, error) {
	if err := s.checkOwnership(actor, mentorID); err != nil {
		return nil, err
	}

	if from != "" {
		if _, err := models.ParseISODate(from); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if _, err := models.ParseISODate(to); err != nil {
			return nil, err
		}
	}

	blackouts, err := s.blackoutRepo.ListForMentor(ctx, mentorID, from, to)
	if err != nil {
		return nil, err
	}

	return &models.BlackoutListResponse{Blackouts: blackouts, Total: len(blackouts)}, nil
}

func (s *BlackoutService) checkOwnership(actor models.Actor, mentorID uuid.UUID) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsMentor() && actor.ID == mentorID {
		return nil
	}
	return apperrors.AccessDeniedError("blackouts belong to the mentor")
}
