package services

import (
	"context"
	"time"

	awspkg "github.com/yashrajoria/capture-backend/pkg/aws"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"go.uber.org/zap"
)

type BookingService struct {
	packages  *PackageService
	gateway   docstore.Gateway
	validator *Validator
	metrics   MetricsRecorder
	logger    *zap.Logger
	now       func() time.Time
}

func NewBookingService(packages *PackageService, gateway docstore.Gateway, validator *Validator, metrics MetricsRecorder, logger *zap.Logger) *BookingService {
	return &BookingService{
		packages:  packages,
		gateway:   gateway,
		validator: validator,
		metrics:   metricsOrNoop(metrics),
		logger:    logger,
		now:       time.Now,
	}
}

// SelectPackage starts a draft from a package and moves it to the schedule step.
func (s *BookingService) SelectPackage(ctx context.Context, req models.SelectPackageRequest) (*models.BookingDraft, error) {
	if err := s.validator.Struct(ctx, req); err != nil {
		return nil, err
	}
	pkg, err := s.packages.Get(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}
	return &models.BookingDraft{
		Step:      models.StepSchedule,
		PackageID: pkg.ID,
		Title:     pkg.Title,
		Price:     pkg.Price,
		Team:      pkg.Team,
		Duration:  pkg.Duration,
	}, nil
}

// Submit confirms a complete draft. Package fields are re-read so a stale
// draft cannot book an old price.
func (s *BookingService) Submit(ctx context.Context, userID string, draft models.BookingDraft) (*models.Booking, error) {
	if err := s.validator.Struct(ctx, draft); err != nil {
		return nil, err
	}
	pkg, err := s.packages.Get(ctx, draft.PackageID)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		UserID:    userID,
		PackageID: pkg.ID,
		Title:     pkg.Title,
		Price:     pkg.Price,
		Team:      pkg.Team,
		Duration:  pkg.Duration,
		Date:      draft.Date,
		TimeSlot:  draft.TimeSlot,
		FullName:  draft.FullName,
		Email:     draft.Email,
		Phone:     draft.Phone,
		Notes:     draft.Notes,
		Status:    models.BookingStatusPending,
		CreatedAt: s.now().UTC(),
	}
	id, err := s.gateway.Create(ctx, docstore.Bookings, booking)
	if err != nil {
		s.logger.Error("Failed to save booking", zap.String("packageID", pkg.ID), zap.Error(err))
		return nil, remoteErr(err)
	}
	booking.ID = id

	_ = s.metrics.RecordCount(ctx, awspkg.MetricBookingsCreated, map[string]string{"Team": pkg.Team})
	s.logger.Info("Booking created", zap.String("bookingID", id), zap.String("packageID", pkg.ID))
	return booking, nil
}
