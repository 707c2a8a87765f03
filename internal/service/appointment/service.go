package appointment

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/healthconnect-api/internal/config"
	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/internal/repository"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/logger"
	"github.com/smarthealth/healthconnect-api/pkg/metrics"
)

type Service struct {
	apptRepo repository.AppointmentRepository
	userRepo repository.UserRepository
	cfg      config.AppointmentConfig
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(
	apptRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	cfg config.AppointmentConfig,
	logger *logger.Logger,
) *Service {
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = model.DefaultAppointmentDuration
	}
	return &Service{
		apptRepo: apptRepo,
		userRepo: userRepo,
		cfg:      cfg,
		logger:   logger,
	}
}

// WithMetrics attaches booking and transition counters. Without it the
// service runs unmetered, which keeps test setup small.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Book creates an appointment for the patient if the doctor's slot is free.
// The overlap check and the insert run in one serializable transaction, so two
// concurrent bookings for the same window cannot both succeed.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	doctor, err := s.userRepo.Get(ctx, req.DoctorID)
	if err != nil || doctor.Role != model.RoleDoctor {
		return nil, errors.NotFound("doctor", err)
	}
	if !doctor.IsActive {
		return nil, errors.NotFound("doctor", nil)
	}

	if req.StartTime.Before(time.Now()) {
		return nil, errors.InvalidArgument("appointment cannot start in the past", nil)
	}

	duration := s.cfg.DefaultDurationMinutes
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}
	if duration <= 0 {
		return nil, errors.InvalidArgument("duration must be positive", nil)
	}

	now := time.Now()
	appt := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PatientID:           patientID,
		DoctorID:            req.DoctorID,
		StartTime:           req.StartTime,
		DurationMinutes:     duration,
		Type:                req.Type,
		Reason:              req.Reason,
		Status:              model.AppointmentStatusScheduled,
		IsVideoConsultation: req.IsVideoConsultation,
	}

	event, err := model.NewOutboxEvent(model.EventAppointmentBooked, appt)
	if err != nil {
		return nil, errors.Internal(err)
	}

	if err := s.apptRepo.CreateIfSlotFree(ctx, appt, event); err != nil {
		if stderrors.Is(err, repository.ErrSlotTaken) {
			if s.metrics != nil {
				s.metrics.BookingConflicts.Inc()
			}
			return nil, errors.Conflict("doctor is not available at the requested time", err)
		}
		return nil, errors.Internal(err)
	}

	if s.metrics != nil {
		s.metrics.AppointmentsBooked.Inc()
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID.String(),
		"doctor_id", appt.DoctorID.String())

	return appt, nil
}

// UpdateStatus moves an appointment through its lifecycle. Only the stored
// patient or doctor may update it. A rejected transition leaves the row
// untouched.
func (s *Service) UpdateStatus(ctx context.Context, appointmentID, requesterID uuid.UUID, req *model.UpdateAppointmentStatusRequest) (*model.Appointment, error) {
	appt, err := s.apptRepo.Get(ctx, appointmentID)
	if err != nil {
		return nil, errors.NotFound("appointment", err)
	}

	if appt.PatientID != requesterID && appt.DoctorID != requesterID {
		return nil, errors.Forbidden("not a participant of this appointment")
	}

	newStatus, err := model.ParseAppointmentStatus(req.Status)
	if err != nil {
		return nil, errors.InvalidArgument("invalid appointment status", err)
	}

	if !model.CanTransition(appt.Status, newStatus, s.cfg.StrictTransitions) {
		if s.metrics != nil {
			s.metrics.RejectedTransitions.Inc()
		}
		return nil, errors.InvalidArgument("status transition not allowed", nil)
	}

	oldStatus := appt.Status
	appt.Status = newStatus
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}

	event, err := model.NewOutboxEvent(model.EventAppointmentStatusChanged, map[string]interface{}{
		"appointment_id": appt.ID,
		"from":           oldStatus,
		"to":             newStatus,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}

	if err := s.apptRepo.Update(ctx, appt, event); err != nil {
		return nil, errors.Internal(err)
	}

	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(oldStatus), string(newStatus)).Inc()
	}

	return appt, nil
}

// Get returns an appointment to one of its participants or an admin.
func (s *Service) Get(ctx context.Context, appointmentID, requesterID uuid.UUID, requesterRole model.Role) (*model.Appointment, error) {
	appt, err := s.apptRepo.Get(ctx, appointmentID)
	if err != nil {
		return nil, errors.NotFound("appointment", err)
	}
	if requesterRole != model.RoleAdmin && appt.PatientID != requesterID && appt.DoctorID != requesterID {
		return nil, errors.Forbidden("not a participant of this appointment")
	}
	return appt, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}
	filters.PatientID = patientID
	appts, err := s.apptRepo.List(ctx, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return appts, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}
	filters.DoctorID = doctorID
	appts, err := s.apptRepo.List(ctx, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return appts, nil
}

// Upcoming returns the next appointments for either side of the relation.
func (s *Service) Upcoming(ctx context.Context, userID uuid.UUID, role model.Role, limit int) ([]*model.Appointment, error) {
	filters := &model.AppointmentFilters{
		From:  time.Now(),
		Limit: limit,
	}
	switch role {
	case model.RoleDoctor:
		filters.DoctorID = userID
	default:
		filters.PatientID = userID
	}
	appts, err := s.apptRepo.List(ctx, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return appts, nil
}

// Today returns a doctor's appointments within the current calendar day.
func (s *Service) Today(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	appts, err := s.apptRepo.List(ctx, &model.AppointmentFilters{
		DoctorID: doctorID,
		From:     dayStart,
		To:       dayStart.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	return appts, nil
}

// AvailableSlots lists the free conflict windows of a doctor's working day.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, day time.Time, slotMinutes int) ([]time.Time, error) {
	doctor, err := s.userRepo.Get(ctx, doctorID)
	if err != nil || doctor.Role != model.RoleDoctor {
		return nil, errors.NotFound("doctor", err)
	}
	if slotMinutes <= 0 {
		slotMinutes = s.cfg.DefaultDurationMinutes
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, day.Location())
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), 17, 0, 0, 0, day.Location())

	booked, err := s.apptRepo.FindOverlapping(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, errors.Internal(err)
	}

	var free []time.Time
	for slot := dayStart; !slot.Add(time.Duration(slotMinutes) * time.Minute).After(dayEnd); slot = slot.Add(time.Duration(slotMinutes) * time.Minute) {
		slotEnd := slot.Add(time.Duration(slotMinutes) * time.Minute)
		taken := false
		for _, appt := range booked {
			if appt.Status.BlocksSlot() && appt.Overlaps(slot, slotEnd) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, slot)
		}
	}
	return free, nil
}

// AdminList returns appointments across all users for the admin surface.
func (s *Service) AdminList(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}
	appts, err := s.apptRepo.List(ctx, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return appts, nil
}

// AdminDelete soft deletes an appointment regardless of participants.
func (s *Service) AdminDelete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.apptRepo.Get(ctx, id); err != nil {
		return errors.NotFound("appointment", err)
	}
	if err := s.apptRepo.Delete(ctx, id); err != nil {
		return errors.Internal(err)
	}
	return nil
}

// Stats aggregates appointment counts scoped to the requester.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID, role model.Role) (*model.AppointmentStats, error) {
	base := model.AppointmentFilters{}
	switch role {
	case model.RoleDoctor:
		base.DoctorID = userID
	case model.RolePatient:
		base.PatientID = userID
	}

	stats := &model.AppointmentStats{}
	counts := []struct {
		status model.AppointmentStatus
		dest   *int64
	}{
		{"", &stats.Total},
		{model.AppointmentStatusScheduled, &stats.Scheduled},
		{model.AppointmentStatusCompleted, &stats.Completed},
		{model.AppointmentStatusCancelled, &stats.Cancelled},
	}
	for _, c := range counts {
		filters := base
		filters.Status = c.status
		n, err := s.apptRepo.Count(ctx, &filters)
		if err != nil {
			return nil, errors.Internal(err)
		}
		*c.dest = n
	}
	return stats, nil
}
