package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/internal/repository"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/logger"
)

const previewLimit = 5

// Service assembles the role-scoped dashboard projections. Every call
// re-queries the stores; results are never cached.
type Service struct {
	apptRepo   repository.AppointmentRepository
	recordRepo repository.MedicalRecordRepository
	userRepo   repository.UserRepository
	logger     *logger.Logger
}

func NewService(
	apptRepo repository.AppointmentRepository,
	recordRepo repository.MedicalRecordRepository,
	userRepo repository.UserRepository,
	logger *logger.Logger,
) *Service {
	return &Service{
		apptRepo:   apptRepo,
		recordRepo: recordRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

func (s *Service) Patient(ctx context.Context, patientID uuid.UUID) (*model.PatientDashboard, error) {
	now := time.Now()

	upcoming, err := s.apptRepo.List(ctx, &model.AppointmentFilters{
		PatientID: patientID,
		From:      now,
		Limit:     previewLimit,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}

	records, err := s.recordRepo.ListByPatient(ctx, patientID, &model.RecordFilters{Limit: previewLimit})
	if err != nil {
		return nil, errors.Internal(err)
	}

	total, err := s.apptRepo.Count(ctx, &model.AppointmentFilters{PatientID: patientID})
	if err != nil {
		return nil, errors.Internal(err)
	}
	completed, err := s.apptRepo.Count(ctx, &model.AppointmentFilters{
		PatientID: patientID,
		Status:    model.AppointmentStatusCompleted,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	recordStats, err := s.recordRepo.Stats(ctx, patientID, uuid.Nil)
	if err != nil {
		return nil, errors.Internal(err)
	}

	return &model.PatientDashboard{
		UpcomingAppointments: upcoming,
		RecentRecords:        records,
		HealthStats: model.PatientHealthStats{
			TotalAppointments:     total,
			CompletedAppointments: completed,
			TotalRecords:          recordStats.Total,
			UpcomingCount:         len(upcoming),
		},
	}, nil
}

func (s *Service) Doctor(ctx context.Context, doctorID uuid.UUID) (*model.DoctorDashboard, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	today, err := s.apptRepo.List(ctx, &model.AppointmentFilters{
		DoctorID: doctorID,
		From:     dayStart,
		To:       dayStart.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, errors.Internal(err)
	}

	upcoming, err := s.apptRepo.List(ctx, &model.AppointmentFilters{
		DoctorID: doctorID,
		From:     now,
		Limit:    previewLimit,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}

	total, err := s.apptRepo.Count(ctx, &model.AppointmentFilters{DoctorID: doctorID})
	if err != nil {
		return nil, errors.Internal(err)
	}
	scheduled, err := s.apptRepo.Count(ctx, &model.AppointmentFilters{
		DoctorID: doctorID,
		Status:   model.AppointmentStatusScheduled,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	completed, err := s.apptRepo.Count(ctx, &model.AppointmentFilters{
		DoctorID: doctorID,
		Status:   model.AppointmentStatusCompleted,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	recordStats, err := s.recordRepo.Stats(ctx, uuid.Nil, doctorID)
	if err != nil {
		return nil, errors.Internal(err)
	}

	recent, err := s.recentPatients(ctx, doctorID, now)
	if err != nil {
		return nil, err
	}

	return &model.DoctorDashboard{
		TodayAppointments:    today,
		UpcomingAppointments: upcoming,
		RecentPatients:       recent,
		Stats: model.DoctorStats{
			TotalAppointments:     total,
			ScheduledAppointments: scheduled,
			CompletedAppointments: completed,
			TodayCount:            len(today),
			RecordsAuthored:       recordStats.Total,
		},
	}, nil
}

// recentPatients projects the doctor's latest past appointments onto the
// distinct patients seen, newest first.
func (s *Service) recentPatients(ctx context.Context, doctorID uuid.UUID, now time.Time) ([]model.RecentPatient, error) {
	past, err := s.apptRepo.List(ctx, &model.AppointmentFilters{
		DoctorID: doctorID,
		To:       now,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}

	recent := make([]model.RecentPatient, 0, previewLimit)
	seen := make(map[uuid.UUID]bool)
	// List orders by start time ascending; walk backwards for newest first.
	for i := len(past) - 1; i >= 0 && len(recent) < previewLimit; i-- {
		appt := past[i]
		if seen[appt.PatientID] {
			continue
		}
		seen[appt.PatientID] = true
		patient, err := s.userRepo.Get(ctx, appt.PatientID)
		if err != nil {
			continue
		}
		recent = append(recent, model.RecentPatient{
			PublicUser: patient.Public(),
			LastVisit:  appt.StartTime,
		})
	}
	return recent, nil
}

func (s *Service) Admin(ctx context.Context) (*model.AdminDashboard, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	patients, err := s.userRepo.CountActiveByRole(ctx, model.RolePatient)
	if err != nil {
		return nil, errors.Internal(err)
	}
	doctors, err := s.userRepo.CountActiveByRole(ctx, model.RoleDoctor)
	if err != nil {
		return nil, errors.Internal(err)
	}

	totalAppts, err := s.apptRepo.Count(ctx, &model.AppointmentFilters{})
	if err != nil {
		return nil, errors.Internal(err)
	}
	todayAppts, err := s.apptRepo.Count(ctx, &model.AppointmentFilters{
		From: dayStart,
		To:   dayStart.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	inProgress, err := s.apptRepo.Count(ctx, &model.AppointmentFilters{
		Status: model.AppointmentStatusInProgress,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	recordStats, err := s.recordRepo.Stats(ctx, uuid.Nil, uuid.Nil)
	if err != nil {
		return nil, errors.Internal(err)
	}

	return &model.AdminDashboard{
		Stats: model.AdminStats{
			TotalUsers:          totalUsers,
			ActivePatients:      patients,
			ActiveDoctors:       doctors,
			TotalAppointments:   totalAppts,
			TodayAppointments:   todayAppts,
			ActiveConsultations: inProgress,
			TotalRecords:        recordStats.Total,
		},
	}, nil
}
