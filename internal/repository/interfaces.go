package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/healthconnect-api/internal/model"
)

// ErrSlotTaken is returned by CreateIfSlotFree when the doctor already has a
// blocking appointment intersecting the requested window.
var ErrSlotTaken = errors.New("appointment slot already taken")

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error)
		ExistsByUsername(ctx context.Context, username string) (bool, error)
		ExistsByEmail(ctx context.Context, email string) (bool, error)
		SetActive(ctx context.Context, id uuid.UUID, active bool) error
		UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error
		Count(ctx context.Context) (int64, error)
		CountActiveByRole(ctx context.Context, role model.Role) (int64, error)
	}

	AppointmentRepository interface {
		// CreateIfSlotFree runs the overlap check and the insert in one
		// serializable transaction and reports ErrSlotTaken on intersection.
		// The outbox event, when non-nil, is written in the same transaction.
		CreateIfSlotFree(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		FindOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.Appointment, error)
		Count(ctx context.Context, filters *model.AppointmentFilters) (int64, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		Update(ctx context.Context, record *model.MedicalRecord) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListByPatient(ctx context.Context, patientID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error)
		// Stats scopes by whichever of patientID/doctorID is non-nil;
		// uuid.Nil for both yields system-wide counts.
		Stats(ctx context.Context, patientID, doctorID uuid.UUID) (*model.RecordStats, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Doctor, error)
		AdjustPatientCount(ctx context.Context, id uuid.UUID, delta int) error
	}

	DepartmentRepository interface {
		Create(ctx context.Context, department *model.Department) error
		Get(ctx context.Context, id uuid.UUID) (*model.Department, error)
		Update(ctx context.Context, department *model.Department) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Department, error)
		AdjustDoctorCount(ctx context.Context, id uuid.UUID, delta int) error
	}

	TokenRepository interface {
		StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
		ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error)
		InvalidateResetToken(ctx context.Context, token string) error
		StoreVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
		ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error)
		InvalidateVerificationToken(ctx context.Context, token string) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMessage string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
